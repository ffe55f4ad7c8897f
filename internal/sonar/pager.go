package sonar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sqtools/sonarqube-client/model"
)

// pageEnvelope mirrors the paging counters of list responses. The item
// list lives next to them under an endpoint-specific field name and is
// decoded separately.
type pageEnvelope struct {
	Page     int `json:"p"`
	PageSize int `json:"ps"`
	Total    int `json:"total"`
}

// Pager iterates a paginated list endpoint, scanner-style:
//
//	rules := h.GetRules(ctx, sonar.RuleFilter{ActiveOnly: true})
//	for rules.Next() {
//		use(rules.Record())
//	}
//	if err := rules.Err(); err != nil {
//		return err
//	}
//
// Each Next may block on one network round trip when the current page is
// exhausted; there is no prefetching. A failed request surfaces on the
// failing Next, after any records already yielded. The sequence is finite
// and not restartable: re-consuming means a fresh call, which re-issues
// requests from page one. A Pager must not be shared across goroutines.
type Pager struct {
	handler   *Handler
	ctx       context.Context
	endpoint  string
	base      url.Values
	listField string

	// Counters start at sentinel values (page 1, size 1, total 2) so the
	// continuation condition admits exactly one request before real
	// numbers arrive from the server.
	page     int
	pageSize int
	total    int
	nextPage int // 0 until the first response; requests then carry p=nextPage

	items []model.Record
	cur   model.Record
	err   error
	done  bool
}

func newPager(ctx context.Context, h *Handler, endpoint string, base url.Values, listField string) *Pager {
	return &Pager{
		handler:   h,
		ctx:       ctx,
		endpoint:  endpoint,
		base:      base,
		listField: listField,
		page:      1,
		pageSize:  1,
		total:     2,
	}
}

// Next advances to the next record, fetching the next page when the
// current one is exhausted. It returns false when iteration ends, whether
// normally or on error; Err tells which.
func (p *Pager) Next() bool {
	if p.err != nil || p.done {
		return false
	}

	for len(p.items) == 0 {
		if p.page*p.pageSize >= p.total {
			p.done = true
			return false
		}
		if err := p.fetchPage(); err != nil {
			p.err = err
			return false
		}
	}

	p.cur = p.items[0]
	p.items = p.items[1:]
	return true
}

// Record returns the record produced by the last successful Next.
func (p *Pager) Record() model.Record { return p.cur }

// Err returns the error that terminated iteration, or nil after a normal
// end. Errors are propagated from the failing request unmodified.
func (p *Pager) Err() error { return p.err }

func (p *Pager) fetchPage() error {
	// The query is rebuilt per request; the base values are never mutated.
	q := make(url.Values, len(p.base)+1)
	for name, vs := range p.base {
		q[name] = vs
	}
	if p.nextPage > 0 {
		q.Set("p", strconv.Itoa(p.nextPage))
	}

	raw, err := p.handler.call(p.ctx, http.MethodGet, p.endpoint, q)
	if err != nil {
		return err
	}

	var env pageEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode page envelope: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decode page: %w", err)
	}

	p.page, p.pageSize, p.total = env.Page, env.PageSize, env.Total
	p.nextPage = env.Page + 1

	p.items = nil
	if list, ok := fields[p.listField]; ok {
		if err := json.Unmarshal(list, &p.items); err != nil {
			return fmt.Errorf("decode %s list: %w", p.listField, err)
		}
	}
	return nil
}

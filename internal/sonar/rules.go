package sonar

import (
	"context"
	"net/url"
	"strings"
)

// RuleFilter narrows a rule listing. Only rules in status READY that are
// not templates are ever returned.
type RuleFilter struct {
	ActiveOnly bool     // only rules active on some profile
	Profile    string   // profile key to filter by; implies activation
	Languages  []string // language keys, matched lowercase
	CustomOnly bool     // only template-instantiated (custom) rules
}

// GetRules returns a pager over the rules matching the filter.
func (h *Handler) GetRules(ctx context.Context, f RuleFilter) *Pager {
	q := url.Values{}
	q.Set("is_template", "no")
	q.Set("statuses", "READY")

	if f.Profile != "" {
		q.Set("activation", "true")
		q.Set("qprofile", f.Profile)
	} else if f.ActiveOnly {
		q.Set("activation", "true")
	}

	if len(f.Languages) > 0 {
		q.Set("languages", strings.ToLower(strings.Join(f.Languages, ",")))
	}

	// Custom rules are the only ones without a debt characteristic.
	if f.CustomOnly {
		q.Set("has_debt_characteristic", "false")
	}

	return newPager(ctx, h, rulesListEndpoint, q, "rules")
}

package sonar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/sqtools/sonarqube-client/model"
)

// DebtCharacteristics are the SQALE categories used for debt queries when
// the caller does not narrow them.
var DebtCharacteristics = []string{
	"TESTABILITY", "RELIABILITY", "CHANGEABILITY", "EFFICIENCY",
	"USABILITY", "SECURITY", "MAINTAINABILITY", "PORTABILITY", "REUSABILITY",
}

// DebtMetrics are the metrics requested on the debt side.
var DebtMetrics = []string{"sqale_index"}

// GeneralMetrics is the default metric set for the generic side. The API
// provides no titles for these; exporters hardcode their own.
var GeneralMetrics = []string{
	// SQALE metrics
	"sqale_index", "sqale_debt_ratio",

	// Violations
	"violations", "blocker_violations", "critical_violations",
	"major_violations", "minor_violations",

	// Coverage
	"lines_to_cover", "conditions_to_cover", "uncovered_lines",
	"uncovered_conditions", "coverage",
}

// ResourceQuery selects resources and the measurement surface to fetch.
// The zero value asks for all first-level resources with the defaults.
type ResourceQuery struct {
	Resource       string   // single resource key; all first-level resources when empty
	Metrics        []string // generic-side metric keys; GeneralMetrics when empty
	Categories     []string // debt characteristics; DebtCharacteristics when empty
	IncludeTrends  bool     // include differential values for leak periods
	IncludeModules bool     // include module-level resources (qualifiers TRK,BRC)
}

// GetResourcesMetrics fetches first-level resources with generic metrics.
// Unlike the list endpoints the resources endpoint is not paginated; the
// response is a flat list. With IncludeTrends the new_-prefixed variant of
// every requested metric is fetched as well.
func (h *Handler) GetResourcesMetrics(ctx context.Context, q ResourceQuery) ([]model.Record, error) {
	metrics := q.Metrics
	if len(metrics) == 0 {
		metrics = GeneralMetrics
	}

	params := url.Values{}
	if q.Resource != "" {
		params.Set("resource", q.Resource)
	}
	if q.IncludeTrends {
		params.Set("includetrends", "true")
		withNew := make([]string, 0, 2*len(metrics))
		withNew = append(withNew, metrics...)
		for _, m := range metrics {
			withNew = append(withNew, "new_"+m)
		}
		metrics = withNew
	}
	if q.IncludeModules {
		params.Set("qualifiers", "TRK,BRC")
	}
	params.Set("metrics", strings.Join(metrics, ","))

	return h.fetchResources(ctx, params)
}

// GetResourcesDebt fetches first-level resources with technical debt by
// characteristic, using the SQALE model.
func (h *Handler) GetResourcesDebt(ctx context.Context, q ResourceQuery) ([]model.Record, error) {
	categories := q.Categories
	if len(categories) == 0 {
		categories = DebtCharacteristics
	}

	params := url.Values{}
	params.Set("model", "SQALE")
	params.Set("metrics", strings.Join(DebtMetrics, ","))
	params.Set("characteristics", strings.ToUpper(strings.Join(categories, ",")))
	if q.Resource != "" {
		params.Set("resource", q.Resource)
	}
	if q.IncludeTrends {
		params.Set("includetrends", "true")
	}
	if q.IncludeModules {
		params.Set("qualifiers", "TRK,BRC")
	}

	return h.fetchResources(ctx, params)
}

func (h *Handler) fetchResources(ctx context.Context, params url.Values) ([]model.Record, error) {
	raw, err := h.call(ctx, http.MethodGet, resourcesEndpoint, params)
	if err != nil {
		return nil, err
	}

	var resources []model.Record
	if err := json.Unmarshal(raw, &resources); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return resources, nil
}

// GetResourcesFullData merges the generic-metrics and debt views into one
// record per resource key. The API splits a project's data across two
// independently filterable queries, so this is the only way to get one row
// per resource. Output is sorted by key ascending for a reproducible order.
func (h *Handler) GetResourcesFullData(ctx context.Context, q ResourceQuery) ([]model.Record, error) {
	withMetrics, err := h.GetResourcesMetrics(ctx, q)
	if err != nil {
		return nil, err
	}
	withDebt, err := h.GetResourcesDebt(ctx, q)
	if err != nil {
		return nil, err
	}
	return mergeResources(withMetrics, withDebt), nil
}

// mergeResources joins the two views by resource key. A resource on both
// sides keeps the metrics-side record and gets the debt measurements
// appended after the generic ones; duplicates are not collapsed. A
// debt-only resource is carried over as-is. Top-level fields of the
// metrics-side record win on conflict (first write wins).
func mergeResources(withMetrics, withDebt []model.Record) []model.Record {
	merged := make(map[string]model.Record, len(withMetrics))
	for _, res := range withMetrics {
		merged[res.Key()] = res
	}

	for _, res := range withDebt {
		if existing, ok := merged[res.Key()]; ok {
			existing.SetMeasures(append(existing.Measures(), res.Measures()...))
		} else {
			merged[res.Key()] = res
		}
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]model.Record, 0, len(keys))
	for _, key := range keys {
		out = append(out, merged[key])
	}
	return out
}

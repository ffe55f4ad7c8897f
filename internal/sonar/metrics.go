package sonar

import (
	"context"
	"net/url"
	"strings"
)

// GetMetrics returns a pager over the metric definitions known to the
// server. A non-empty fields list projects the returned record fields.
func (h *Handler) GetMetrics(ctx context.Context, fields []string) *Pager {
	q := url.Values{}
	if len(fields) > 0 {
		q.Set("f", strings.ToLower(strings.Join(fields, ",")))
	}
	return newPager(ctx, h, metricsListEndpoint, q, "metrics")
}

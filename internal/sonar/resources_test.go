package sonar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sqtools/sonarqube-client/internal/sonartest"
	"github.com/sqtools/sonarqube-client/model"
	"github.com/stretchr/testify/require"
)

func msr(entries ...string) []any {
	out := make([]any, 0, len(entries))
	for _, key := range entries {
		out = append(out, map[string]any{"key": key})
	}
	return out
}

func resource(key string, measures ...string) model.Record {
	return model.Record{"key": key, "name": "Project " + key, "msr": msr(measures...)}
}

func measureKeys(r model.Record) []string {
	var keys []string
	for _, m := range r.Measures() {
		if mm, ok := m.(map[string]any); ok {
			keys = append(keys, model.Record(mm).Key())
		}
	}
	return keys
}

func TestMergeResources_AppendsDebtMeasures(t *testing.T) {
	withMetrics := []model.Record{resource("A", "coverage")}
	withDebt := []model.Record{
		resource("A", "sqale_index"),
		resource("B", "sqale_index"),
	}

	out := mergeResources(withMetrics, withDebt)
	require.Len(t, out, 2)

	require.Equal(t, "A", out[0].Key())
	require.Equal(t, []string{"coverage", "sqale_index"}, measureKeys(out[0]))

	require.Equal(t, "B", out[1].Key())
	require.Equal(t, []string{"sqale_index"}, measureKeys(out[1]))
}

func TestMergeResources_EmptyDebtIsIdentity(t *testing.T) {
	withMetrics := []model.Record{
		resource("beta", "coverage"),
		resource("alpha", "violations"),
	}

	out := mergeResources(withMetrics, nil)

	want := []model.Record{
		resource("alpha", "violations"),
		resource("beta", "coverage"),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("merged resources mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeResources_DebtOnly(t *testing.T) {
	out := mergeResources(nil, []model.Record{resource("solo", "sqale_index")})
	require.Len(t, out, 1)
	require.Equal(t, "solo", out[0].Key())
	require.Equal(t, []string{"sqale_index"}, measureKeys(out[0]))
}

func TestMergeResources_SortedByKeyForAnyInputOrder(t *testing.T) {
	orders := [][]model.Record{
		{resource("c"), resource("a"), resource("b")},
		{resource("b"), resource("c"), resource("a")},
		{resource("a"), resource("b"), resource("c")},
	}

	for _, withMetrics := range orders {
		out := mergeResources(withMetrics, []model.Record{resource("d"), resource("0")})
		var keys []string
		for _, r := range out {
			keys = append(keys, r.Key())
		}
		require.Equal(t, []string{"0", "a", "b", "c", "d"}, keys)
	}
}

func TestMergeResources_MetricsSideFieldsWin(t *testing.T) {
	withMetrics := []model.Record{{"key": "A", "name": "From metrics", "msr": msr("coverage")}}
	withDebt := []model.Record{{"key": "A", "name": "From debt", "msr": msr("sqale_index")}}

	out := mergeResources(withMetrics, withDebt)
	require.Len(t, out, 1)
	// first write wins on conflicting top-level fields
	require.Equal(t, "From metrics", out[0].Str("name"))
}

func TestMergeResources_DuplicateMeasuresKept(t *testing.T) {
	out := mergeResources(
		[]model.Record{resource("A", "sqale_index")},
		[]model.Record{resource("A", "sqale_index")},
	)
	require.Equal(t, []string{"sqale_index", "sqale_index"}, measureKeys(out[0]))
}

func TestGetResourcesMetrics_Query(t *testing.T) {
	ctx := context.Background()

	var query map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for name := range r.URL.Query() {
			query[name] = r.URL.Query().Get(name)
		}
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	h := testHandler(t, ts)

	_, err := h.GetResourcesMetrics(ctx, ResourceQuery{
		Resource: "my:project",
		Metrics:  []string{"coverage", "violations"},
	})
	require.NoError(t, err)
	require.Equal(t, "my:project", query["resource"])
	require.Equal(t, "coverage,violations", query["metrics"])
	require.NotContains(t, query, "includetrends")
	require.NotContains(t, query, "qualifiers")

	// defaults fall back to the general metric set
	_, err = h.GetResourcesMetrics(ctx, ResourceQuery{})
	require.NoError(t, err)
	require.Equal(t, strings.Join(GeneralMetrics, ","), query["metrics"])
}

func TestGetResourcesMetrics_TrendsAddNewVariants(t *testing.T) {
	ctx := context.Background()

	var query map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for name := range r.URL.Query() {
			query[name] = r.URL.Query().Get(name)
		}
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	h := testHandler(t, ts)
	_, err := h.GetResourcesMetrics(ctx, ResourceQuery{
		Metrics:        []string{"coverage"},
		IncludeTrends:  true,
		IncludeModules: true,
	})
	require.NoError(t, err)
	require.Equal(t, "true", query["includetrends"])
	require.Equal(t, "coverage,new_coverage", query["metrics"])
	require.Equal(t, "TRK,BRC", query["qualifiers"])
}

func TestGetResourcesDebt_Query(t *testing.T) {
	ctx := context.Background()

	var query map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for name := range r.URL.Query() {
			query[name] = r.URL.Query().Get(name)
		}
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	h := testHandler(t, ts)

	_, err := h.GetResourcesDebt(ctx, ResourceQuery{Categories: []string{"security", "reliability"}})
	require.NoError(t, err)
	require.Equal(t, "SQALE", query["model"])
	require.Equal(t, "sqale_index", query["metrics"])
	require.Equal(t, "SECURITY,RELIABILITY", query["characteristics"])

	_, err = h.GetResourcesDebt(ctx, ResourceQuery{})
	require.NoError(t, err)
	require.Equal(t, strings.Join(DebtCharacteristics, ","), query["characteristics"])
}

func TestGetResourcesFullData_EndToEnd(t *testing.T) {
	ctx := context.Background()

	_, h := newFakeHandler(t, sonartest.Fixtures{
		ResourcesMetrics: []model.Record{resource("A", "coverage")},
		ResourcesDebt: []model.Record{
			resource("A", "sqale_index"),
			resource("B", "sqale_index"),
		},
	})

	out, err := h.GetResourcesFullData(ctx, ResourceQuery{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "A", out[0].Key())
	require.Equal(t, []string{"coverage", "sqale_index"}, measureKeys(out[0]))
	require.Equal(t, "B", out[1].Key())
	require.Equal(t, []string{"sqale_index"}, measureKeys(out[1]))
}

func TestGetResourcesFullData_MetricsSideFailureAborts(t *testing.T) {
	ctx := context.Background()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	h := testHandler(t, ts)
	_, err := h.GetResourcesFullData(ctx, ResourceQuery{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindServer, apiErr.Kind)
}

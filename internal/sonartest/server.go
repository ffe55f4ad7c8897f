// Package sonartest provides an in-process fake of the SonarQube web
// service for tests: paginated rule and metric listings, the resources
// query surface, rule activation and creation, and auth validation.
package sonartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sqtools/sonarqube-client/internal/config"
	"github.com/sqtools/sonarqube-client/model"
	"go.uber.org/zap"
)

// Fixtures is the data a fake server serves.
type Fixtures struct {
	Rules            []model.Record // served paginated by /api/rules/search
	Metrics          []model.Record // served paginated by /api/metrics/search
	ResourcesMetrics []model.Record // generic-metrics view of /api/resources
	ResourcesDebt    []model.Record // SQALE debt view of /api/resources
	PageSize         int            // list page size; defaults to 2
	Token            string         // accepted token; empty disables the auth check
	ExistingRules    []string       // custom keys that already exist (creation conflicts)
	Logger           *zap.SugaredLogger
}

// Server is a running fake. Close it when done.
type Server struct {
	HTTP *httptest.Server

	fx       Fixtures
	pageSize int

	mu             sync.Mutex
	requests       map[string]int
	lastActivation url.Values
	lastCreate     url.Values
	created        map[string]bool
}

// New starts a fake server with the given fixtures.
func New(fx Fixtures) *Server {
	s := &Server{
		fx:       fx,
		pageSize: fx.PageSize,
		requests: make(map[string]int),
		created:  make(map[string]bool),
	}
	if s.pageSize <= 0 {
		s.pageSize = 2
	}
	for _, key := range fx.ExistingRules {
		s.created[key] = true
	}

	logger := fx.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.StripSlashes)
	r.Use(logMiddleware(logger))
	r.Use(s.countRequests)

	r.Get("/api/authentication/validate", s.validateAuth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/rules/search", s.listPaginated("rules", func() []model.Record { return s.fx.Rules }))
		r.Get("/api/metrics/search", s.listPaginated("metrics", func() []model.Record { return s.fx.Metrics }))
		r.Get("/api/resources", s.listResources)
		r.Post("/api/qualityprofiles/activate_rule", s.activateRule)
		r.Post("/api/rules/create", s.createRule)
	})

	s.HTTP = httptest.NewServer(r)
	return s
}

// Close shuts the underlying test server down.
func (s *Server) Close() { s.HTTP.Close() }

// SonarConfig returns a connection config pointing at the fake server,
// carrying its token when one is configured.
func (s *Server) SonarConfig() config.SonarConfig {
	u, err := url.Parse(s.HTTP.URL)
	if err != nil {
		panic(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		panic(err)
	}
	return config.SonarConfig{
		Host:    u.Scheme + "://" + u.Hostname(),
		Port:    port,
		Token:   s.fx.Token,
		Timeout: 5,
	}
}

// RequestCount returns how many requests hit the given path.
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// LastActivation returns the form of the most recent activation call.
func (s *Server) LastActivation() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivation
}

// LastCreate returns the form of the most recent rule creation call.
func (s *Server) LastCreate() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCreate
}

// CreatedRules returns the custom keys created during the server's life,
// sorted, excluding the pre-existing ones.
func (s *Server) CreatedRules() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pre := make(map[string]bool, len(s.fx.ExistingRules))
	for _, key := range s.fx.ExistingRules {
		pre[key] = true
	}

	var keys []string
	for key := range s.created {
		if !pre[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.fx.Token == "" {
		return true
	}
	user, _, ok := r.BasicAuth()
	return ok && user == s.fx.Token
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validateAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"valid": s.authorized(r)})
}

// listPaginated serves a fixture slice with the p/ps/total envelope the
// real list endpoints use.
func (s *Server) listPaginated(field string, items func() []model.Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := items()

		page := 1
		if p := r.URL.Query().Get("p"); p != "" {
			v, err := strconv.Atoi(p)
			if err != nil || v < 1 {
				writeValidationError(w, fmt.Sprintf("invalid page %q", p))
				return
			}
			page = v
		}

		lo := (page - 1) * s.pageSize
		hi := lo + s.pageSize
		if lo > len(all) {
			lo = len(all)
		}
		if hi > len(all) {
			hi = len(all)
		}

		writeJSON(w, map[string]any{
			"p":     page,
			"ps":    s.pageSize,
			"total": len(all),
			field:   all[lo:hi],
		})
	}
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	// The debt view is requested with the SQALE model parameter.
	if r.URL.Query().Get("model") == "SQALE" {
		writeJSON(w, nonNil(s.fx.ResourcesDebt))
		return
	}
	writeJSON(w, nonNil(s.fx.ResourcesMetrics))
}

func (s *Server) activateRule(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidationError(w, "malformed form")
		return
	}
	s.mu.Lock()
	s.lastActivation = r.PostForm
	s.mu.Unlock()

	key := r.PostForm.Get("rule_key")
	for _, rule := range s.fx.Rules {
		if rule.Key() == key {
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	writeValidationError(w, fmt.Sprintf("Rule not found: %s", key))
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidationError(w, "malformed form")
		return
	}
	s.mu.Lock()
	s.lastCreate = r.PostForm
	s.mu.Unlock()

	key := r.PostForm.Get("custom_key")
	if key == "" {
		writeValidationError(w, "The custom_key parameter is missing")
		return
	}

	s.mu.Lock()
	exists := s.created[key]
	if !exists {
		s.created[key] = true
	}
	s.mu.Unlock()

	if exists {
		writeValidationError(w, fmt.Sprintf("Rule '%s' already exists", key))
		return
	}
	writeJSON(w, map[string]any{"rule": map[string]any{"key": key}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeValidationError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"msg": msg}},
	})
}

func nonNil(rs []model.Record) []model.Record {
	if rs == nil {
		return []model.Record{}
	}
	return rs
}

// Package sonar provides a client adapter for the SonarQube web service
// API: listing metrics and rules, fetching resource quality and debt data,
// activating rules on quality profiles and creating custom rules.
package sonar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sqtools/sonarqube-client/internal/config"
	"github.com/sqtools/sonarqube-client/internal/sonar/transport"
	"go.uber.org/zap"
)

// Endpoints consumed by the handler, relative to host:port+basePath.
const (
	authValidationEndpoint  = "/api/authentication/validate"
	metricsListEndpoint     = "/api/metrics/search"
	resourcesEndpoint       = "/api/resources"
	rulesActivationEndpoint = "/api/qualityprofiles/activate_rule"
	rulesListEndpoint       = "/api/rules/search"
	rulesCreateEndpoint     = "/api/rules/create"
)

// Handler talks to one SonarQube server. Credentials are attached once at
// construction and applied to every request. A Handler is safe to reuse
// for many sequential calls; individual pagers it hands out are not safe
// for concurrent use.
type Handler struct {
	config     *config.SonarConfig
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewHandler creates a handler for the server described by cfg.
func NewHandler(cfg *config.SonarConfig, logger *zap.SugaredLogger) *Handler {
	hc := &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
		Transport: &transport.AuthRoundTripper{
			Base:     http.DefaultTransport,
			User:     cfg.User,
			Password: cfg.Password,
			Token:    cfg.Token,
		},
	}
	return NewHandlerWithHTTP(cfg, logger, hc)
}

// DI: ready http.Client
func NewHandlerWithHTTP(cfg *config.SonarConfig, logger *zap.SugaredLogger, hc *http.Client) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{config: cfg, httpClient: hc, logger: logger}
}

// url returns the complete url including host and port for a given endpoint.
func (h *Handler) url(endpoint string) string {
	return fmt.Sprintf("%s:%d%s%s", h.config.Host, h.config.Port, h.config.BasePath, endpoint)
}

// call makes one request and classifies the response. GET parameters go in
// the query string, POST parameters in a form-encoded body. On success the
// raw response body is returned; every non-2xx response becomes an
// *APIError. No retries happen here.
func (h *Handler) call(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	reqURL := h.url(endpoint)
	var body io.Reader
	if len(params) > 0 {
		if method == http.MethodGet {
			reqURL += "?" + params.Encode()
		} else {
			body = strings.NewReader(params.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := classify(resp.StatusCode, raw); err != nil {
		h.logger.Debugf("call failed: method=%s endpoint=%s status=%d err=%v",
			method, endpoint, resp.StatusCode, err)
		return nil, err
	}
	return raw, nil
}

// ActivateOptions customizes a rule activation. Reset takes precedence:
// when set, severity and params are dropped entirely and the server
// restores the rule's defaults.
type ActivateOptions struct {
	Reset    bool
	Severity string            // uppercased before sending
	Params   map[string]string // free-form rule parameters; empty values omitted
}

// ActivateRule activates a rule on a quality profile.
func (h *Handler) ActivateRule(ctx context.Context, key, profileKey string, opts ActivateOptions) error {
	data := url.Values{}
	data.Set("rule_key", key)
	data.Set("profile_key", profileKey)
	data.Set("reset", strconv.FormatBool(opts.Reset))

	if !opts.Reset {
		if opts.Severity != "" {
			data.Set("severity", strings.ToUpper(opts.Severity))
		}
		if params := joinParams(opts.Params); params != "" {
			data.Set("params", params)
		}
	}

	_, err := h.call(ctx, http.MethodPost, rulesActivationEndpoint, data)
	return err
}

// joinParams serializes rule parameters deterministically: sorted by name,
// name=value pairs joined by ';', parameters with empty values omitted.
func joinParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, 0, len(params))
	for name, v := range params {
		if v == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+params[name])
	}
	return strings.Join(pairs, ";")
}

// CreateRuleRequest describes a custom rule to create from a template.
type CreateRuleRequest struct {
	Key         string // custom key, without the repository prefix
	Name        string
	Description string // markdown description
	Message     string // issue message shown on violations
	XPath       string // xpath query selecting the violation code
	Severity    string // uppercased before sending
	Status      string // uppercased before sending
	TemplateKey string // key of the template the rule instantiates
}

// CreateRule creates a custom rule.
func (h *Handler) CreateRule(ctx context.Context, r CreateRuleRequest) error {
	data := url.Values{}
	data.Set("custom_key", r.Key)
	data.Set("name", r.Name)
	data.Set("markdown_description", r.Description)
	data.Set("params", fmt.Sprintf("message=%s;xpathQuery=%s", r.Message, r.XPath))
	data.Set("severity", strings.ToUpper(r.Severity))
	data.Set("status", strings.ToUpper(r.Status))
	data.Set("template_key", r.TemplateKey)

	_, err := h.call(ctx, http.MethodPost, rulesCreateEndpoint, data)
	return err
}

// ValidateAuthentication checks the credentials passed at construction.
// The endpoint answers 200 regardless, so this doubles as a connection
// test; the result comes from the response's "valid" field.
func (h *Handler) ValidateAuthentication(ctx context.Context) (bool, error) {
	raw, err := h.call(ctx, http.MethodGet, authValidationEndpoint, nil)
	if err != nil {
		return false, err
	}

	var res struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return res.Valid, nil
}

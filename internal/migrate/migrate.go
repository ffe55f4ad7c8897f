// Package migrate copies custom rules from one SonarQube server to
// another.
package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqtools/sonarqube-client/internal/sonar"
	"github.com/sqtools/sonarqube-client/model"
	"go.uber.org/zap"
)

// Result carries the counters of one migration run.
type Result struct {
	Total   int // custom rules considered
	Created int
	Skipped int // already present on the target
	Failed  int
}

// Summary returns the one-line run summary printed to stdout.
func (r Result) Summary() string {
	return fmt.Sprintf("Done with creation of %d rules: %d created, %d skipped"+
		" (already existing) and %d failed.", r.Total, r.Created, r.Skipped, r.Failed)
}

// Migrator copies the active custom rules of a source server to a target
// server.
type Migrator struct {
	source *sonar.Handler
	target *sonar.Handler
	logger *zap.SugaredLogger
}

// New creates a migrator between the two handlers.
func New(source, target *sonar.Handler, logger *zap.SugaredLogger) *Migrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{source: source, target: target, logger: logger}
}

// Run streams the source's active custom rules and creates each one on
// the target. A rule the target already has is skipped; a rule the target
// rejects as invalid is counted as failed and reported; any other error
// aborts the whole run.
func (m *Migrator) Run(ctx context.Context) (Result, error) {
	var res Result

	rules := m.source.GetRules(ctx, sonar.RuleFilter{ActiveOnly: true, CustomOnly: true})
	for rules.Next() {
		rule := rules.Record()

		// only custom rules carry template params
		if len(rule.Params()) == 0 {
			continue
		}
		res.Total++

		err := m.target.CreateRule(ctx, createRequest(rule))
		switch {
		case err == nil:
			res.Created++
		case sonar.IsValidation(err) && strings.Contains(err.Error(), "already exists"):
			res.Skipped++
		case sonar.IsValidation(err):
			res.Failed++
			m.logger.Errorf("failed to create rule %s: %v", rule.Key(), err)
		default:
			return res, err
		}
	}
	if err := rules.Err(); err != nil {
		return res, err
	}

	return res, nil
}

func createRequest(rule model.Record) sonar.CreateRuleRequest {
	// the custom key is the part after the repository prefix
	key := rule.Key()
	if i := strings.LastIndex(key, ":"); i >= 0 {
		key = key[i+1:]
	}

	return sonar.CreateRuleRequest{
		Key:         key,
		Name:        rule.Str("name"),
		Description: rule.Str("mdDesc"),
		Message:     rule.ParamDefault("message"),
		XPath:       rule.ParamDefault("xpathQuery"),
		Severity:    rule.Str("severity"),
		Status:      rule.Str("status"),
		TemplateKey: rule.Str("templateKey"),
	}
}

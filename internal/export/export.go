// Package export writes a server's rules to CSV and HTML files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqtools/sonarqube-client/internal/config"
	"github.com/sqtools/sonarqube-client/internal/sonar"
	"github.com/sqtools/sonarqube-client/model"
)

// csvHeader is the column layout of rules.csv.
var csvHeader = []string{"language", "key", "name", "debt", "severity"}

// ruleTemplate renders one rule section of rules.html. The description is
// already HTML as served by SonarQube and is written unescaped.
var ruleTemplate = template.Must(template.New("rule").Parse(
	`<h1 id="{{.Key}}">{{.Name}}</h1><dl><dt>Language</dt><dd>{{.Language}}</dd>` +
		`<dt>Key</dt><dd>{{.Key}}</dd><dt>Severity</dt><dd>{{.Severity}}</dd>` +
		`<dt>Debt</dt><dd>{{.Debt}}</dd><dt>Parameters</dt><dd><ul>` +
		`{{range .Params}}<li>{{.}}</li>{{end}}</ul></dd>` +
		`</dl><div>{{.Description}}</div><hr>`))

type htmlRule struct {
	Key         string
	Name        string
	Language    string
	Severity    string
	Debt        string
	Params      []string
	Description template.HTML
}

// Result carries the counters of one export run.
type Result struct {
	Exported int
	Failed   int
	Complete bool
}

// Summary returns the one-line run summary printed to stdout.
func (r Result) Summary() string {
	status := "Incomplete"
	if r.Complete {
		status = "Complete"
	}
	return fmt.Sprintf("%s rules export: %d exported and %d failed.", status, r.Exported, r.Failed)
}

// Exporter writes the rules matching the configured filter to rules.csv
// and rules.html in the output directory.
type Exporter struct {
	handler *sonar.Handler
	config  *config.ExportConfig
}

// New creates an exporter using the given handler and configuration.
func New(h *sonar.Handler, cfg *config.ExportConfig) *Exporter {
	return &Exporter{handler: h, config: cfg}
}

// Run fetches and writes the rules. Rules missing a required field are
// counted as failed and skipped; a failing fetch or write aborts the run
// with Complete false. The partial files are left behind either way.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	dir, err := expandHome(e.config.OutputDir)
	if err != nil {
		return Result{}, err
	}

	csvFile, err := os.Create(filepath.Join(dir, "rules.csv"))
	if err != nil {
		return Result{}, fmt.Errorf("create csv file: %w", err)
	}
	defer csvFile.Close()

	htmlFile, err := os.Create(filepath.Join(dir, "rules.html"))
	if err != nil {
		return Result{}, fmt.Errorf("create html file: %w", err)
	}
	defer htmlFile.Close()

	return e.run(ctx, csvFile, htmlFile)
}

func (e *Exporter) run(ctx context.Context, csvOut, htmlOut io.Writer) (Result, error) {
	var res Result

	csvW := csv.NewWriter(csvOut)
	if err := csvW.Write(csvHeader); err != nil {
		return res, fmt.Errorf("write csv header: %w", err)
	}

	if _, err := io.WriteString(htmlOut, "<html><body>"); err != nil {
		return res, fmt.Errorf("write html: %w", err)
	}

	filter := sonar.RuleFilter{
		ActiveOnly: e.config.ActiveOnly,
		Profile:    e.config.Profile,
	}
	if e.config.Languages != "" {
		filter.Languages = strings.Split(e.config.Languages, ",")
	}

	rules := e.handler.GetRules(ctx, filter)
	for rules.Next() {
		rule := rules.Record()

		if missing := missingFields(rule, "langName", "key", "name", "severity"); len(missing) > 0 {
			e.config.Logger.Errorf("missing values for %s", strings.Join(missing, ","))
			res.Failed++
			continue
		}

		if err := csvW.Write([]string{
			rule.Str("langName"),
			rule.Key(),
			rule.Str("name"),
			ruleDebt(rule),
			rule.Str("severity"),
		}); err != nil {
			return res, fmt.Errorf("write csv row: %w", err)
		}

		if err := ruleTemplate.Execute(htmlOut, htmlRule{
			Key:         rule.Key(),
			Name:        rule.Str("name"),
			Language:    rule.Str("langName"),
			Severity:    rule.Str("severity"),
			Debt:        ruleDebt(rule),
			Params:      ruleParams(rule),
			Description: template.HTML(ruleDescription(rule)),
		}); err != nil {
			return res, fmt.Errorf("write html rule: %w", err)
		}
		res.Exported++
	}
	if err := rules.Err(); err != nil {
		csvW.Flush()
		return res, err
	}

	if _, err := io.WriteString(htmlOut, "</body></html>"); err != nil {
		return res, fmt.Errorf("write html: %w", err)
	}

	csvW.Flush()
	if err := csvW.Error(); err != nil {
		return res, fmt.Errorf("flush csv: %w", err)
	}

	res.Complete = true
	return res, nil
}

func missingFields(rule model.Record, fields ...string) []string {
	var missing []string
	for _, f := range fields {
		if _, ok := rule[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// ruleDebt picks the debt value; the field differs by remediation type.
func ruleDebt(rule model.Record) string {
	if v := rule.Str("debtRemFnOffset"); v != "" {
		return v
	}
	if v := rule.Str("debtRemFnCoeff"); v != "" {
		return v
	}
	return "-"
}

func ruleParams(rule model.Record) []string {
	params := rule.Params()
	if len(params) == 0 {
		return []string{"-"}
	}
	out := make([]string, 0, len(params))
	for _, p := range params {
		key, def := p.Key(), p.Str("defaultValue")
		if key == "" {
			key = "-"
		}
		if def == "" {
			def = "-"
		}
		out = append(out, key+": "+def)
	}
	return out
}

func ruleDescription(rule model.Record) string {
	if v := rule.Str("htmlDesc"); v != "" {
		return v
	}
	return "-"
}

func expandHome(dir string) (string, error) {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}

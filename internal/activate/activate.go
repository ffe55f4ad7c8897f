// Package activate applies rule overrides from a CSV file to a quality
// profile.
package activate

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sqtools/sonarqube-client/internal/config"
	"github.com/sqtools/sonarqube-client/internal/sonar"
)

// Result carries the counters of one activation run.
type Result struct {
	Activated int
	Failed    int
	Complete  bool
}

// Summary returns the one-line run summary printed to stdout.
func (r Result) Summary() string {
	status := "Incomplete"
	if r.Complete {
		status = "Complete"
	}
	return fmt.Sprintf("%s rules activation: %d activated and %d failed.", status, r.Activated, r.Failed)
}

// Activator reads rule definitions from a CSV file and activates them on
// the configured profile.
type Activator struct {
	handler *sonar.Handler
	config  *config.ActivateConfig
}

// New creates an activator using the given handler and configuration.
func New(h *sonar.Handler, cfg *config.ActivateConfig) *Activator {
	return &Activator{handler: h, config: cfg}
}

// Run reads the configured CSV file and activates each rule. A rule the
// server rejects as invalid is counted as failed and the run continues;
// any other error aborts the remaining batch with Complete false.
func (a *Activator) Run(ctx context.Context) (Result, error) {
	f, err := os.Open(a.config.Filename)
	if err != nil {
		return Result{}, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	return a.run(ctx, f)
}

// run processes one CSV document. The header row names the columns: "key"
// selects the rule, "reset" and "severity" map to the activation options,
// every other column is a free-form rule parameter. Empty cells are
// dropped.
func (a *Activator) run(ctx context.Context, in io.Reader) (Result, error) {
	var res Result

	reader := csv.NewReader(in)
	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("read csv header: %w", err)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read csv row: %w", err)
		}

		key, opts := ruleDefinition(header, row)
		if err := a.handler.ActivateRule(ctx, key, a.config.ProfileKey, opts); err != nil {
			if sonar.IsValidation(err) {
				a.config.Logger.Errorf("failed to activate rule %s: %v", key, err)
				res.Failed++
				continue
			}
			return res, err
		}
		res.Activated++
	}

	res.Complete = true
	return res, nil
}

func ruleDefinition(header, row []string) (key string, opts sonar.ActivateOptions) {
	opts.Params = make(map[string]string)

	for i, name := range header {
		if i >= len(row) {
			break
		}
		value := row[i]
		switch name {
		case "key":
			key = value
		case "reset":
			opts.Reset = isTruthy(value)
		case "severity":
			opts.Severity = value
		default:
			if value != "" {
				opts.Params[name] = value
			}
		}
	}
	return key, opts
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "true":
		return true
	}
	return false
}

package config

import (
	"errors"
	"flag"
	"os"

	"go.uber.org/zap"
)

// ActivateConfig holds the configuration settings for the activate-rules
// command.
type ActivateConfig struct {
	Sonar      SonarConfig
	Logger     *zap.SugaredLogger
	ProfileKey string // Key of the target profile to activate rules in
	Filename   string // CSV file with the rule definitions to activate
}

// NewActivateConfig creates a new ActivateConfig by parsing flags, the two
// positional arguments (profile key and CSV file), an optional JSON config
// file and environment variables.
func NewActivateConfig() (*ActivateConfig, error) {
	cfg := &ActivateConfig{Sonar: defaultSonarConfig()}

	var sf sonarFlags
	sf.register("")

	var fConf strFlag
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	if flag.NArg() < 2 {
		return nil, errors.New("usage: activate-rules [flags] <profile-key> <rules.csv>")
	}
	cfg.ProfileKey = flag.Arg(0)
	cfg.Filename = flag.Arg(1)

	sf.apply(&cfg.Sonar)

	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}
	if fConf.v != "" {
		if js, err := loadSonarJSON(fConf.v); err == nil {
			sf.applyJSON(js, &cfg.Sonar)
		}
	}

	readSonarEnvironment(&cfg.Sonar)
	normalizeHost(&cfg.Sonar)

	cfg.Logger = newLogger()

	return cfg, nil
}

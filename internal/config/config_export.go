package config

import (
	"flag"
	"os"

	"go.uber.org/zap"
)

// ExportConfig holds the configuration settings for the export-rules command.
type ExportConfig struct {
	Sonar      SonarConfig
	Logger     *zap.SugaredLogger
	OutputDir  string // Directory for rules.csv and rules.html
	ActiveOnly bool   // Export only active rules
	Profile    string // Export only rules of the given profile key
	Languages  string // Comma-separated language keys to filter rules
}

// NewExportConfig creates and returns a new ExportConfig by parsing flags,
// an optional JSON config file and environment variables. Precedence:
// environment > flag > config file > default.
func NewExportConfig() *ExportConfig {
	cfg := &ExportConfig{Sonar: defaultSonarConfig(), OutputDir: "~"}

	var sf sonarFlags
	sf.register("")

	var fOut, fProfile, fLang, fConf strFlag
	var fActive boolFlag
	flag.Var(&fOut, "output-dir", "output directory for rules.csv and rules.html")
	flag.Var(&fActive, "active-only", "export only active rules")
	flag.Var(&fProfile, "profile", "export only rules for a given profile key")
	flag.Var(&fLang, "languages", "comma-separated language keys to filter the exported rules")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	sf.apply(&cfg.Sonar)
	if fOut.set {
		cfg.OutputDir = fOut.v
	}
	if fActive.set {
		cfg.ActiveOnly = fActive.v
	}
	if fProfile.set {
		cfg.Profile = fProfile.v
	}
	if fLang.set {
		cfg.Languages = fLang.v
	}

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

	return cfg
}

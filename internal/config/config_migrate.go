package config

import (
	"flag"

	"go.uber.org/zap"
)

// MigrateConfig holds the configuration settings for the migrate-rules
// command: connections to a source and a target SonarQube server.
type MigrateConfig struct {
	Source SonarConfig
	Target SonarConfig
	Logger *zap.SugaredLogger
}

// NewMigrateConfig creates a new MigrateConfig by parsing the prefixed
// source-*/target-* connection flags. The migrate command is flag-only:
// the SONAR_* environment variables are ambiguous with two servers in play.
func NewMigrateConfig() *MigrateConfig {
	cfg := &MigrateConfig{
		Source: defaultSonarConfig(),
		Target: defaultSonarConfig(),
	}

	var src, tgt sonarFlags
	src.register("source-")
	tgt.register("target-")
	flag.Parse()

	src.apply(&cfg.Source)
	tgt.apply(&cfg.Target)

	normalizeHost(&cfg.Source)
	normalizeHost(&cfg.Target)

	cfg.Logger = newLogger()

	return cfg
}

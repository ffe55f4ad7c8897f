// Package main implements migrate-rules, a command that copies the
// active custom rules of a source SonarQube server to a target server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqtools/sonarqube-client/internal/buildinfo"
	"github.com/sqtools/sonarqube-client/internal/config"
	"github.com/sqtools/sonarqube-client/internal/migrate"
	"github.com/sqtools/sonarqube-client/internal/sonar"
)

func main() {
	buildinfo.PrintBuildInfo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewMigrateConfig()
	source := sonar.NewHandler(&cfg.Source, cfg.Logger)
	target := sonar.NewHandler(&cfg.Target, cfg.Logger)

	res, err := migrate.New(source, target, cfg.Logger).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println(res.Summary())
}

// Package main implements export-rules, a command that writes the rules
// of a SonarQube server to rules.csv and rules.html in the output
// directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqtools/sonarqube-client/internal/buildinfo"
	"github.com/sqtools/sonarqube-client/internal/config"
	"github.com/sqtools/sonarqube-client/internal/export"
	"github.com/sqtools/sonarqube-client/internal/sonar"
)

func main() {
	buildinfo.PrintBuildInfo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewExportConfig()
	handler := sonar.NewHandler(&cfg.Sonar, cfg.Logger)

	res, err := export.New(handler, cfg).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	fmt.Println(res.Summary())
}

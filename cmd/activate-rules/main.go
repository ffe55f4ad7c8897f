// Package main implements activate-rules, a command that activates the
// rules listed in a CSV file on a quality profile of a SonarQube server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqtools/sonarqube-client/internal/activate"
	"github.com/sqtools/sonarqube-client/internal/buildinfo"
	"github.com/sqtools/sonarqube-client/internal/config"
	"github.com/sqtools/sonarqube-client/internal/sonar"
)

func main() {
	buildinfo.PrintBuildInfo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewActivateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	handler := sonar.NewHandler(&cfg.Sonar, cfg.Logger)

	res, err := activate.New(handler, cfg).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	fmt.Println(res.Summary())
}

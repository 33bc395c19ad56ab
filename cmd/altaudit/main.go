// Package main provides the altaudit command, a read-only report of
// alt-text coverage across an XML corpus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/memtensor/altsheet/pkg/audit"
	"github.com/memtensor/altsheet/pkg/cli"
	"github.com/memtensor/altsheet/pkg/metrics"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping...")
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, opts := cli.NewFlagSet("altaudit", stderr, false)
	if err := cli.Parse(fs, opts, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if opts.ShowVersion {
		cli.PrintVersion(stdout, "altaudit")
		return 0
	}

	cfg, err := cli.LoadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if err := cfg.ValidateForAudit(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if opts.WriteConfig != "" {
		if err := cfg.ToYAMLFile(opts.WriteConfig); err != nil {
			fmt.Fprintf(stderr, "failed to write configuration: %v\n", err)
			return 1
		}
		return 0
	}

	logger, closeLog, err := cli.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer closeLog()

	m := metrics.NewPrometheusMetrics()
	defer cli.FlushMetrics(cfg, m, logger)

	auditor := audit.NewAuditor(audit.Config{
		XMLDir:       cfg.XMLDir,
		XMLExtension: cfg.XMLExtension,
		Extract:      cli.ExtractOptions(cfg),
	}, stdout, logger, m)

	if _, err := auditor.Run(ctx); err != nil {
		logger.Error("Audit incomplete", err)
		return 1
	}
	return 0
}

// Package main provides the altsheet command: it uploads the images of
// each XML document to Google Drive and writes the document's alt text
// into a Google Sheet next to them.
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

	"github.com/memtensor/altsheet/pkg/cli"
	"github.com/memtensor/altsheet/pkg/config"
	"github.com/memtensor/altsheet/pkg/google/auth"
	"github.com/memtensor/altsheet/pkg/google/drive"
	"github.com/memtensor/altsheet/pkg/google/sheets"
	"github.com/memtensor/altsheet/pkg/interfaces"
	"github.com/memtensor/altsheet/pkg/metrics"
	"github.com/memtensor/altsheet/pkg/publish"
	"github.com/memtensor/altsheet/pkg/types"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping after the current call...")
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	cancel()
	os.Exit(code)
}

// run executes the command and returns the process exit code. credentials
// replaces the OAuth provider when not nil.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, credentials interfaces.CredentialProvider) int {
	fs, opts := cli.NewFlagSet("altsheet", stderr, true)
	if err := cli.Parse(fs, opts, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if opts.ShowVersion {
		cli.PrintVersion(stdout, "altsheet")
		return 0
	}

	cfg, err := cli.LoadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
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

	logger.Info("Starting altsheet", map[string]interface{}{
		"version":    cli.Version,
		"git_commit": cli.GitCommit,
		"xml_dir":    cfg.XMLDir,
	})

	m := metrics.NewPrometheusMetrics()
	defer cli.FlushMetrics(cfg, m, logger)

	if credentials == nil {
		credentials = auth.NewProvider(auth.Config{
			CredentialsFile: cfg.CredentialsFile,
			TokenFile:       cfg.TokenFile,
			Scopes:          cfg.Scopes,
		}, logger, stderr)
	}

	summary, err := publishCorpus(ctx, cfg, credentials, logger, m)
	if summary != nil {
		printSummary(stdout, summary)
	}
	if err != nil {
		logger.Error("Publish run failed", err)
		return 1
	}
	if summary.Count(types.DocumentStatusFailed) > 0 {
		return 1
	}
	return 0
}

func publishCorpus(ctx context.Context, cfg *config.Config, credentials interfaces.CredentialProvider,
	logger interfaces.Logger, m interfaces.Metrics) (*types.RunSummary, error) {
	httpClient, err := credentials.Client(ctx)
	if err != nil {
		return nil, err
	}

	driveClient := drive.NewClient(httpClient, drive.Config{
		BaseURL:        cfg.DriveBaseURL,
		UploadURL:      cfg.DriveUploadURL,
		Timeout:        cfg.CallTimeout,
		UploadMimeType: cfg.UploadMimeType,
	}, logger)
	sheetsClient := sheets.NewClient(httpClient, sheets.Config{
		BaseURL: cfg.SheetsBaseURL,
		Timeout: cfg.CallTimeout,
	}, driveClient, logger)

	pipeline, err := publish.New(publish.Config{
		XMLDir:           cfg.XMLDir,
		ImageDir:         cfg.ResolvedImageDir(),
		XMLExtension:     cfg.XMLExtension,
		ParentFolderName: cfg.ParentFolderName,
		ShareParent:      cfg.ShareParent,
		DocumentLimit:    cfg.DocumentLimit,
		OnError:          cfg.OnError,
		CallTimeout:      cfg.CallTimeout,
		Extract:          cli.ExtractOptions(cfg),
	}, driveClient, driveClient, sheetsClient, logger, m)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx)
}

func printSummary(w io.Writer, summary *types.RunSummary) {
	for _, doc := range summary.Documents {
		switch doc.Status {
		case types.DocumentStatusPublished:
			fmt.Fprintf(w, "%s: published, %d images, %d cells updated\n", doc.Document, doc.Uploaded, doc.UpdatedCells)
		case types.DocumentStatusSkipped:
			fmt.Fprintf(w, "%s: skipped (%s)\n", doc.Document, doc.Step)
		default:
			fmt.Fprintf(w, "%s: %s at %s: %v\n", doc.Document, doc.Status, doc.Step, doc.Err)
		}
	}
	fmt.Fprintf(w, "Published %d of %d documents (run %s)\n",
		summary.Count(types.DocumentStatusPublished), len(summary.Documents), summary.RunID)
}

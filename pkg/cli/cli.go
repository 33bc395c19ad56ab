// Package cli holds the flag handling and bootstrapping shared by the
// altsheet and altaudit commands.
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/memtensor/altsheet/pkg/altext"
	"github.com/memtensor/altsheet/pkg/config"
	"github.com/memtensor/altsheet/pkg/interfaces"
	"github.com/memtensor/altsheet/pkg/logger"
	"github.com/memtensor/altsheet/pkg/metrics"
	"github.com/memtensor/altsheet/pkg/types"
)

// Version information (set by build process)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Options are the flags common to both commands
type Options struct {
	ConfigFile  string
	LogLevel    string
	LogFile     string
	MetricsFile string
	WriteConfig string
	Limit       int
	OnError     string
	ShowVersion bool

	XMLDir string
	set    map[string]bool
}

// NewFlagSet registers the common flags. publish adds the flags that only
// make sense when publishing.
func NewFlagSet(name string, stderr io.Writer, publish bool) (*flag.FlagSet, *Options) {
	opts := &Options{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.ConfigFile, "config", "", "Path to configuration file (.yaml, .yml or .json)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.LogFile, "log-file", "", "Also append log output to this file")
	fs.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	fs.StringVar(&opts.WriteConfig, "write-config", "", "Write the effective configuration as YAML to this path and exit")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	if publish {
		fs.IntVar(&opts.Limit, "limit", 0, "Publish at most this many documents (0 = all)")
		fs.StringVar(&opts.OnError, "on-error", "", "Failure policy for a document: skip or fail-fast")
	}

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <xml_dir>\n", name)
		fs.PrintDefaults()
	}
	return fs, opts
}

// Parse parses args and requires exactly one positional argument unless
// only the version was requested.
func Parse(fs *flag.FlagSet, opts *Options, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.ShowVersion {
		return nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one argument, got %d", fs.NArg())
	}
	opts.XMLDir = fs.Arg(0)
	return nil
}

// PrintVersion writes the version banner
func PrintVersion(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n", name, Version)
	fmt.Fprintf(w, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
}

// LoadConfig loads the configuration file and environment, then applies
// the positional directory and any flag that was given explicitly.
func LoadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	cfg.XMLDir = opts.XMLDir
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = opts.MetricsFile
	}
	if opts.set["limit"] {
		cfg.DocumentLimit = opts.Limit
	}
	if opts.OnError != "" {
		cfg.OnError = types.FailurePolicy(opts.OnError)
	}
	return cfg, nil
}

// NewLogger creates the logger described by cfg. The returned close
// function releases the log file, if any.
func NewLogger(cfg *config.Config) (interfaces.Logger, func() error, error) {
	if cfg.LogFile == "" {
		return logger.NewConsoleLogger(cfg.LogLevel), func() error { return nil }, nil
	}
	l, err := logger.NewFileLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return l, l.Close, nil
}

// FlushMetrics writes collected metrics when a metrics file is configured
func FlushMetrics(cfg *config.Config, m *metrics.PrometheusMetrics, log interfaces.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Error("Failed to write metrics", err, map[string]interface{}{"metrics_file": cfg.MetricsFile})
	}
}

// ExtractOptions maps the configured element names onto extractor options
func ExtractOptions(cfg *config.Config) altext.Options {
	return altext.Options{
		FigureTag:    cfg.FigureTag,
		ImageDataTag: cfg.ImageDataTag,
	}
}

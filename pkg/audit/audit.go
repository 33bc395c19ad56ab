// Package audit reports alt-text coverage across an XML corpus without
// touching any remote service.
package audit

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/memtensor/altsheet/pkg/altext"
	"github.com/memtensor/altsheet/pkg/corpus"
	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/interfaces"
	"github.com/memtensor/altsheet/pkg/logger"
	"github.com/memtensor/altsheet/pkg/metrics"
)

// DocumentStat is the coverage of one document
type DocumentStat struct {
	Document string `json:"document"`
	Figures  int    `json:"figures"`
	Missing  int    `json:"missing"`
	Err      error  `json:"-"`
}

// WithoutAlt reports whether no figure in the document has alt text.
// Documents without figures count as well.
func (s DocumentStat) WithoutAlt() bool {
	return s.Err == nil && s.Missing == s.Figures
}

// Report is the outcome of one audit
type Report struct {
	Documents []DocumentStat `json:"documents"`
}

// Total returns the number of audited documents
func (r *Report) Total() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err == nil {
			n++
		}
	}
	return n
}

// WithoutAlt returns the number of documents that have no alt text at all
func (r *Report) WithoutAlt() int {
	n := 0
	for _, d := range r.Documents {
		if d.WithoutAlt() {
			n++
		}
	}
	return n
}

// Failed returns the documents that could not be read
func (r *Report) Failed() []DocumentStat {
	var failed []DocumentStat
	for _, d := range r.Documents {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

// Config holds what the auditor needs to find and read documents
type Config struct {
	XMLDir       string
	XMLExtension string
	Extract      altext.Options
}

// Auditor walks a corpus and prints per-document coverage
type Auditor struct {
	config  Config
	out     io.Writer
	logger  interfaces.Logger
	metrics interfaces.Metrics
}

// NewAuditor creates an auditor that prints to out
func NewAuditor(config Config, out io.Writer, l interfaces.Logger, m interfaces.Metrics) *Auditor {
	if config.XMLExtension == "" {
		config.XMLExtension = ".xml"
	}
	if l == nil {
		l = logger.NewLogger()
	}
	if m == nil {
		m = metrics.NewNoOpMetrics()
	}
	return &Auditor{config: config, out: out, logger: l, metrics: m}
}

// Run audits every document and prints "<file>: <figures>/<missing>" per
// document followed by the two corpus totals.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	docs, err := corpus.ListDocuments(a.config.XMLDir, a.config.XMLExtension)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, name := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		stat := DocumentStat{Document: name}
		alts, err := altext.ExtractFile(filepath.Join(a.config.XMLDir, name), a.config.Extract)
		if err != nil {
			stat.Err = err
			report.Documents = append(report.Documents, stat)
			a.logger.Error("Failed to read document", err, map[string]interface{}{"document": name})
			a.metrics.Counter(metrics.DocumentsTotal, 1, map[string]string{"status": "unreadable"})
			continue
		}

		stat.Figures = alts.Len()
		stat.Missing = alts.MissingCount()
		report.Documents = append(report.Documents, stat)

		fmt.Fprintf(a.out, "%s: %d/%d\n", name, stat.Figures, stat.Missing)
		a.logger.Debug("Document audited", map[string]interface{}{
			"document": name,
			"figures":  stat.Figures,
			"missing":  stat.Missing,
		})
		a.metrics.Counter(metrics.AuditFiguresTotal, float64(stat.Figures), nil)
		a.metrics.Counter(metrics.AuditMissingAltSum, float64(stat.Missing), nil)
		a.metrics.Counter(metrics.DocumentsTotal, 1, map[string]string{"status": "audited"})
	}

	fmt.Fprintln(a.out, "Number of files: ", report.Total())
	fmt.Fprintln(a.out, "Number of files without alt: ", report.WithoutAlt())
	a.metrics.Gauge(metrics.AuditDocuments, float64(report.Total()), map[string]string{"kind": "total"})
	a.metrics.Gauge(metrics.AuditDocuments, float64(report.WithoutAlt()), map[string]string{"kind": "without_alt"})

	if failed := report.Failed(); len(failed) > 0 {
		errs := alterrors.NewErrorList()
		for _, f := range failed {
			errs.Add(f.Err)
		}
		return report, errs.ToError()
	}
	return report, nil
}

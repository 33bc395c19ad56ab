// Package publish uploads each document's images and writes its alt text
// into a spreadsheet next to them.
package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/memtensor/altsheet/pkg/altext"
	"github.com/memtensor/altsheet/pkg/corpus"
	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/interfaces"
	"github.com/memtensor/altsheet/pkg/logger"
	"github.com/memtensor/altsheet/pkg/metrics"
	"github.com/memtensor/altsheet/pkg/types"
)

// Step names recorded in DocumentResult.Step
const (
	StepCreateFolder       = "create_folder"
	StepCreateImagesFolder = "create_images_folder"
	StepMatchImages        = "match_images"
	StepUpload             = "upload"
	StepExtract            = "extract"
	StepCreateSheet        = "create_sheet"
	StepWriteRows          = "write_rows"
	StepDocumentLimit      = "document_limit"
)

const (
	// ImagesFolderName is the per-document folder holding uploaded images
	ImagesFolderName = "images"

	// SheetSuffix is appended to the document stem to name its spreadsheet
	SheetSuffix = "_alt"

	// DefaultStartCell is where rows are written
	DefaultStartCell = "A1"
)

// Config controls a publish run
type Config struct {
	XMLDir           string
	ImageDir         string
	XMLExtension     string
	ParentFolderName string
	ShareParent      bool
	DocumentLimit    int
	OnError          types.FailurePolicy
	CallTimeout      time.Duration
	StartCell        string
	Extract          altext.Options
}

// Pipeline publishes a corpus document by document
type Pipeline struct {
	config   Config
	folders  interfaces.FolderStore
	uploader interfaces.ObjectUploader
	sheets   interfaces.SheetWriter
	logger   interfaces.Logger
	metrics  interfaces.Metrics
	now      func() time.Time
}

// New creates a pipeline over the given services
func New(config Config, folders interfaces.FolderStore, uploader interfaces.ObjectUploader,
	sheets interfaces.SheetWriter, l interfaces.Logger, m interfaces.Metrics) (*Pipeline, error) {
	if folders == nil || uploader == nil || sheets == nil {
		return nil, alterrors.NewInvalidInputError("folder store, uploader and sheet writer are required")
	}
	if config.XMLDir == "" {
		return nil, alterrors.NewInvalidInputError("xml directory is required")
	}
	if config.DocumentLimit < 0 {
		return nil, alterrors.NewInvalidInputError("document limit must not be negative")
	}
	if config.OnError == "" {
		config.OnError = types.FailurePolicySkip
	}
	if !types.IsValidFailurePolicy(config.OnError) {
		return nil, alterrors.NewInvalidInputError(fmt.Sprintf("unsupported failure policy: %s", config.OnError))
	}
	if config.ImageDir == "" {
		config.ImageDir = filepath.Join(config.XMLDir, ImagesFolderName)
	}
	if config.XMLExtension == "" {
		config.XMLExtension = ".xml"
	}
	if config.ParentFolderName == "" {
		config.ParentFolderName = "Test"
	}
	if config.StartCell == "" {
		config.StartCell = DefaultStartCell
	}
	if l == nil {
		l = logger.NewLogger()
	}
	if m == nil {
		m = metrics.NewNoOpMetrics()
	}

	return &Pipeline{
		config:   config,
		folders:  folders,
		uploader: uploader,
		sheets:   sheets,
		logger:   l,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Run publishes every document, up to the configured limit.
//
// The returned error is non-nil when the run itself stopped early: the
// parent folder could not be created, the context was cancelled, or a
// document failed under the fail-fast policy. Under the skip policy a
// failing document is recorded in the summary and the run goes on.
func (p *Pipeline) Run(ctx context.Context) (*types.RunSummary, error) {
	summary := &types.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}
	defer func() { summary.FinishedAt = p.now() }()

	ctx = types.WithRunID(ctx, summary.RunID)
	log := p.logger.WithFields(map[string]interface{}{"run_id": summary.RunID})

	docs, err := corpus.ListDocuments(p.config.XMLDir, p.config.XMLExtension)
	if err != nil {
		return summary, err
	}
	log.Info("Publish run started", map[string]interface{}{
		"documents": len(docs),
		"limit":     p.config.DocumentLimit,
		"on_error":  string(p.config.OnError),
	})

	var parentID string
	err = p.call(ctx, "create_folder", func(ctx context.Context) error {
		var err error
		parentID, err = p.folders.CreateFolder(ctx, p.config.ParentFolderName, nil)
		return err
	})
	if err != nil {
		log.Error("Failed to create parent folder", err, map[string]interface{}{"name": p.config.ParentFolderName})
		return summary, err
	}
	summary.ParentFolderID = parentID

	if p.config.ShareParent {
		err := p.call(ctx, "share_folder", func(ctx context.Context) error {
			return p.folders.ShareFolder(ctx, parentID)
		})
		if err != nil {
			log.Warn("Failed to share parent folder", map[string]interface{}{
				"folder_id": parentID,
				"error":     err.Error(),
			})
		}
	}

	for i, doc := range docs {
		if p.config.DocumentLimit > 0 && i >= p.config.DocumentLimit {
			if i == p.config.DocumentLimit {
				log.Info("Document limit reached", map[string]interface{}{"limit": p.config.DocumentLimit})
			}
			summary.Documents = append(summary.Documents, types.DocumentResult{
				Document: doc,
				Status:   types.DocumentStatusSkipped,
				Step:     StepDocumentLimit,
			})
			p.metrics.Counter(metrics.DocumentsTotal, 1, map[string]string{"status": string(types.DocumentStatusSkipped)})
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := p.publishDocument(ctx, log, doc, parentID)
		summary.Documents = append(summary.Documents, result)
		p.metrics.Counter(metrics.DocumentsTotal, 1, map[string]string{"status": string(result.Status)})

		if result.Err != nil && p.config.OnError == types.FailurePolicyFailFast {
			return summary, result.Err
		}
	}

	log.Info("Publish run finished", map[string]interface{}{
		"published": summary.Count(types.DocumentStatusPublished),
		"skipped":   summary.Count(types.DocumentStatusSkipped),
		"failed":    summary.Count(types.DocumentStatusFailed),
	})
	return summary, nil
}

// publishDocument runs the per-document steps and stops at the first failure
func (p *Pipeline) publishDocument(ctx context.Context, runLog interfaces.Logger, doc, parentID string) types.DocumentResult {
	started := p.now()
	stem := corpus.Stem(doc)
	log := runLog.WithFields(map[string]interface{}{"document": doc})
	result := types.DocumentResult{Document: doc}

	fail := func(step string, err error) types.DocumentResult {
		result.Status = types.DocumentStatusFailed
		result.Step = step
		result.Err = fmt.Errorf("%s: %s: %w", doc, step, err)
		result.Duration = p.now().Sub(started)
		log.Error("Document failed", err, map[string]interface{}{"step": step})
		return result
	}

	err := p.call(ctx, "create_folder", func(ctx context.Context) error {
		var err error
		result.FolderID, err = p.folders.CreateFolder(ctx, stem, []string{parentID})
		return err
	})
	if err != nil {
		return fail(StepCreateFolder, err)
	}

	err = p.call(ctx, "create_folder", func(ctx context.Context) error {
		var err error
		result.ImageFolder, err = p.folders.CreateFolder(ctx, ImagesFolderName, []string{result.FolderID})
		return err
	})
	if err != nil {
		return fail(StepCreateImagesFolder, err)
	}

	images, err := corpus.MatchImages(p.config.ImageDir, stem)
	if err != nil {
		return fail(StepMatchImages, err)
	}

	links := make(map[string]string, len(images))
	for _, img := range images {
		var file *types.RemoteFile
		err := p.call(ctx, "upload", func(ctx context.Context) error {
			var err error
			file, err = p.uploader.Upload(ctx, img.Path, result.ImageFolder)
			return err
		})
		if err != nil {
			p.metrics.Counter(metrics.UploadsTotal, 1, map[string]string{"status": "failed"})
			return fail(StepUpload, fmt.Errorf("%s: %w", img.Name, err))
		}
		links[img.Name] = file.Link
		result.Uploaded++
		p.metrics.Counter(metrics.UploadsTotal, 1, map[string]string{"status": "ok"})
	}
	log.Debug("Images uploaded", map[string]interface{}{"count": result.Uploaded})

	alts, err := altext.ExtractFile(filepath.Join(p.config.XMLDir, doc), p.config.Extract)
	if err != nil {
		return fail(StepExtract, err)
	}

	err = p.call(ctx, "create_sheet", func(ctx context.Context) error {
		var err error
		result.SheetID, err = p.sheets.CreateSheet(ctx, stem+SheetSuffix, result.FolderID)
		return err
	})
	if err != nil {
		return fail(StepCreateSheet, err)
	}

	rows := BuildRows(alts.Entries(), links)
	result.Rows = len(rows)
	err = p.call(ctx, "write_rows", func(ctx context.Context) error {
		var err error
		result.UpdatedCells, err = p.sheets.WriteRows(ctx, result.SheetID, p.config.StartCell, rows)
		return err
	})
	if err != nil {
		return fail(StepWriteRows, err)
	}
	p.metrics.Counter(metrics.RowsWrittenTotal, float64(result.Rows), nil)

	result.Status = types.DocumentStatusPublished
	result.Duration = p.now().Sub(started)
	log.Info(fmt.Sprintf("%d cells updated", result.UpdatedCells), map[string]interface{}{
		"sheet_id": result.SheetID,
		"rows":     result.Rows,
	})
	return result
}

// call runs one external operation under its own deadline
func (p *Pipeline) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	callCtx := ctx
	if p.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.config.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(callCtx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.Timer(metrics.APICallSeconds, time.Since(start).Seconds(), map[string]string{
		"operation": operation,
		"status":    status,
	})
	return err
}

// Package types defines the core types shared across altsheet
package types

import (
	"context"
	"time"
)

// AltEntry is one figure's alt text keyed by its derived image key.
// Alt is nil when the figure carried no alt attribute at all.
type AltEntry struct {
	Key string  `json:"key"`
	Alt *string `json:"alt"`
}

// AltText returns the alt text, or "" when it is absent
func (e AltEntry) AltText() string {
	if e.Alt == nil {
		return ""
	}
	return *e.Alt
}

// IsMissing reports whether the entry has no usable alt text (absent or empty)
func (e AltEntry) IsMissing() bool {
	return e.Alt == nil || *e.Alt == ""
}

// AltMap is an insertion-ordered mapping from image key to alt entry.
// The zero value is ready to use.
type AltMap struct {
	entries []AltEntry
	index   map[string]int
}

// NewAltMap creates an empty AltMap
func NewAltMap() *AltMap {
	return &AltMap{index: make(map[string]int)}
}

// Has reports whether key is already present
func (m *AltMap) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Add appends a new entry. It returns false and leaves the map untouched
// when the key already exists.
func (m *AltMap) Add(key string, alt *string) bool {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if _, ok := m.index[key]; ok {
		return false
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, AltEntry{Key: key, Alt: alt})
	return true
}

// Get returns the entry stored under key
func (m *AltMap) Get(key string) (AltEntry, bool) {
	i, ok := m.index[key]
	if !ok {
		return AltEntry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of entries
func (m *AltMap) Len() int {
	return len(m.entries)
}

// Keys returns the keys in insertion order
func (m *AltMap) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in insertion order
func (m *AltMap) Entries() []AltEntry {
	out := make([]AltEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MissingCount returns how many entries have empty or absent alt text
func (m *AltMap) MissingCount() int {
	n := 0
	for _, e := range m.entries {
		if e.IsMissing() {
			n++
		}
	}
	return n
}

// AllMissing reports whether every entry lacks alt text.
// An empty map reports true.
func (m *AltMap) AllMissing() bool {
	return m.MissingCount() == len(m.entries)
}

// ImageFile is an image on disk that belongs to a document
type ImageFile struct {
	// Name is the file's base name, e.g. "chapter1_12.jpg"
	Name string `json:"name"`

	// Path is the full local path
	Path string `json:"path"`

	// Index is the trailing integer used for ordering
	Index int `json:"index"`
}

// RemoteFile identifies an uploaded file and its public link
type RemoteFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// DocumentStatus is the outcome of publishing one document
type DocumentStatus string

const (
	DocumentStatusPublished DocumentStatus = "published"
	DocumentStatusSkipped   DocumentStatus = "skipped"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// DocumentResult records what happened to one document during a publish run
type DocumentResult struct {
	Document     string         `json:"document"`
	Status       DocumentStatus `json:"status"`
	FolderID     string         `json:"folder_id,omitempty"`
	ImageFolder  string         `json:"image_folder_id,omitempty"`
	SheetID      string         `json:"sheet_id,omitempty"`
	Uploaded     int            `json:"uploaded"`
	Rows         int            `json:"rows"`
	UpdatedCells int            `json:"updated_cells"`
	Step         string         `json:"step,omitempty"`
	Err          error          `json:"-"`
	Duration     time.Duration  `json:"duration"`
}

// Succeeded reports whether the document was fully published
func (r *DocumentResult) Succeeded() bool {
	return r.Status == DocumentStatusPublished
}

// RunSummary describes a complete publish run
type RunSummary struct {
	RunID          string           `json:"run_id"`
	ParentFolderID string           `json:"parent_folder_id"`
	Documents      []DocumentResult `json:"documents"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
}

// Count returns the number of documents with the given status
func (s *RunSummary) Count(status DocumentStatus) int {
	n := 0
	for i := range s.Documents {
		if s.Documents[i].Status == status {
			n++
		}
	}
	return n
}

// FailurePolicy decides what happens when a document step fails
type FailurePolicy string

const (
	// FailurePolicySkip abandons the failing document and moves on
	FailurePolicySkip FailurePolicy = "skip"

	// FailurePolicyFailFast stops the run on the first failure
	FailurePolicyFailFast FailurePolicy = "fail-fast"
)

// IsValidFailurePolicy checks if a failure policy is supported
func IsValidFailurePolicy(p FailurePolicy) bool {
	switch p {
	case FailurePolicySkip, FailurePolicyFailFast:
		return true
	}
	return false
}

// Error types for better error handling
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// Context keys for run context
type ContextKey string

const (
	ContextKeyRunID ContextKey = "run_id"
)

// WithRunID stores the run ID in ctx
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext returns the run ID stored in ctx, if any
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return v
	}
	return ""
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

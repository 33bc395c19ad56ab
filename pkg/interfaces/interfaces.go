// Package interfaces defines the core interfaces for altsheet components
package interfaces

import (
	"context"
	"net/http"

	"github.com/memtensor/altsheet/pkg/types"
)

// FolderStore creates and shares folders in the remote file store
type FolderStore interface {
	// CreateFolder creates a folder under the given parents and returns its ID
	CreateFolder(ctx context.Context, name string, parents []string) (string, error)

	// ShareFolder makes a folder writable by anyone with the link
	ShareFolder(ctx context.Context, folderID string) error
}

// ObjectUploader uploads local files into the remote file store
type ObjectUploader interface {
	// Upload stores the file at localPath inside folderID
	Upload(ctx context.Context, localPath, folderID string) (*types.RemoteFile, error)
}

// SheetWriter creates spreadsheets and fills them with rows
type SheetWriter interface {
	// CreateSheet creates an empty spreadsheet inside parentID and returns its ID
	CreateSheet(ctx context.Context, name, parentID string) (string, error)

	// WriteRows writes rows starting at startCell and returns the number of updated cells
	WriteRows(ctx context.Context, sheetID, startCell string, rows [][]string) (int, error)
}

// CredentialProvider yields an authorized HTTP client for the remote services
type CredentialProvider interface {
	// Client returns an HTTP client that attaches valid credentials to requests
	Client(ctx context.Context) (*http.Client, error)
}

// Logger defines the interface for logging implementations
type Logger interface {
	// Debug logs debug level messages
	Debug(msg string, fields ...map[string]interface{})

	// Info logs info level messages
	Info(msg string, fields ...map[string]interface{})

	// Warn logs warning level messages
	Warn(msg string, fields ...map[string]interface{})

	// Error logs error level messages
	Error(msg string, err error, fields ...map[string]interface{})

	// Fatal logs fatal level messages and exits
	Fatal(msg string, err error, fields ...map[string]interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger
}

// Metrics defines the interface for metrics collection
type Metrics interface {
	// Counter increments a counter metric
	Counter(name string, value float64, labels map[string]string)

	// Gauge sets a gauge metric
	Gauge(name string, value float64, labels map[string]string)

	// Histogram records a histogram metric
	Histogram(name string, value float64, labels map[string]string)

	// Timer records timing metrics
	Timer(name string, duration float64, labels map[string]string)
}

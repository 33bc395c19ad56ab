// Package drive implements the file-store operations on the Google Drive v3 REST API
package drive

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/google"
	"github.com/memtensor/altsheet/pkg/interfaces"
	"github.com/memtensor/altsheet/pkg/types"
)

const (
	// FolderMimeType marks a Drive file as a folder
	FolderMimeType = "application/vnd.google-apps.folder"

	// SpreadsheetMimeType marks a Drive file as a Google Sheet
	SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	// LinkPrefix is prepended to a file ID to form its public link
	LinkPrefix = "https://drive.google.com/uc?id="
)

// Config configures the Drive client
type Config struct {
	BaseURL        string
	UploadURL      string
	Timeout        time.Duration
	UploadMimeType string
}

// Client talks to the Drive API
type Client struct {
	api    *resty.Client
	upload *resty.Client
	config Config
	logger interfaces.Logger
}

type fileMetadata struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

type fileResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type permission struct {
	Type string `json:"type"`
	Role string `json:"role"`
}

// NewClient creates a Drive client on top of an authorized HTTP client
func NewClient(httpClient *http.Client, config Config, logger interfaces.Logger) *Client {
	return &Client{
		api:    google.NewRESTClient(httpClient, config.BaseURL, config.Timeout),
		upload: google.NewRESTClient(httpClient, config.UploadURL, config.Timeout),
		config: config,
		logger: logger,
	}
}

// CreateFile creates an empty file of the given MIME type and returns its ID
func (c *Client) CreateFile(ctx context.Context, name, mimeType string, parents []string) (string, error) {
	var result fileResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParam("fields", "id").
		SetBody(fileMetadata{Name: name, MimeType: mimeType, Parents: parents}).
		SetResult(&result).
		Post("/files")
	if err := c.check(ctx, "create file", resp, err); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", alterrors.NewDriveAPIError("create file", fmt.Errorf("response has no file id"))
	}
	return result.ID, nil
}

// CreateFolder creates a folder under parents and returns its ID
func (c *Client) CreateFolder(ctx context.Context, name string, parents []string) (string, error) {
	id, err := c.CreateFile(ctx, name, FolderMimeType, parents)
	if err != nil {
		return "", err
	}
	c.logger.Info("Folder created", map[string]interface{}{"name": name, "folder_id": id})
	return id, nil
}

// ShareFolder grants write access to anyone with the link
func (c *Client) ShareFolder(ctx context.Context, folderID string) error {
	resp, err := c.api.R().
		SetContext(ctx).
		SetPathParam("fileId", folderID).
		SetBody(permission{Type: "anyone", Role: "writer"}).
		Post("/files/{fileId}/permissions")
	if err := c.check(ctx, "share folder", resp, err); err != nil {
		return err
	}
	c.logger.Debug("Folder shared", map[string]interface{}{"folder_id": folderID})
	return nil
}

// Upload stores the file at localPath in folderID through a resumable
// upload session and returns the created file with its public link.
func (c *Client) Upload(ctx context.Context, localPath, folderID string) (*types.RemoteFile, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, alterrors.NewFileNotFoundError(localPath)
		}
		return nil, alterrors.NewFileError(fmt.Sprintf("failed to read %s", localPath), err)
	}

	name := filepath.Base(localPath)
	mimeType := c.mimeType(name)

	resp, err := c.upload.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"uploadType": "resumable", "fields": "id,name"}).
		SetHeader("X-Upload-Content-Type", mimeType).
		SetHeader("X-Upload-Content-Length", strconv.Itoa(len(data))).
		SetBody(fileMetadata{Name: name, Parents: []string{folderID}}).
		Post("/files")
	if err := c.check(ctx, "start upload", resp, err); err != nil {
		return nil, err
	}

	session := resp.Header().Get("Location")
	if session == "" {
		return nil, alterrors.NewDriveAPIError("start upload", fmt.Errorf("response has no upload session location"))
	}
	if u, err := url.Parse(session); err != nil || !u.IsAbs() {
		return nil, alterrors.NewDriveAPIError("start upload", fmt.Errorf("invalid upload session location %q", session))
	}

	var result fileResponse
	resp, err = c.upload.R().
		SetContext(ctx).
		SetHeader("Content-Type", mimeType).
		SetBody(data).
		SetResult(&result).
		Put(session)
	if err := c.check(ctx, "upload", resp, err); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, alterrors.NewDriveAPIError("upload", fmt.Errorf("response has no file id"))
	}

	file := &types.RemoteFile{ID: result.ID, Name: name, Link: Link(result.ID)}
	c.logger.Debug("File uploaded", map[string]interface{}{"name": name, "file_id": file.ID})
	return file, nil
}

// Link returns the public link of a Drive file
func Link(fileID string) string {
	return LinkPrefix + fileID
}

func (c *Client) mimeType(name string) string {
	if c.config.UploadMimeType != "" {
		return c.config.UploadMimeType
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (c *Client) check(ctx context.Context, operation string, resp *resty.Response, err error) error {
	if err := google.CheckResponse(ctx, resp, err); err != nil {
		if google.IsDeadline(err) {
			return alterrors.NewTimeoutError("drive " + operation)
		}
		return alterrors.NewDriveAPIError(operation, err)
	}
	return nil
}

var _ interfaces.FolderStore = (*Client)(nil)
var _ interfaces.ObjectUploader = (*Client)(nil)

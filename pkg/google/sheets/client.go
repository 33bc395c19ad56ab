// Package sheets writes alt-text rows into Google Sheets
package sheets

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/google"
	"github.com/memtensor/altsheet/pkg/interfaces"
)

const (
	// SpreadsheetMimeType is the Drive MIME type of a Google Sheet
	SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	// ValueInputOption makes the service parse formulas the way the UI does
	ValueInputOption = "USER_ENTERED"
)

// FileCreator creates typed files in the file store. Spreadsheets are
// created through it so they can be placed inside a folder.
type FileCreator interface {
	CreateFile(ctx context.Context, name, mimeType string, parents []string) (string, error)
}

// Config configures the Sheets client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements interfaces.SheetWriter
type Client struct {
	api    *resty.Client
	files  FileCreator
	logger interfaces.Logger
}

type valueRange struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

type updateResponse struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int    `json:"updatedRows"`
	UpdatedColumns int    `json:"updatedColumns"`
	UpdatedCells   int    `json:"updatedCells"`
}

// NewClient creates a Sheets client; files is used to create spreadsheets
func NewClient(httpClient *http.Client, config Config, files FileCreator, logger interfaces.Logger) *Client {
	return &Client{
		api:    google.NewRESTClient(httpClient, config.BaseURL, config.Timeout),
		files:  files,
		logger: logger,
	}
}

// CreateSheet creates an empty spreadsheet inside parentID
func (c *Client) CreateSheet(ctx context.Context, name, parentID string) (string, error) {
	var parents []string
	if parentID != "" {
		parents = []string{parentID}
	}
	id, err := c.files.CreateFile(ctx, name, SpreadsheetMimeType, parents)
	if err != nil {
		return "", err
	}
	c.logger.Info("Sheet created", map[string]interface{}{"name": name, "sheet_id": id})
	return id, nil
}

// WriteRows replaces the values starting at startCell and returns the
// number of cells the service reports as updated.
func (c *Client) WriteRows(ctx context.Context, sheetID, startCell string, rows [][]string) (int, error) {
	if rows == nil {
		rows = [][]string{}
	}

	var result updateResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"spreadsheetId": sheetID, "range": startCell}).
		SetQueryParam("valueInputOption", ValueInputOption).
		SetBody(valueRange{Range: startCell, MajorDimension: "ROWS", Values: rows}).
		SetResult(&result).
		Put("/spreadsheets/{spreadsheetId}/values/{range}")
	if err := google.CheckResponse(ctx, resp, err); err != nil {
		if google.IsDeadline(err) {
			return 0, alterrors.NewTimeoutError("sheets update values")
		}
		return 0, alterrors.NewSheetsAPIError("update values", err)
	}

	c.logger.Info("Cells updated", map[string]interface{}{
		"sheet_id":      sheetID,
		"updated_cells": result.UpdatedCells,
	})
	return result.UpdatedCells, nil
}

var _ interfaces.SheetWriter = (*Client)(nil)

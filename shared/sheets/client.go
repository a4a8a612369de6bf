package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// ErrNoSheets is returned when the spreadsheet has no sheet to fall back to
var ErrNoSheets = errors.New("spreadsheet has no sheets")

// Config holds Google Sheets connection configuration
type Config struct {
	SpreadsheetID     string
	CredentialsJSON   string // inline service account key
	CredentialsFile   string // path to a service account key file
	Endpoint          string // overrides the API base URL, empty for Google
	RequestTimeout    time.Duration
	RetryAttempts     int
	RetryInterval     time.Duration
	BackoffMultiplier float64
}

// Client talks to one spreadsheet through the Sheets API v4
type Client struct {
	service *sheetsapi.Service
	config  *Config
	logger  *slog.Logger
}

// NewClient creates a Sheets client authenticated with the configured service
// account. Without inline or file credentials, Application Default
// Credentials are used. Extra options are appended last.
func NewClient(ctx context.Context, config *Config, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if config.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	switch {
	case config.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	case config.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.CredentialsFile))
	}
	if config.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(config.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	logger.Info("Connecting to Google Sheets",
		slog.String("spreadsheet_id", config.SpreadsheetID),
		slog.Bool("inline_credentials", config.CredentialsJSON != ""),
		slog.String("credentials_file", config.CredentialsFile),
	)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		logger.Error("Failed to create Sheets service",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
		config:  config,
		logger:  logger,
	}, nil
}

// GetValues reads a range and returns every cell as a string
func (c *Client) GetValues(ctx context.Context, rng string) ([][]string, error) {
	var resp *sheetsapi.ValueRange
	err := c.withRetry(ctx, "values.get", true, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Get(c.config.SpreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cellString(cell)
		}
	}

	return rows, nil
}

// AppendValues appends one row after the last used row of the range
func (c *Client) AppendValues(ctx context.Context, rng string, row []string) error {
	body := &sheetsapi.ValueRange{Values: [][]interface{}{toCells(row)}}

	err := c.withRetry(ctx, "values.append", false, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.Values.Append(c.config.SpreadsheetID, rng, body).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", rng, err)
	}

	return nil
}

// UpdateValues overwrites a range with one row of values
func (c *Client) UpdateValues(ctx context.Context, rng string, row []string) error {
	body := &sheetsapi.ValueRange{Values: [][]interface{}{toCells(row)}}

	err := c.withRetry(ctx, "values.update", false, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.Values.Update(c.config.SpreadsheetID, rng, body).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}

	return nil
}

// SheetID returns the numeric id of the sheet with this title. When no sheet
// matches, the first sheet of the spreadsheet is used.
func (c *Client) SheetID(ctx context.Context, title string) (int64, error) {
	var spreadsheet *sheetsapi.Spreadsheet
	err := c.withRetry(ctx, "spreadsheets.get", true, func(ctx context.Context) error {
		var err error
		spreadsheet, err = c.service.Spreadsheets.Get(c.config.SpreadsheetID).
			Fields("sheets.properties(sheetId,title)").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}

	var first *sheetsapi.SheetProperties
	for _, sheet := range spreadsheet.Sheets {
		if sheet == nil || sheet.Properties == nil {
			continue
		}
		if first == nil {
			first = sheet.Properties
		}
		if sheet.Properties.Title == title {
			return sheet.Properties.SheetId, nil
		}
	}

	if first == nil {
		return 0, ErrNoSheets
	}

	c.logger.Warn("Sheet not found by title, falling back to first sheet",
		slog.String("title", title),
		slog.String("fallback", first.Title),
	)

	return first.SheetId, nil
}

// DeleteRows removes rows [startIndex, endIndex) (0-based) from a sheet.
// Rows below move up.
func (c *Client) DeleteRows(ctx context.Context, sheetID, startIndex, endIndex int64) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{
			{
				DeleteDimension: &sheetsapi.DeleteDimensionRequest{
					Range: &sheetsapi.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: startIndex,
						EndIndex:   endIndex,
					},
				},
			},
		},
	}

	err := c.withRetry(ctx, "spreadsheets.batchUpdate", false, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.BatchUpdate(c.config.SpreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete rows %d-%d: %w", startIndex, endIndex, err)
	}

	return nil
}

// HealthCheck verifies the spreadsheet is reachable with the configured credentials
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.service.Spreadsheets.Get(c.config.SpreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets health check failed: %w", err)
	}

	return nil
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

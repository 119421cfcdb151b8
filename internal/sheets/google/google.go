// Package google mirrors expenses into a Google Sheets tab, one row per
// expense: ID, Date, Description, Amount, Version.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"manageexpense/internal/core"
	"manageexpense/internal/log"
	"manageexpense/internal/sheets"
)

var _ sheets.Mirror = (*Client)(nil)

// Config selects the spreadsheet, the tab and the service account.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	ServiceAccountJSON string
}

// valuesAPI is the slice of the Sheets API the mirror needs.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	Append(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	// DeleteRow removes the 1-based row of the named tab.
	DeleteRow(ctx context.Context, spreadsheetID, sheetName string, row int) error
}

type Client struct {
	api           valuesAPI
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// mu serializes lookups and writes so concurrent events cannot race on
	// row numbers.
	mu sync.Mutex
}

// New builds a client authenticated with the configured service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = "Expenses"
	}
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceAPI{svc: svc}, cfg, logger), nil
}

func newClient(api valuesAPI, cfg Config, logger *log.Logger) *Client {
	return &Client{
		api:           api,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     strings.TrimSpace(cfg.SheetName),
		logger:        logger,
	}
}

// credentialsJSON resolves the service account from inline JSON, a file, or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func credentialsJSON(cfg Config) ([]byte, error) {
	if j := strings.TrimSpace(cfg.ServiceAccountJSON); j != "" {
		return []byte(j), nil
	}
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return raw, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:E%d", c.sheetName, row, row)
}

// EnsureHeader writes the header row into an empty tab.
func (c *Client) EnsureHeader(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.api.Get(ctx, c.spreadsheetID, c.rowRange(1))
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheetName, err)
	}
	if len(values) > 0 && len(values[0]) > 0 {
		return nil
	}
	if err := c.api.Update(ctx, c.spreadsheetID, c.rowRange(1), [][]any{headerRow()}); err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheetName, err)
	}
	return nil
}

// Upsert implements sheets.Mirror.
func (c *Client) Upsert(ctx context.Context, e core.Expense) error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("expense id cannot be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	row, version, err := c.findRow(ctx, e.ID)
	if err != nil {
		return err
	}
	values := [][]any{expenseRow(e)}

	if row == 0 {
		rng := fmt.Sprintf("%s!A:E", c.sheetName)
		if err := c.api.Append(ctx, c.spreadsheetID, rng, values); err != nil {
			return fmt.Errorf("append expense %s: %w", e.ID, err)
		}
		c.logger.DebugContext(ctx, "Expense row appended", log.FieldExpenseID, e.ID, log.FieldVersion, e.Version)
		return nil
	}

	if version >= e.Version {
		c.logger.DebugContext(ctx, "Expense row already current",
			log.FieldExpenseID, e.ID, log.FieldVersion, e.Version, "row_version", version)
		return nil
	}
	if err := c.api.Update(ctx, c.spreadsheetID, c.rowRange(row), values); err != nil {
		return fmt.Errorf("update expense %s at row %d: %w", e.ID, row, err)
	}
	c.logger.DebugContext(ctx, "Expense row updated", log.FieldExpenseID, e.ID, "row", row)
	return nil
}

// Delete implements sheets.Mirror.
func (c *Client) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, _, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}
	if err := c.api.DeleteRow(ctx, c.spreadsheetID, c.sheetName, row); err != nil {
		return fmt.Errorf("delete expense %s at row %d: %w", id, row, err)
	}
	return nil
}

// findRow returns the 1-based row holding id and its recorded version, or
// row 0 when absent.
func (c *Client) findRow(ctx context.Context, id string) (int, int64, error) {
	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	values, err := c.api.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, raw := range values {
		r, ok := parseRow(raw)
		if ok && r.ID == id {
			return i + 1, r.Version, nil
		}
	}
	return 0, 0, nil
}

// serviceAPI adapts *gsheet.Service to valuesAPI.
type serviceAPI struct {
	svc *gsheet.Service

	mu       sync.Mutex
	sheetIDs map[string]int64
}

func (a *serviceAPI) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// RAW keeps descriptions such as "=1+1" from being evaluated as formulas.
func (a *serviceAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := a.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (a *serviceAPI) Append(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := a.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (a *serviceAPI) DeleteRow(ctx context.Context, spreadsheetID, sheetName string, row int) error {
	sheetID, err := a.sheetID(ctx, spreadsheetID, sheetName)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	_, err = a.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (a *serviceAPI) sheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.sheetIDs[sheetName]; ok {
		return id, nil
	}
	ss, err := a.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	if a.sheetIDs == nil {
		a.sheetIDs = make(map[string]int64)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			a.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok := a.sheetIDs[sheetName]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", sheetName)
	}
	return id, nil
}

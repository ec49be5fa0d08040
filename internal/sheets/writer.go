package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/veridian-labs/veridian/internal/model"
)

// reportHeader is the first row of every exported audit report.
var reportHeader = []any{"Seq", "Timestamp", "Cluster ID", "Canonical Hash", "Outcome", "Top Score", "Matched Entry", "Record Hash", "Previous Hash"}

// Writer exports audit chain records to a Google Sheets spreadsheet.
type Writer struct {
	service *sheets.Service
	cfg     Config
}

// NewWriter authenticates with the saved token and builds a Sheets client.
func NewWriter(ctx context.Context, cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SpreadsheetName == "" {
		cfg.SpreadsheetName = "Veridian Audit Report"
	}

	token, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load sheets credentials: %w", err)
	}

	client := oauthConfig(cfg).Client(ctx, token)
	service, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{service: service, cfg: cfg}, nil
}

// ExportAuditReport creates a new spreadsheet containing the given records
// and returns its URL.
func (w *Writer) ExportAuditReport(ctx context.Context, records []model.AuditRecord) (string, error) {
	spreadsheet, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: w.cfg.SpreadsheetName},
		Sheets: []*sheets.Sheet{{
			Properties: &sheets.SheetProperties{Title: "Audit Chain"},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}

	values := &sheets.ValueRange{Values: buildRows(records)}
	_, err = w.service.Spreadsheets.Values.Update(
		spreadsheet.SpreadsheetId,
		fmt.Sprintf("Audit Chain!A1:I%d", len(values.Values)),
		values,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to write audit rows: %w", err)
	}

	slog.Info("Audit report exported",
		"spreadsheet_id", spreadsheet.SpreadsheetId,
		"records", len(records))

	return spreadsheet.SpreadsheetUrl, nil
}

// buildRows converts audit records to sheet rows, header first.
func buildRows(records []model.AuditRecord) [][]any {
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, reportHeader)
	for _, record := range records {
		rows = append(rows, []any{
			strconv.FormatInt(record.Seq, 10),
			record.Verdict.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			record.Verdict.ClusterID,
			record.Verdict.CanonicalHash,
			string(record.Verdict.Outcome),
			record.Verdict.TopScore,
			record.Verdict.MatchedEntryID,
			record.Hash,
			record.PrevHash,
		})
	}
	return rows
}

package players

import (
	"context"
	"fmt"

	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads players from a Google Sheets range whose first row is the header
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource authenticates with a service account credentials file
func NewSheetsSource(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*SheetsSource, error) {
	return NewSheetsSourceWithOptions(ctx, spreadsheetID, readRange, option.WithCredentialsFile(credentialsFile))
}

// NewSheetsSourceWithOptions builds the sheets service from arbitrary client options
func NewSheetsSourceWithOptions(ctx context.Context, spreadsheetID, readRange string, opts ...option.ClientOption) (*SheetsSource, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsSource{
		service:       service,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}, nil
}

// Load fetches the range once; no retries
func (s *SheetsSource) Load(ctx context.Context) ([]models.Player, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, &LoadError{Source: s.name(), Err: fmt.Errorf("failed to read sheet: %w", err)}
	}

	table := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell != nil {
				cells[i] = fmt.Sprintf("%v", cell)
			}
		}
		table = append(table, cells)
	}

	records, err := RecordsFromTable(table)
	if err != nil {
		return nil, &LoadError{Source: s.name(), Err: err}
	}

	loaded := DecodeRecords(records)
	log.Debug().
		Str("spreadsheet_id", s.spreadsheetID).
		Str("range", s.readRange).
		Int("players", len(loaded)).
		Msg("players read from sheet")
	return loaded, nil
}

func (s *SheetsSource) name() string {
	return fmt.Sprintf("sheet %s!%s", s.spreadsheetID, s.readRange)
}

package players

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	nameColumn      = "name"
	basePriceColumn = "base_price"
)

// Record is one source row keyed by normalized column name
type Record map[string]any

// normalizeColumn maps headers like " Base Price" to "base_price"
func normalizeColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.Join(strings.Fields(h), "_")
	return strings.ReplaceAll(h, "-", "_")
}

// RecordsFromTable turns a header row plus data rows into records.
// Ragged rows are padded, fully blank rows are skipped.
func RecordsFromTable(table [][]string) ([]Record, error) {
	if len(table) == 0 {
		return []Record{}, nil
	}

	header := make([]string, len(table[0]))
	hasName, hasPrice := false, false
	for i, h := range table[0] {
		header[i] = normalizeColumn(h)
		switch header[i] {
		case nameColumn:
			hasName = true
		case basePriceColumn:
			hasPrice = true
		}
	}
	if !hasName && !hasPrice {
		return nil, fmt.Errorf("header %v: %w", table[0], ErrMissingColumns)
	}

	records := make([]Record, 0, len(table)-1)
	for _, row := range table[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// DecodeRecords applies field defaults once, producing fully populated players
func DecodeRecords(records []Record) []models.Player {
	out := make([]models.Player, 0, len(records))
	for _, rec := range records {
		out = append(out, DecodeRecord(rec))
	}
	return out
}

// DecodeRecord reads name and base_price, substituting "Unknown" and 0 when
// either is missing or unreadable
func DecodeRecord(rec Record) models.Player {
	normalized := make(Record, len(rec))
	for k, v := range rec {
		normalized[normalizeColumn(k)] = v
	}
	return models.NewPlayer(decodeName(normalized[nameColumn]), decodePrice(normalized[basePriceColumn]))
}

func decodeName(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func decodePrice(v any) decimal.Decimal {
	switch p := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return p
	case int:
		return decimal.NewFromInt(int64(p))
	case int64:
		return decimal.NewFromInt(p)
	case float64:
		return decimal.NewFromFloat(p)
	case json.Number:
		return parsePrice(p.String())
	case string:
		return parsePrice(p)
	default:
		return parsePrice(fmt.Sprint(p))
	}
}

func parsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Debug().Str("value", raw).Msg("unreadable base_price, using 0")
		return decimal.Zero
	}
	return d
}

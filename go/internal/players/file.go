package players

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// FileSource reads players from a local file, picking a reader by extension
type FileSource struct {
	Path string
}

// NewFileSource creates a source for the given path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and decodes the file
func (s *FileSource) Load(ctx context.Context) ([]models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}

	records, err := s.readRecords()
	if err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}

	loaded := DecodeRecords(records)
	log.Debug().
		Str("path", s.Path).
		Int("players", len(loaded)).
		Msg("players read from file")
	return loaded, nil
}

func (s *FileSource) readRecords() ([]Record, error) {
	switch ext := strings.ToLower(filepath.Ext(s.Path)); ext {
	case ".xlsx", ".xlsm":
		return readSpreadsheet(s.Path)
	case ".csv":
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, err
		}
		return readCSV(bytes.NewReader(data))
	case ".yaml", ".yml":
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, err
		}
		return readYAML(data)
	case ".json":
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, err
		}
		return readJSON(data)
	default:
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}

// readSpreadsheet reads the first sheet of a workbook
func readSpreadsheet(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to close workbook")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []Record{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return RecordsFromTable(rows)
}

func readCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return RecordsFromTable(rows)
}

func readYAML(data []byte) ([]Record, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return toRecords(raw), nil
}

func readJSON(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return toRecords(raw), nil
}

func toRecords(raw []map[string]any) []Record {
	records := make([]Record, 0, len(raw))
	for _, m := range raw {
		records = append(records, Record(m))
	}
	return records
}

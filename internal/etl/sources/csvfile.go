package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"console/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────

// discoverSampleRows is how many rows Discover reads to infer column types.
const discoverSampleRows = 50

type csvFileSource struct{}

func init() { etl.RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "string", Required: true, Help: "Absolute path to the CSV file"},
			{Key: "delimiter", Label: "Delimiter", Type: "string", Default: ",", Help: "Column delimiter"},
			{Key: "hasHeader", Label: "Has Header", Type: "select", Options: []string{"true", "false"}, Default: "true"},
		},
	}
}

func (s *csvFileSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	var sample []etl.Record
	err := readCSV(cfg, func(r etl.Record) bool {
		sample = append(sample, r)
		return len(sample) < discoverSampleRows
	})
	if err != nil {
		return nil, err
	}
	return etl.InferSchema(sample), nil
}

func (s *csvFileSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	return stream(ctx, func(emit func(etl.Record) bool) error {
		return readCSV(cfg, emit)
	})
}

// readCSV streams rows as records until emit returns false.
func readCSV(cfg etl.SourceConfig, emit func(etl.Record) bool) error {
	filePath := cfg.String("filePath")
	if filePath == "" {
		return fmt.Errorf("filePath is required")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if delim := cfg.String("delimiter"); delim != "" {
		reader.Comma = []rune(delim)[0]
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("empty csv file")
	}
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	var headers []string
	if strings.ToLower(cfg.String("hasHeader")) == "false" {
		headers = make([]string, len(first))
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i+1)
		}
		if !emit(csvRecord(headers, first)) {
			return nil
		}
	} else {
		headers = first
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse csv: %w", err)
		}
		if !emit(csvRecord(headers, row)) {
			return nil
		}
	}
}

func csvRecord(headers, row []string) etl.Record {
	data := make(map[string]any, len(headers))
	for i, h := range headers {
		if i < len(row) {
			data[h] = parseCSVValue(row[i])
		}
	}
	return etl.Record{Data: data}
}

// parseCSVValue turns numeric and boolean cells into typed values.
func parseCSVValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	return s
}

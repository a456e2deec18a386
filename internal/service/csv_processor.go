package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/samber/lo"
)

// CSVProcessor handles CSV-specific operations
type CSVProcessor struct {
	Logger *logger.Logger
}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor(logger *logger.Logger) *CSVProcessor {
	return &CSVProcessor{
		Logger: logger,
	}
}

// PrepareCSVReader creates a configured CSV reader from the file content
func (cp *CSVProcessor) PrepareCSVReader(fileContent []byte) (*csv.Reader, error) {
	if len(fileContent) == 0 {
		return nil, ierr.NewError("empty file").
			WithHint("The uploaded CSV file is empty").
			Mark(ierr.ErrValidation)
	}

	// Check for and remove BOM if present
	if len(fileContent) >= 3 && fileContent[0] == 0xEF && fileContent[1] == 0xBB && fileContent[2] == 0xBF {
		fileContent = fileContent[3:]
		cp.Logger.Debug("BOM detected and removed from file content")
	}

	reader := csv.NewReader(bytes.NewReader(fileContent))

	reader.LazyQuotes = true       // Allow lazy quotes
	reader.FieldsPerRecord = -1    // Allow variable number of fields
	reader.ReuseRecord = true      // Reuse record memory
	reader.TrimLeadingSpace = true // Trim leading space

	return reader, nil
}

// csvRow is one data row addressed by header name. Line is the 1-based line
// number in the file, the header being line 1.
type csvRow struct {
	Line   int
	fields map[string]string
}

func (r csvRow) Get(column string) string {
	return strings.TrimSpace(r.fields[column])
}

// ReadRows reads the header and then hands every data row to fn. Rows shorter
// than the header get empty values for the missing columns. A parse error on a
// row is passed to fn and reading continues.
func (cp *CSVProcessor) ReadRows(fileContent []byte, required []string, fn func(row csvRow, err error)) error {
	reader, err := cp.PrepareCSVReader(fileContent)
	if err != nil {
		return err
	}

	header, err := reader.Read()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Could not read the CSV header").
			Mark(ierr.ErrValidation)
	}
	columns := lo.Map(header, func(h string, _ int) string {
		return strings.ToLower(strings.TrimSpace(h))
	})

	missing, _ := lo.Difference(required, columns)
	if len(missing) > 0 {
		return ierr.NewError("missing csv columns").
			WithHintf("The CSV header is missing required columns: %s", strings.Join(missing, ", ")).
			WithReportableDetails(map[string]any{
				"missing": missing,
			}).
			Mark(ierr.ErrValidation)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return ierr.WithError(err).
					WithHint("Could not read the CSV file").
					Mark(ierr.ErrValidation)
			}
			fn(csvRow{Line: parseErr.StartLine}, parseErr.Err)
			continue
		}
		line, _ := reader.FieldPos(0)
		if lo.EveryBy(record, func(v string) bool { return strings.TrimSpace(v) == "" }) {
			continue
		}

		// the reader reuses record, so values are copied out
		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				fields[col] = record[i]
			}
		}
		fn(csvRow{Line: line, fields: fields}, nil)
	}
}

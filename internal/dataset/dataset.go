// Package dataset reads the public higher-education CSV extracts and decodes
// their rows into typed records.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// NullSentinels are cell values the publishers use instead of leaving a cell
// empty. They are treated as absent.
var NullSentinels = []string{"PrivacySuppressed", "NULL", "NaN", "NA"}

// Row is one CSV record keyed by column header. Absent cells are not present
// in the map at all.
type Row map[string]any

// Has reports whether the column carries a value.
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Read streams rows from r to fn. The first record is the header. Cells equal
// to one of NullSentinels, or empty, are left out of the row.
func Read(r io.Reader, fn func(line int, row Row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("read line %d: %w", line, err)
		}

		row := make(Row, len(columns))
		for i, value := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if isNull(value) {
				continue
			}
			row[columns[i]] = value
		}

		if err := fn(line, row); err != nil {
			return err
		}
	}
}

// Decode copies row values into out, which must be a pointer to a struct with
// mapstructure tags naming the CSV columns. Numeric fields accept any string
// strconv.ParseFloat understands; anything else leaves the field absent.
func Decode(row Row, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       numericHook,
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(map[string]any(row)); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

func numericHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	for to.Kind() == reflect.Ptr {
		to = to.Elem()
	}

	switch to.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return data, nil
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(data.(string)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return f, nil
}

func isNull(value string) bool {
	if value == "" {
		return true
	}
	for _, s := range NullSentinels {
		if value == s {
			return true
		}
	}
	return false
}

// Float parses the value of column as a float. Absent or unparseable values
// report false.
func Float(row Row, column string) (float64, bool) {
	raw, ok := row[column]
	if !ok {
		return 0, false
	}
	s, ok := raw.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

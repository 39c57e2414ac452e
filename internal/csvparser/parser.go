// =============================================================================
// Watson Report Validator - CSV Reader
// =============================================================================
//
// Some vendor portals export the report as CSV rather than a workbook. This
// module turns such an export into the same Grid shape the workbook readers
// produce, so the header detection and metadata extraction that follow do
// not care where the rows came from.
//
// FEATURES:
//   - Configurable delimiter (comma, pipe, tab, semicolon)
//   - Ragged rows (metadata lines above the header have fewer fields)
//   - Lazy quotes, leading space trimming
//   - UTF-8 byte order mark removal
//
// Every non-empty field becomes a text cell; empty fields become blank cells.
// Numeric interpretation is left to the validators, which parse text values.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/watson-validator/internal/types"
)

// ErrEmpty is returned when the stream holds no records.
var ErrEmpty = errors.New("csv file is empty")

const utf8BOM = "\ufeff"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadGrid reads a CSV stream into a Grid.
//
// PARAMETERS:
//   - r: The CSV byte stream.
//   - delimiter: The field separator. Accepts a single character or one of
//     the names "tab", "pipe", "semicolon".
//
// RETURNS:
//   - The rows as cells, in file order.
//   - An error if the stream cannot be read as CSV or holds no records.
func ReadGrid(r io.Reader, delimiter string) (types.Grid, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, delimiter)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, ErrEmpty
	}
	if len(allRows[0]) > 0 {
		allRows[0][0] = strings.TrimPrefix(allRows[0][0], utf8BOM)
	}

	grid := make(types.Grid, len(allRows))
	for i, row := range allRows {
		cells := make([]types.Cell, len(row))
		for j, v := range row {
			if v == "" {
				cells[j] = types.Blank()
				continue
			}
			cells[j] = types.Text(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

// configureReader configures the CSV reader for vendor exports.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if r := []rune(delimiter); len(r) > 0 {
			reader.Comma = r[0]
		} else {
			reader.Comma = ','
		}
	}

	// Metadata lines above the header row are shorter than data rows.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

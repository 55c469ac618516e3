package parsers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/columns"
)

var (
	ErrEmptySource   = errors.New("source contains no rows")
	ErrNoHeaderRow   = errors.New("no header row found")
	ErrTooManyRows   = errors.New("source exceeds the row limit")
	utf8BOM          = []byte{0xEF, 0xBB, 0xBF}
	zipMagic         = []byte("PK\x03\x04")
	candidateDelims  = []rune{',', ';', '\t', '|'}
	headerKeywords   = []string{"symbol", "scrip", "stock", "instrument", "quantity", "qty", "price", "value", "date", "p&l"}
	headerSearchRows = 30
	sniffLines       = 10
)

// ReadRows decodes a delimited export or an xlsx workbook into rows keyed by
// normalized header. Preamble lines above the header are dropped, as are fully
// blank lines. maxRows <= 0 disables the limit.
func ReadRows(r io.Reader, maxRows int) ([]models.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reader: failed to read source: %w", err)
	}
	var records [][]string
	if IsSpreadsheet(data) {
		records, err = readSheet(data)
	} else {
		records, err = readDelimited(data)
	}
	if err != nil {
		return nil, err
	}
	return recordsToRows(records, maxRows)
}

// IsSpreadsheet reports whether data starts with the ZIP container signature of
// an xlsx workbook.
func IsSpreadsheet(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// readSheet returns the cells of the first worksheet as displayed by Excel.
func readSheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reader: failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptySource
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reader: failed to read sheet %q: %w", sheet, err)
	}
	for _, record := range records {
		if !isBlank(record) {
			return records, nil
		}
	}
	return nil, ErrEmptySource
}

func readDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		// Excel on Windows saves CSV as cp1252.
		decoded, decErr := charmap.Windows1252.NewDecoder().Bytes(data)
		if decErr != nil {
			return nil, fmt.Errorf("reader: failed to decode source: %w", decErr)
		}
		data = decoded
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptySource
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reader: failed to read records: %w", err)
	}
	return records, nil
}

func recordsToRows(records [][]string, maxRows int) ([]models.RawRow, error) {
	headerIdx := findHeader(records)
	if headerIdx < 0 {
		return nil, ErrNoHeaderRow
	}
	headers := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		headers[i] = columns.NormalizeHeader(h)
	}

	rows := make([]models.RawRow, 0, len(records)-headerIdx-1)
	for _, record := range records[headerIdx+1:] {
		if isBlank(record) {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrTooManyRows, maxRows)
		}
		row := make(models.RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffDelimiter picks the candidate that appears most often across the first lines.
func sniffDelimiter(data []byte) rune {
	lines := strings.SplitN(string(data), "\n", sniffLines+1)
	if len(lines) > sniffLines {
		lines = lines[:sniffLines]
	}
	best, bestCount := ',', 0
	for _, d := range candidateDelims {
		count := 0
		for _, line := range lines {
			count += strings.Count(line, string(d))
		}
		if count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}

// findHeader returns the index of the first record naming at least two known
// columns. Without such a record, the first record with two non-empty cells is used.
func findHeader(records [][]string) int {
	fallback := -1
	for i, record := range records {
		if i >= headerSearchRows {
			break
		}
		nonEmpty := 0
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				nonEmpty++
			}
		}
		if nonEmpty < 2 {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		joined := strings.ToLower(strings.Join(record, " "))
		matches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(joined, kw) {
				matches++
			}
		}
		if matches >= 2 {
			return i
		}
	}
	return fallback
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package internal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxSheetRows caps the rows kept from one sheet
const MaxSheetRows = 1000

var gidParam = regexp.MustCompile(`gid=(\d+)`)

// SheetExportURL rewrites a sheet URL to its CSV export, keeping the
// tab id when present
func SheetExportURL(sheetURL string) string {
	out := editSuffix.ReplaceAllString(sheetURL, "/export?format=csv")
	if !strings.Contains(out, "/export") {
		out = strings.TrimRight(out, "/") + "/export?format=csv"
	}
	if m := gidParam.FindStringSubmatch(sheetURL); m != nil && !strings.Contains(out, "gid=") {
		if strings.Contains(out, "?") {
			out += "&gid=" + m[1]
		} else {
			out += "?gid=" + m[1]
		}
	}
	return out
}

// LoadSheet fetches a public sheet as CSV and parses it into rows
func (f *Fetcher) LoadSheet(ctx context.Context, sheetURL string) (*Dataset, error) {
	sheetURL = strings.TrimSpace(sheetURL)
	fail := func(msg string) error {
		return &DataLoadError{Mode: ModeGoogleSheet, URL: sheetURL, Err: errors.New(msg)}
	}
	if sheetURL == "" {
		return nil, fail("Google Sheet URL cannot be empty.")
	}
	if !strings.HasPrefix(sheetURL, SheetURLPrefix) {
		return nil, fail("Invalid Google Sheet URL format.")
	}

	body, status, err := f.get(ctx, SheetExportURL(sheetURL))
	if err != nil {
		return nil, &DataLoadError{Mode: ModeGoogleSheet, URL: sheetURL, Err: fmt.Errorf("Failed to fetch sheet data: %w", err)}
	}
	if status < 200 || status > 299 {
		if publicAccessStatus(status) {
			return nil, fail(fmt.Sprintf(`Failed to fetch sheet. Status: %d. Ensure the sheet is public ("Anyone with the link can view").`, status))
		}
		return nil, fail(fmt.Sprintf("Failed to fetch sheet data. Status: %d", status))
	}
	if strings.TrimSpace(body) == "" {
		return nil, fail("Fetched CSV data is empty. The sheet might be empty or inaccessible.")
	}

	data, err := ParseCSV(body)
	if err != nil {
		LogDebug("CSV parse failed: %v", err)
		return nil, fail("Could not parse CSV data. Check sheet format or content. Ensure first row contains headers.")
	}
	if len(data.Rows) == 0 {
		return nil, fail("No data rows found in the sheet after parsing headers.")
	}
	if len(data.Rows) > MaxSheetRows {
		LogInfo("Sheet has %d rows, keeping the first %d", len(data.Rows), MaxSheetRows)
		data.Rows = data.Rows[:MaxSheetRows]
	}

	return &Dataset{Mode: ModeGoogleSheet, Sheet: data, FileName: exportFileName("Sheet", sheetURL)}, nil
}

// ParseCSV reads a header row and data rows. Cells are trimmed and those
// that read as finite numbers become float64; empty cells stay strings.
// Missing trailing cells read as empty strings.
func ParseCSV(text string) (*SheetData, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var headers []string
	var rows []SheetRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if blankRecord(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, h := range record {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}

		row := make(SheetRow, len(headers))
		for i, h := range headers {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[h] = coerceCell(value)
		}
		rows = append(rows, row)
	}

	if len(headers) == 0 {
		return nil, errors.New("no header row")
	}
	return &SheetData{Headers: headers, Rows: rows}, nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func coerceCell(value string) any {
	if value == "" {
		return value
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return value
	}
	return n
}

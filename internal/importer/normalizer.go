package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"pokerlog/internal/models"
)

// ErrDecode means the raw bytes are not valid text; the whole import fails.
var ErrDecode = errors.New("importer: file is not valid utf-8 text")

// ErrTooFewLines means the file lacks a header row plus at least one data row.
var ErrTooFewLines = errors.New("importer: need a header row and at least one data row")

// FormatError means required columns were not found in the header row. Fatal
// to the whole import.
type FormatError struct {
	Vendor  VendorFormat
	Missing []string
	Headers []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("importer: %s export is missing required columns [%s]; headers found: [%s]",
		e.Vendor, strings.Join(e.Missing, ", "), strings.Join(e.Headers, ", "))
}

// RowError is one skipped data row. Row is 1-based over data rows (the
// header is row 0).
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of normalizing one vendor file. Imported records are
// unpersisted (no IDs assigned yet).
type Result struct {
	Imported  []models.SessionRecord
	RowErrors []RowError
	TotalRows int
}

type Options struct {
	// MaxRows caps processed data rows; rows past the cap become row
	// errors. Zero means no cap.
	MaxRows int
}

// Normalize converts one vendor export into canonical session records.
// Individual bad rows are collected as row errors and never abort the batch;
// only decode and header-detection failures are fatal. Pure: persistence and
// raw-file archival belong to the caller.
func Normalize(data []byte, vendor VendorFormat, userID string, opts Options) (*Result, error) {
	sp, ok := formatSpecs[vendor]
	if !ok {
		return nil, fmt.Errorf("importer: unknown vendor format %q", vendor)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("importer: user id is required")
	}
	if !utf8.Valid(data) {
		return nil, ErrDecode
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := nonBlankLines(text)
	if len(lines) < 2 {
		return nil, ErrTooFewLines
	}

	headerLine := sp.substituteSeparators(lines[0])
	delim := detectDelimiter(headerLine)
	rawHeaders := strings.Split(headerLine, delim)
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = normalizeHeaderCell(h)
	}

	idx, missing := sp.resolveColumns(headers)
	if len(missing) > 0 {
		return nil, &FormatError{Vendor: vendor, Missing: missing, Headers: headers}
	}

	res := &Result{TotalRows: len(lines) - 1}
	for i, line := range lines[1:] {
		row := i + 1
		if opts.MaxRows > 0 && row > opts.MaxRows {
			res.RowErrors = append(res.RowErrors, RowError{Row: row, Reason: "row cap exceeded"})
			continue
		}
		cells := strings.Split(sp.substituteSeparators(line), delim)
		if len(cells) < len(headers) {
			res.RowErrors = append(res.RowErrors, RowError{Row: row, Reason: "insufficient columns"})
			continue
		}
		rec, err := sp.buildRecord(cells, idx, userID)
		if err != nil {
			res.RowErrors = append(res.RowErrors, RowError{Row: row, Reason: err.Error()})
			continue
		}
		res.Imported = append(res.Imported, *rec)
	}
	return res, nil
}

func (sp formatSpec) buildRecord(cells []string, idx map[string]int, userID string) (*models.SessionRecord, error) {
	cell := func(key string) (string, bool) {
		i, ok := idx[key]
		if !ok || i >= len(cells) {
			return "", false
		}
		return strings.TrimSpace(trimQuotes(cells[i])), true
	}

	rec := &models.SessionRecord{
		UserID:       userID,
		GameCategory: models.CategoryCashGame,
	}

	if sp.vendor == FormatFlexible {
		raw, _ := cell(colDate)
		start, ok := sp.parseTime(raw)
		if !ok {
			return nil, fmt.Errorf("bad date value %q", raw)
		}
		hours := 0.0
		if raw, ok := cell(colHours); ok && raw != "" {
			v, err := strconv.ParseFloat(scrubNumeric(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("bad hours value %q", raw)
			}
			hours = v
		}
		rec.StartAt = start
		rec.EndAt = start.Add(time.Duration(hours * float64(time.Hour)))
		rec.HoursPlayed = hours

		rec.BuyIn = optionalAmount(cell, colBuyIn)
		rec.CashOut = optionalAmount(cell, colCashOut)
		expenses := optionalAmount(cell, colExpenses)
		rec.Profit = rec.CashOut.Sub(rec.BuyIn).Sub(expenses)

		rec.LocationLabel = "Unknown"
		if raw, ok := cell(colLocation); ok && raw != "" {
			rec.LocationLabel = raw
		}
		if raw, ok := cell(colType); ok {
			applyCategory(rec, raw)
		}
		return rec, nil
	}

	startRaw, _ := cell(colStart)
	start, ok := sp.parseTime(startRaw)
	if !ok {
		return nil, fmt.Errorf("bad start value %q", startRaw)
	}
	endRaw, _ := cell(colEnd)
	end, ok := sp.parseTime(endRaw)
	if !ok {
		return nil, fmt.Errorf("bad end value %q", endRaw)
	}
	rec.StartAt = start
	rec.EndAt = end
	// Preserved exactly as computed; a vendor row with end before start
	// yields a negative value here.
	rec.HoursPlayed = end.Sub(start).Hours()

	if raw, ok := cell(colBuyIn); ok {
		v, err := parseAmount(raw)
		if err != nil {
			if sp.isRequired(colBuyIn) {
				return nil, fmt.Errorf("bad buy-in value %q", raw)
			}
		} else {
			rec.BuyIn = v
		}
	}
	if raw, ok := cell(colCashOut); ok {
		v, err := parseAmount(raw)
		if err != nil {
			if sp.isRequired(colCashOut) {
				return nil, fmt.Errorf("bad cash-out value %q", raw)
			}
		} else {
			rec.CashOut = v
		}
	}

	// Vendor-provided net wins over cashOut-buyIn when present and parseable.
	rec.Profit = rec.CashOut.Sub(rec.BuyIn)
	if raw, ok := cell(colNet); ok {
		v, err := parseAmount(raw)
		if err != nil {
			if sp.isRequired(colNet) {
				return nil, fmt.Errorf("bad net value %q", raw)
			}
		} else {
			rec.Profit = v
		}
	}

	if raw, ok := cell(colLocation); ok {
		rec.LocationLabel = raw
	}
	game, _ := cell(colGame)
	variant, _ := cell(colVariant)
	rec.GameName = joinLabels(variant, game)

	stakes, _ := cell(colStakes)
	limit, _ := cell(colLimit)
	rec.StakesLabel = joinLabels(limit, stakes)

	if raw, ok := cell(colType); ok {
		applyCategory(rec, raw)
	}
	if raw, ok := cell(colTourney); ok && raw != "" {
		rec.Series = &raw
	}
	if raw, ok := cell(colNote); ok && raw != "" {
		if encoded, err := json.Marshal([]string{raw}); err == nil {
			rec.Notes = datatypes.JSON(encoded)
		}
	}
	return rec, nil
}

func (sp formatSpec) isRequired(key string) bool {
	for _, col := range sp.columns {
		if col.key == key {
			return col.required
		}
	}
	return false
}

func applyCategory(rec *models.SessionRecord, raw string) {
	lowered := strings.ToLower(raw)
	if strings.Contains(lowered, "tourn") || strings.Contains(lowered, "mtt") || strings.Contains(lowered, "sng") {
		rec.GameCategory = models.CategoryTournament
		if raw != "" {
			rec.TournamentType = &raw
		}
	}
}

func optionalAmount(cell func(string) (string, bool), key string) decimal.Decimal {
	raw, ok := cell(key)
	if !ok || raw == "" {
		return decimal.Zero
	}
	v, err := parseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// parseAmount strips every character outside [0-9.-] before conversion, so
// "$1,500.00" and "€ 1.500" both survive the vendor's formatting.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := scrubNumeric(raw)
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, fmt.Errorf("no numeric content")
	}
	return decimal.NewFromString(cleaned)
}

func scrubNumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeHeaderCell(raw string) string {
	s := strings.TrimPrefix(raw, "\ufeff")
	s = strings.TrimSpace(trimQuotes(s))
	return strings.ToLower(s)
}

func trimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func detectDelimiter(headerLine string) string {
	if strings.Contains(headerLine, "\t") {
		return "\t"
	}
	return ","
}

func nonBlankLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinLabels(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, " ")
}

package importer

import (
	"strings"
	"time"
)

// VendorFormat selects one third-party export layout.
type VendorFormat string

const (
	// FormatSimple: minimal exports with a start/end/location/profit header.
	FormatSimple VendorFormat = "simple"
	// FormatAnalytics: exports carrying explicit buy-in/cashed-out/net
	// columns; tolerates semicolon or apostrophe in place of the comma.
	FormatAnalytics VendorFormat = "analytics"
	// FormatBankrollTracker: full bankroll-tracker exports with variant,
	// game and tournament metadata columns.
	FormatBankrollTracker VendorFormat = "bankrolltracker"
	// FormatFlexible: regrouped exports where only the date column is
	// mandatory; every other column falls back to a documented default.
	FormatFlexible VendorFormat = "flexible"
)

func ParseVendorFormat(raw string) (VendorFormat, bool) {
	switch VendorFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatSimple:
		return FormatSimple, true
	case FormatAnalytics:
		return FormatAnalytics, true
	case FormatBankrollTracker:
		return FormatBankrollTracker, true
	case FormatFlexible:
		return FormatFlexible, true
	}
	return "", false
}

// Logical column keys shared across vendor specs.
const (
	colStart    = "start"
	colEnd      = "end"
	colDate     = "date"
	colLocation = "location"
	colBuyIn    = "buy-in"
	colCashOut  = "cash-out"
	colNet      = "net"
	colGame     = "game"
	colVariant  = "variant"
	colStakes   = "stakes"
	colLimit    = "limit"
	colType     = "type"
	colHours    = "hours"
	colExpenses = "expenses"
	colTourney  = "tournament-name"
	colNote     = "note"
)

// column maps one logical column onto the header aliases a vendor uses for
// it. exact matches win over prefix matches; first matching header index is
// kept.
type column struct {
	key      string
	exact    []string
	prefixes []string
	required bool
}

type formatSpec struct {
	vendor VendorFormat
	// commaEquivalents are substituted with ',' in every line before
	// splitting (the analytics vendor emits regional exports using ';'
	// or ''' as the field separator).
	commaEquivalents []string
	// datePatterns are tried in priority order; the first parse wins.
	datePatterns []string
	columns      []column
}

var formatSpecs = map[VendorFormat]formatSpec{
	FormatSimple: {
		vendor: FormatSimple,
		datePatterns: []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
		},
		columns: []column{
			{key: colStart, exact: []string{"startdate", "starttime"}, prefixes: []string{"start"}, required: true},
			{key: colEnd, exact: []string{"enddate", "endtime"}, prefixes: []string{"end"}, required: true},
			{key: colLocation, exact: []string{"venue"}, prefixes: []string{"location"}, required: true},
			{key: colNet, exact: []string{"profit", "result", "net"}, required: true},
			{key: colGame, prefixes: []string{"game"}},
			{key: colStakes, exact: []string{"stakes", "blinds"}},
			{key: colNote, prefixes: []string{"note"}},
		},
	},
	FormatAnalytics: {
		vendor:           FormatAnalytics,
		commaEquivalents: []string{";", "'"},
		datePatterns: []string{
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"01/02/2006 15:04",
			time.RFC3339,
		},
		columns: []column{
			{key: colStart, exact: []string{"startdate", "starttime"}, prefixes: []string{"start"}, required: true},
			{key: colEnd, exact: []string{"enddate", "endtime"}, prefixes: []string{"end"}, required: true},
			{key: colBuyIn, exact: []string{"buyin", "buy-in", "buy in"}, required: true},
			{key: colCashOut, exact: []string{"cashedout", "cashed out", "cashout", "cash-out", "cash out"}, required: true},
			{key: colNet, exact: []string{"net", "netresult", "net result"}, required: true},
			{key: colLocation, exact: []string{"venue"}, prefixes: []string{"location"}, required: true},
			{key: colStakes, exact: []string{"blinds"}, prefixes: []string{"blind"}},
			{key: colType, exact: []string{"type", "gametype", "game type"}},
		},
	},
	FormatBankrollTracker: {
		vendor: FormatBankrollTracker,
		datePatterns: []string{
			"01/02/2006 3:04:05 PM",
			"01/02/2006 15:04",
			"2006-01-02 15:04:05",
			time.RFC3339,
		},
		columns: []column{
			{key: colStart, exact: []string{"startdate", "starttime"}, prefixes: []string{"start"}, required: true},
			{key: colEnd, exact: []string{"enddate", "endtime"}, prefixes: []string{"end"}, required: true},
			{key: colVariant, exact: []string{"variant"}, required: true},
			{key: colGame, exact: []string{"game"}, required: true},
			{key: colLocation, exact: []string{"venue"}, prefixes: []string{"location"}, required: true},
			{key: colBuyIn, exact: []string{"buyin", "buy-in", "buy in"}, required: true},
			{key: colCashOut, exact: []string{"cashout", "cash-out", "cash out"}, required: true},
			{key: colNet, exact: []string{"netprofit", "net-profit", "net profit"}, prefixes: []string{"net"}, required: true},
			{key: colLimit, exact: []string{"limit"}},
			{key: colType, exact: []string{"type", "gametype", "game type"}},
			{key: colStakes, exact: []string{"blinds"}},
			{key: colTourney, exact: []string{"tournamentname", "tournament name"}, prefixes: []string{"tournament"}},
			{key: colNote, prefixes: []string{"note"}},
		},
	},
	FormatFlexible: {
		vendor: FormatFlexible,
		datePatterns: []string{
			"01/02/2006",
			"2006-01-02",
			"Jan 2, 2006",
		},
		columns: []column{
			{key: colDate, exact: []string{"date"}, prefixes: []string{"date", "start"}, required: true},
			{key: colBuyIn, exact: []string{"buyin", "buy-in", "buy in"}},
			{key: colCashOut, exact: []string{"cashout", "cash-out", "cash out", "cashedout"}},
			{key: colLocation, exact: []string{"venue"}, prefixes: []string{"location"}},
			{key: colHours, exact: []string{"hours", "duration"}, prefixes: []string{"hour"}},
			{key: colType, exact: []string{"format", "type", "gametype"}},
			{key: colExpenses, prefixes: []string{"expense"}},
		},
	},
}

// resolveColumns matches normalized headers against the format alias tables.
// Returns the header index per logical key and the required keys that found
// no header at all.
func (sp formatSpec) resolveColumns(headers []string) (map[string]int, []string) {
	idx := make(map[string]int, len(sp.columns))
	var missing []string
	for _, col := range sp.columns {
		pos := -1
	search:
		for i, h := range headers {
			for _, alias := range col.exact {
				if h == alias {
					pos = i
					break search
				}
			}
		}
		if pos < 0 && len(col.prefixes) > 0 {
		prefixSearch:
			for i, h := range headers {
				for _, p := range col.prefixes {
					if strings.HasPrefix(h, p) {
						pos = i
						break prefixSearch
					}
				}
			}
		}
		if pos >= 0 {
			idx[col.key] = pos
		} else if col.required {
			missing = append(missing, col.key)
		}
	}
	return idx, missing
}

func (sp formatSpec) substituteSeparators(line string) string {
	for _, eq := range sp.commaEquivalents {
		line = strings.ReplaceAll(line, eq, ",")
	}
	return line
}

func (sp formatSpec) parseTime(raw string) (time.Time, bool) {
	for _, layout := range sp.datePatterns {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

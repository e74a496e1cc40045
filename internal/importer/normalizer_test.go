package importer

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func mustNormalize(t *testing.T, data string, vendor VendorFormat) *Result {
	t.Helper()
	res, err := Normalize([]byte(data), vendor, "user-1", Options{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return res
}

func TestSimpleFormatBasicRow(t *testing.T) {
	data := "start,end,location,profit\n" +
		"2024-01-01T18:00:00Z,2024-01-01T22:30:00Z,Bellagio,150.5\n"
	res := mustNormalize(t, data, FormatSimple)
	if len(res.Imported) != 1 || len(res.RowErrors) != 0 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	rec := res.Imported[0]
	if math.Abs(rec.HoursPlayed-4.5) > 1e-9 {
		t.Fatalf("hoursPlayed=%v want 4.5", rec.HoursPlayed)
	}
	if !rec.Profit.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("profit=%s want 150.5", rec.Profit)
	}
	if rec.GameName != "" {
		t.Fatalf("gameName=%q want empty", rec.GameName)
	}
	if rec.LocationLabel != "Bellagio" {
		t.Fatalf("location=%q", rec.LocationLabel)
	}
	if rec.ID != 0 {
		t.Fatalf("record must be unpersisted, got id=%d", rec.ID)
	}
}

func TestFlexibleFormatDateOnlyDefaults(t *testing.T) {
	data := "date\n01/15/2024\n2024-02-20\n"
	res := mustNormalize(t, data, FormatFlexible)
	if len(res.Imported) != 2 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	for _, rec := range res.Imported {
		if !rec.BuyIn.IsZero() || !rec.CashOut.IsZero() {
			t.Fatalf("buyIn=%s cashOut=%s want zero", rec.BuyIn, rec.CashOut)
		}
		if rec.LocationLabel != "Unknown" {
			t.Fatalf("location=%q want Unknown", rec.LocationLabel)
		}
		if rec.HoursPlayed != 0 {
			t.Fatalf("hoursPlayed=%v want 0", rec.HoursPlayed)
		}
	}
}

func TestFlexibleFormatOptionalColumns(t *testing.T) {
	data := "date,buy-in,cash-out,hours,location,expenses\n" +
		"01/15/2024,200,350,5.5,Aria,20\n"
	res := mustNormalize(t, data, FormatFlexible)
	if len(res.Imported) != 1 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	rec := res.Imported[0]
	if rec.HoursPlayed != 5.5 {
		t.Fatalf("hoursPlayed=%v", rec.HoursPlayed)
	}
	// 350 - 200 - 20
	if !rec.Profit.Equal(decimal.RequireFromString("130")) {
		t.Fatalf("profit=%s want 130", rec.Profit)
	}
	if rec.LocationLabel != "Aria" {
		t.Fatalf("location=%q", rec.LocationLabel)
	}
}

func TestBadDateRowSkippedRestImported(t *testing.T) {
	data := "start,end,location,profit\n" +
		"2024-01-01T18:00:00Z,2024-01-01T22:30:00Z,Bellagio,150.5\n" +
		"not-a-date,2024-01-02T22:30:00Z,Wynn,10\n" +
		"2024-01-03T18:00:00Z,2024-01-03T20:00:00Z,Wynn,-75\n"
	res := mustNormalize(t, data, FormatSimple)
	if res.TotalRows != 3 {
		t.Fatalf("totalRows=%d want 3", res.TotalRows)
	}
	if len(res.Imported) != 2 {
		t.Fatalf("imported=%d want 2", len(res.Imported))
	}
	if len(res.RowErrors) != 1 {
		t.Fatalf("rowErrors=%v want exactly 1", res.RowErrors)
	}
	if res.RowErrors[0].Row != 2 {
		t.Fatalf("rowError row=%d want 2", res.RowErrors[0].Row)
	}
	if !strings.Contains(res.RowErrors[0].Reason, "not-a-date") {
		t.Fatalf("reason should name the raw value: %q", res.RowErrors[0].Reason)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	data := "start,end,location,profit\n" +
		"2024-01-01T18:00:00Z,2024-01-01T22:30:00Z,Bellagio,150.5\n" +
		"bad,2024-01-02T22:30:00Z,Wynn,10\n"
	first := mustNormalize(t, data, FormatSimple)
	second := mustNormalize(t, data, FormatSimple)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs over the same bytes differ:\n%#v\n%#v", first, second)
	}
}

func TestMissingColumnsFailsWithDiagnostic(t *testing.T) {
	data := "begin,finish,place\nx,y,z\n"
	_, err := Normalize([]byte(data), FormatSimple, "user-1", Options{})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want FormatError, got %v", err)
	}
	if len(fe.Missing) == 0 {
		t.Fatalf("missing columns not reported")
	}
	msg := fe.Error()
	for _, want := range []string{"location", "begin", "finish"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("diagnostic %q should mention %q", msg, want)
		}
	}
}

func TestInvalidUTF8IsDecodeError(t *testing.T) {
	_, err := Normalize([]byte{0xff, 0xfe, 0x00, 0x80}, FormatSimple, "user-1", Options{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("want ErrDecode, got %v", err)
	}
}

func TestHeaderOnlyFileRejected(t *testing.T) {
	_, err := Normalize([]byte("start,end,location,profit\n\n\n"), FormatSimple, "user-1", Options{})
	if !errors.Is(err, ErrTooFewLines) {
		t.Fatalf("want ErrTooFewLines, got %v", err)
	}
}

func TestShortRowIsRowError(t *testing.T) {
	data := "start,end,location,profit\n" +
		"2024-01-01T18:00:00Z,2024-01-01T22:30:00Z\n"
	res := mustNormalize(t, data, FormatSimple)
	if len(res.RowErrors) != 1 || res.RowErrors[0].Reason != "insufficient columns" {
		t.Fatalf("rowErrors=%v", res.RowErrors)
	}
}

func TestTabDelimiterDetected(t *testing.T) {
	data := "start\tend\tlocation\tprofit\n" +
		"2024-01-01 18:00:00\t2024-01-01 19:00:00\tHome Game\t42\n"
	res := mustNormalize(t, data, FormatSimple)
	if len(res.Imported) != 1 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	if res.Imported[0].LocationLabel != "Home Game" {
		t.Fatalf("location=%q", res.Imported[0].LocationLabel)
	}
}

func TestAnalyticsSemicolonSeparators(t *testing.T) {
	data := "Start Date;End Date;Buy-in;Cashed Out;Net;Location;Blinds\n" +
		"2024-03-01 19:00;2024-03-02 01:00;500;900;400;Commerce;2/5\n"
	res := mustNormalize(t, data, FormatAnalytics)
	if len(res.Imported) != 1 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	rec := res.Imported[0]
	if !rec.BuyIn.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("buyIn=%s", rec.BuyIn)
	}
	if !rec.Profit.Equal(decimal.RequireFromString("400")) {
		t.Fatalf("profit=%s", rec.Profit)
	}
	if rec.StakesLabel != "2/5" {
		t.Fatalf("stakes=%q", rec.StakesLabel)
	}
}

func TestVendorNetWinsOverComputedProfit(t *testing.T) {
	// Net disagrees with cashOut-buyIn; the vendor value must win.
	data := "start,end,buy-in,cashed out,net,location\n" +
		"2024-03-01 19:00,2024-03-01 23:00,100,250,175,Lodge\n"
	res := mustNormalize(t, data, FormatAnalytics)
	if len(res.Imported) != 1 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	if !res.Imported[0].Profit.Equal(decimal.RequireFromString("175")) {
		t.Fatalf("profit=%s want vendor net 175", res.Imported[0].Profit)
	}
}

func TestCurrencyFormattingScrubbed(t *testing.T) {
	data := "start\tend\tbuy-in\tcashed out\tnet\tlocation\n" +
		"2024-03-01 19:00\t2024-03-01 23:00\t$1,500.00\t$2,000.00\t$500.00\tBellagio\n"
	res := mustNormalize(t, data, FormatAnalytics)
	if len(res.Imported) != 1 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	rec := res.Imported[0]
	if !rec.BuyIn.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("buyIn=%s want 1500", rec.BuyIn)
	}
	if !rec.CashOut.Equal(decimal.RequireFromString("2000")) {
		t.Fatalf("cashOut=%s want 2000", rec.CashOut)
	}
}

func TestBankrollTrackerRow(t *testing.T) {
	data := "Start,End,Variant,Game,Location,Buy-in,Cash-out,Net Profit,Type,Tournament Name\n" +
		"01/05/2024 6:30:00 PM,01/06/2024 1:15:00 AM,NLHE,Hold'em,Bellagio,1000,2500,1500,Tournament,WPT Main Event\n"
	res := mustNormalize(t, data, FormatBankrollTracker)
	if len(res.Imported) != 1 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	rec := res.Imported[0]
	if rec.GameCategory != "tournament" {
		t.Fatalf("category=%q", rec.GameCategory)
	}
	if rec.Series == nil || *rec.Series != "WPT Main Event" {
		t.Fatalf("series=%v", rec.Series)
	}
	if !rec.Profit.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("profit=%s", rec.Profit)
	}
	if rec.GameName != "NLHE Hold'em" {
		t.Fatalf("gameName=%q", rec.GameName)
	}
}

func TestNegativeDurationPreserved(t *testing.T) {
	// End before start is not rejected; hoursPlayed stays negative.
	data := "start,end,location,profit\n" +
		"2024-01-01T22:00:00Z,2024-01-01T20:00:00Z,Bellagio,10\n"
	res := mustNormalize(t, data, FormatSimple)
	if len(res.Imported) != 1 {
		t.Fatalf("imported=%d rowErrors=%v", len(res.Imported), res.RowErrors)
	}
	if res.Imported[0].HoursPlayed != -2 {
		t.Fatalf("hoursPlayed=%v want -2", res.Imported[0].HoursPlayed)
	}
}

func TestRowCapReportsErrors(t *testing.T) {
	var b strings.Builder
	b.WriteString("start,end,location,profit\n")
	for i := 0; i < 5; i++ {
		b.WriteString("2024-01-01T18:00:00Z,2024-01-01T20:00:00Z,Bellagio,10\n")
	}
	res, err := Normalize([]byte(b.String()), FormatSimple, "user-1", Options{MaxRows: 3})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(res.Imported) != 3 {
		t.Fatalf("imported=%d want 3", len(res.Imported))
	}
	if len(res.RowErrors) != 2 {
		t.Fatalf("rowErrors=%v want 2 capped rows", res.RowErrors)
	}
}

func TestParseVendorFormat(t *testing.T) {
	tests := []struct {
		in   string
		want VendorFormat
		ok   bool
	}{
		{"simple", FormatSimple, true},
		{" Analytics ", FormatAnalytics, true},
		{"BANKROLLTRACKER", FormatBankrollTracker, true},
		{"flexible", FormatFlexible, true},
		{"hud", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseVendorFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseVendorFormat(%q) = %q,%v", tt.in, got, ok)
		}
	}
}

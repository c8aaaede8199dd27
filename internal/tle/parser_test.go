package tle

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"
)

func TestParse(t *testing.T) {
	data := "0 " + issName + "\n" + issLine1 + "\n" + issLine2 + "\n" +
		"GARBAGE\n" +
		"STARLINK-1007\n1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995\n2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05\n"

	entries, err := Parse(strings.NewReader(data), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	iss := entries[0]
	if iss.ID != "25544" || iss.NORADID != 25544 {
		t.Errorf("ISS id = %q/%d, want 25544", iss.ID, iss.NORADID)
	}
	if iss.Name != issName {
		t.Errorf("name = %q, want %q", iss.Name, issName)
	}
	wantEpoch := time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC)
	if d := iss.Epoch.Sub(wantEpoch); d > time.Second || d < -time.Second {
		t.Errorf("epoch = %v, want ~%v", iss.Epoch, wantEpoch)
	}
	if entries[1].NORADID != 44713 {
		t.Errorf("second entry NORAD = %d, want 44713", entries[1].NORADID)
	}
}

func TestValidateLines(t *testing.T) {
	tests := []struct {
		name  string
		line1 string
		line2 string
		ok    bool
	}{
		{"valid", issLine1, issLine2, true},
		{"valid with padding", "  " + issLine1 + " \r", issLine2 + "  ", true},
		{"short line1", issLine1[:60], issLine2, false},
		{"long line2", issLine1, issLine2 + "9", false},
		{"swapped", issLine2, issLine1, false},
		{"missing space after marker", "1" + issLine1[2:] + "0", issLine2, false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines(tt.line1, tt.line2)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("error %v does not wrap ErrMalformed", err)
				}
			}
		})
	}
}

func TestFilterValid(t *testing.T) {
	entries := []TLEEntry{
		{ID: "a", Line1: issLine1, Line2: issLine2},
		{ID: "b", Line1: "1 bad", Line2: issLine2},
		{ID: "c", Line1: issLine1, Line2: issLine2},
	}

	valid, rejected := FilterValid(entries)
	if len(valid) != 2 || valid[0].ID != "a" || valid[1].ID != "c" {
		t.Errorf("valid = %+v, want a,c", valid)
	}
	if len(rejected) != 1 || rejected[0].ID != "b" {
		t.Errorf("rejected = %+v, want b", rejected)
	}
}

func TestParseElements(t *testing.T) {
	el, err := ParseElements(issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"inclination", el.InclinationDeg, 51.6412},
		{"raan", el.RAANDeg, 193.5765},
		{"eccentricity", el.Eccentricity, 0.0003457},
		{"arg perigee", el.ArgPerigeeDeg, 126.2851},
		{"mean anomaly", el.MeanAnomalyDeg, 233.8519},
		{"mean motion", el.MeanMotionRevDay, 15.49874301},
		{"bstar", el.BStar, 0.30099e-3},
		{"ndot", el.MeanMotionDot, 0.00016717},
		{"nddot", el.MeanMotionDDot, 0},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if el.RevolutionAtEpoch != 49505 {
		t.Errorf("rev at epoch = %d, want 49505", el.RevolutionAtEpoch)
	}

	period := el.PeriodMinutes()
	if math.Abs(period-92.91) > 0.05 {
		t.Errorf("period = %.2f min, want ~92.91", period)
	}
}

func TestParseImpliedDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{" 10270-3", 0.10270e-3},
		{"-11606-4", -0.11606e-4},
		{" 00000+0", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := parseImpliedDecimal(tt.in)
		if err != nil {
			t.Errorf("parseImpliedDecimal(%q): %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-15 {
			t.Errorf("parseImpliedDecimal(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestEntryFromLines(t *testing.T) {
	e := EntryFromLines(" "+issName+" ", issLine1+"  ", issLine2)
	if e.ID != "25544" || e.NORADID != 25544 {
		t.Errorf("id = %q/%d, want 25544", e.ID, e.NORADID)
	}
	if e.Name != issName {
		t.Errorf("name = %q, want %q", e.Name, issName)
	}
	if e.Line1 != issLine1 {
		t.Errorf("line1 not trimmed: %q", e.Line1)
	}
	if e.Epoch.IsZero() {
		t.Error("epoch not parsed")
	}

	bad := EntryFromLines("DEBRIS", "garbage", "")
	if bad.ID != "DEBRIS" || bad.NORADID != 0 {
		t.Errorf("fallback id = %q/%d, want DEBRIS/0", bad.ID, bad.NORADID)
	}
}

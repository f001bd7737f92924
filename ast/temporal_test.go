// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"testing"
	"time"
)

func TestDateTimeRoundTrip(t *testing.T) {
	tests := []struct {
		note   string
		parse  func(string) (DateTime, bool)
		format func(DateTime) string
		input  string
		exp    string
	}{
		{note: "utc", parse: ParseDateTime, format: FormatDateTime, input: "2010-06-21T11:28:01Z", exp: "2010-06-21T11:28:01Z"},
		{note: "offset", parse: ParseDateTime, format: FormatDateTime, input: "2010-06-21T11:28:01-05:00", exp: "2010-06-21T11:28:01-05:00"},
		{note: "no zone", parse: ParseDateTime, format: FormatDateTime, input: "2010-06-21T11:28:01", exp: "2010-06-21T11:28:01"},
		{note: "fraction trimmed", parse: ParseDateTime, format: FormatDateTime, input: "2010-06-21T11:28:01.500Z", exp: "2010-06-21T11:28:01.5Z"},
		{note: "zero offset", parse: ParseDateTime, format: FormatDateTime, input: "2010-06-21T11:28:01+00:00", exp: "2010-06-21T11:28:01Z"},
		{note: "hour 24", parse: ParseDateTime, format: FormatDateTime, input: "1999-12-31T24:00:00Z", exp: "2000-01-01T00:00:00Z"},
		{note: "negative year", parse: ParseDateTime, format: FormatDateTime, input: "-0044-03-15T12:00:00", exp: "-0044-03-15T12:00:00"},
		{note: "date", parse: ParseDate, format: FormatDate, input: "2006-08-23+02:00", exp: "2006-08-23+02:00"},
		{note: "time", parse: ParseTime, format: FormatTime, input: "13:20:00.25Z", exp: "13:20:00.25Z"},
		{note: "time 24", parse: ParseTime, format: FormatTime, input: "24:00:00", exp: "00:00:00"},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			d, ok := tc.parse(tc.input)
			if !ok {
				t.Fatalf("expected %q to parse", tc.input)
			}
			if got := tc.format(d); got != tc.exp {
				t.Fatalf("expected %q but got %q", tc.exp, got)
			}
		})
	}
}

func TestParseZone(t *testing.T) {
	for _, s := range []string{"+14:01", "+15:00", "05:00", "+5:00", "+05:60"} {
		if _, ok := ParseZone(s); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
	if off, ok := ParseZone("-14:00"); !ok || off != -14*time.Hour {
		t.Fatalf("expected -14:00, got %v", off)
	}
}

func TestInstant(t *testing.T) {
	d, _ := ParseDateTime("2020-01-01T10:00:00")
	loc := FixedZone(2 * time.Hour)
	exp := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	if !d.Instant(loc).Equal(exp) {
		t.Fatalf("expected %v but got %v", exp, d.Instant(loc))
	}
	z, _ := ParseDateTime("2020-01-01T10:00:00Z")
	if !z.Instant(loc).Equal(time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatal("expected zoned value to ignore the implicit timezone")
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		input  string
		months int64
		exp    string
	}{
		{"2021-01-31T00:00:00Z", 1, "2021-02-28T00:00:00Z"},
		{"2020-01-31T00:00:00Z", 1, "2020-02-29T00:00:00Z"},
		{"2021-03-15T00:00:00Z", -14, "2020-01-15T00:00:00Z"},
		{"2021-12-01T00:00:00Z", 13, "2023-01-01T00:00:00Z"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			d, _ := ParseDateTime(tc.input)
			if got := FormatDateTime(d.AddMonths(tc.months)); got != tc.exp {
				t.Fatalf("expected %v but got %v", tc.exp, got)
			}
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	tests := []struct {
		note  string
		input string
		kind  MainType
		exp   string
	}{
		{note: "full", input: "P1Y2M3DT4H5M6.5S", kind: MainDuration, exp: "P1Y2M3DT4H5M6.5S"},
		{note: "carry months", input: "P14M", kind: MainYearMonthDuration, exp: "P1Y2M"},
		{note: "carry hours", input: "PT36H", kind: MainDayTimeDuration, exp: "P1DT12H"},
		{note: "negative", input: "-PT90S", kind: MainDayTimeDuration, exp: "-PT1M30S"},
		{note: "zero daytime", input: "PT0S", kind: MainDayTimeDuration, exp: "PT0S"},
		{note: "zero yearmonth", input: "P0Y", kind: MainYearMonthDuration, exp: "P0M"},
		{note: "zero duration", input: "P0D", kind: MainDuration, exp: "PT0S"},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			d, ok := ParseDuration(tc.input)
			if !ok {
				t.Fatalf("expected %q to parse", tc.input)
			}
			if got := FormatDuration(d, tc.kind); got != tc.exp {
				t.Fatalf("expected %q but got %q", tc.exp, got)
			}
		})
	}
}

func TestParseDurationErrors(t *testing.T) {
	for _, s := range []string{"", "P", "PT", "1D", "P1H", "PT1D", "P-1D", "P1.5D"} {
		if _, ok := ParseDuration(s); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

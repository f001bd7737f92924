// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateTime is the value of a date, time or dateTime literal. When HasZone
// is false the value carries no timezone and Time holds the wall clock in
// UTC.
type DateTime struct {
	Time    time.Time
	HasZone bool
}

// MaxTimezoneOffset bounds timezone offsets.
const MaxTimezoneOffset = 14 * time.Hour

var referenceDate = time.Date(1972, time.December, 31, 0, 0, 0, 0, time.UTC)

// Instant returns the point in time denoted by d. A value without timezone
// is interpreted in implicit.
func (d DateTime) Instant(implicit *time.Location) time.Time {
	if d.HasZone {
		return d.Time
	}
	if implicit == nil {
		implicit = time.UTC
	}
	t := d.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), implicit)
}

// Date returns d truncated to midnight, keeping the timezone.
func (d DateTime) Date() DateTime {
	t := d.Time
	return DateTime{
		Time:    time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()),
		HasZone: d.HasZone,
	}
}

// TimeOfDay returns d moved to the reference date, keeping the timezone.
func (d DateTime) TimeOfDay() DateTime {
	t := d.Time
	return DateTime{
		Time: time.Date(referenceDate.Year(), referenceDate.Month(), referenceDate.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()),
		HasZone: d.HasZone,
	}
}

// Zone returns the timezone offset. It is zero when HasZone is false.
func (d DateTime) Zone() time.Duration {
	if !d.HasZone {
		return 0
	}
	_, offset := d.Time.Zone()
	return time.Duration(offset) * time.Second
}

// InZone returns d expressed with the given offset.
func (d DateTime) InZone(offset time.Duration, implicit *time.Location) DateTime {
	return DateTime{
		Time:    d.Instant(implicit).In(FixedZone(offset)),
		HasZone: true,
	}
}

// FixedZone returns the location of an offset from UTC.
func FixedZone(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone(FormatZone(offset), int(offset/time.Second))
}

var (
	dateTimeRegexp = regexp.MustCompile(`^(-?[0-9]{4,})-([0-9]{2})-([0-9]{2})T([0-9]{2}):([0-9]{2}):([0-9]{2})(\.[0-9]+)?(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	dateRegexp     = regexp.MustCompile(`^(-?[0-9]{4,})-([0-9]{2})-([0-9]{2})(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	timeRegexp     = regexp.MustCompile(`^([0-9]{2}):([0-9]{2}):([0-9]{2})(\.[0-9]+)?(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	durationRegexp = regexp.MustCompile(`^(-)?P(?:([0-9]+)Y)?(?:([0-9]+)M)?(?:([0-9]+)D)?(?:T(?:([0-9]+)H)?(?:([0-9]+)M)?(?:([0-9]+(?:\.[0-9]+)?)S)?)?$`)
)

// ParseDateTime parses the xsd:dateTime lexical space.
func ParseDateTime(s string) (DateTime, bool) {
	m := dateTimeRegexp.FindStringSubmatch(collapse(s))
	if m == nil {
		return DateTime{}, false
	}
	return buildDateTime(m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
}

// ParseDate parses the xsd:date lexical space.
func ParseDate(s string) (DateTime, bool) {
	m := dateRegexp.FindStringSubmatch(collapse(s))
	if m == nil {
		return DateTime{}, false
	}
	return buildDateTime(m[1], m[2], m[3], "00", "00", "00", "", m[4])
}

// ParseTime parses the xsd:time lexical space.
func ParseTime(s string) (DateTime, bool) {
	m := timeRegexp.FindStringSubmatch(collapse(s))
	if m == nil {
		return DateTime{}, false
	}
	d, ok := buildDateTime("1972", "12", "31", m[1], m[2], m[3], m[4], m[5])
	if !ok {
		return d, false
	}
	// 24:00:00 is midnight of the same reference day.
	return d.TimeOfDay(), true
}

func buildDateTime(year, month, day, hour, minute, second, frac, zone string) (DateTime, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return DateTime{}, false
	}
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	h, _ := strconv.Atoi(hour)
	mi, _ := strconv.Atoi(minute)
	sec, _ := strconv.Atoi(second)
	if mo < 1 || mo > 12 || d < 1 || d > daysIn(time.Month(mo), y) || mi > 59 || sec > 59 {
		return DateTime{}, false
	}
	if h > 24 || (h == 24 && (mi != 0 || sec != 0 || strings.Trim(frac, ".0") != "")) {
		return DateTime{}, false
	}
	var ns int
	if frac != "" {
		digits := frac[1:]
		if len(digits) > 9 {
			digits = digits[:9]
		}
		digits += strings.Repeat("0", 9-len(digits))
		ns, _ = strconv.Atoi(digits)
	}
	loc := time.UTC
	hasZone := zone != ""
	if hasZone {
		offset, ok := ParseZone(zone)
		if !ok {
			return DateTime{}, false
		}
		loc = FixedZone(offset)
	}
	// time.Date normalises hour 24 to the next day.
	return DateTime{Time: time.Date(y, time.Month(mo), d, h, mi, sec, ns, loc), HasZone: hasZone}, true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseZone parses "Z" or "+hh:mm".
func ParseZone(s string) (time.Duration, bool) {
	if s == "Z" {
		return 0, true
	}
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return 0, false
	}
	h, err1 := strconv.Atoi(s[1:3])
	m, err2 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || m > 59 {
		return 0, false
	}
	offset := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	if offset > MaxTimezoneOffset {
		return 0, false
	}
	if s[0] == '-' {
		offset = -offset
	}
	return offset, true
}

// FormatZone renders a timezone offset as "Z" or "+hh:mm".
func FormatZone(offset time.Duration) string {
	if offset == 0 {
		return "Z"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}

func formatYear(y int) string {
	if y < 0 {
		return fmt.Sprintf("-%04d", -y)
	}
	return fmt.Sprintf("%04d", y)
}

func formatClock(t time.Time) string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	if ns := t.Nanosecond(); ns != 0 {
		s += strings.TrimRight(fmt.Sprintf(".%09d", ns), "0")
	}
	return s
}

func formatZoneOf(d DateTime) string {
	if !d.HasZone {
		return ""
	}
	return FormatZone(d.Zone())
}

// FormatDateTime renders the canonical form of a dateTime.
func FormatDateTime(d DateTime) string {
	t := d.Time
	return fmt.Sprintf("%s-%02d-%02dT%s%s", formatYear(t.Year()), int(t.Month()), t.Day(), formatClock(t), formatZoneOf(d))
}

// FormatDate renders the canonical form of a date.
func FormatDate(d DateTime) string {
	t := d.Time
	return fmt.Sprintf("%s-%02d-%02d%s", formatYear(t.Year()), int(t.Month()), t.Day(), formatZoneOf(d))
}

// FormatTime renders the canonical form of a time.
func FormatTime(d DateTime) string {
	return formatClock(d.Time) + formatZoneOf(d)
}

// AddMonths adds months to d. The day of month is clamped to the length of
// the resulting month.
func (d DateTime) AddMonths(months int64) DateTime {
	t := d.Time
	total := int64(t.Year())*12 + int64(t.Month()-1) + months
	y := int(floorDiv(total, 12))
	m := time.Month(total-int64(y)*12) + 1
	day := min(t.Day(), daysIn(m, y))
	return DateTime{
		Time:    time.Date(y, m, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()),
		HasZone: d.HasZone,
	}
}

// Add adds a day-time duration to d.
func (d DateTime) Add(dur time.Duration) DateTime {
	return DateTime{Time: d.Time.Add(dur), HasZone: d.HasZone}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Duration is the value of a duration literal. Both components carry the
// same sign.
type Duration struct {
	Months  int64
	DayTime time.Duration
}

// Negate returns -d.
func (d Duration) Negate() Duration {
	return Duration{Months: -d.Months, DayTime: -d.DayTime}
}

// IsZero reports whether d is empty.
func (d Duration) IsZero() bool {
	return d.Months == 0 && d.DayTime == 0
}

// Seconds returns the day-time component as an exact number of seconds.
func (d Duration) Seconds() *big.Rat {
	return big.NewRat(int64(d.DayTime), int64(time.Second))
}

// ParseDuration parses the xsd:duration lexical space.
func ParseDuration(s string) (Duration, bool) {
	s = collapse(s)
	m := durationRegexp.FindStringSubmatch(s)
	if m == nil || strings.HasSuffix(s, "P") || strings.HasSuffix(s, "T") {
		return Duration{}, false
	}
	num := func(x string) int64 {
		if x == "" {
			return 0
		}
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	d := Duration{
		Months: num(m[2])*12 + num(m[3]),
		DayTime: time.Duration(num(m[4]))*24*time.Hour +
			time.Duration(num(m[5]))*time.Hour +
			time.Duration(num(m[6]))*time.Minute,
	}
	if m[7] != "" {
		secs, ok := new(big.Rat).SetString(m[7])
		if !ok {
			return Duration{}, false
		}
		ns := new(big.Rat).Mul(secs, big.NewRat(int64(time.Second), 1))
		d.DayTime += time.Duration(new(big.Int).Quo(ns.Num(), ns.Denom()).Int64())
	}
	if m[1] == "-" {
		d = d.Negate()
	}
	return d, true
}

// ParseDayTimeDuration parses the xsd:dayTimeDuration lexical space.
func ParseDayTimeDuration(s string) (Duration, bool) {
	d, ok := ParseDuration(s)
	if !ok || strings.ContainsAny(strings.SplitN(collapse(s), "T", 2)[0], "YM") {
		return Duration{}, false
	}
	return d, true
}

// ParseYearMonthDuration parses the xsd:yearMonthDuration lexical space.
func ParseYearMonthDuration(s string) (Duration, bool) {
	d, ok := ParseDuration(s)
	if !ok || strings.ContainsAny(collapse(s), "DTHS") {
		return Duration{}, false
	}
	return d, true
}

// FormatDuration renders the canonical form of a duration of the given kind.
func FormatDuration(d Duration, kind MainType) string {
	var sb strings.Builder
	if d.Months < 0 || d.DayTime < 0 {
		sb.WriteByte('-')
		d = d.Negate()
	}
	sb.WriteByte('P')

	years, months := d.Months/12, d.Months%12
	if years != 0 {
		fmt.Fprintf(&sb, "%dY", years)
	}
	if months != 0 {
		fmt.Fprintf(&sb, "%dM", months)
	}

	if kind == MainYearMonthDuration {
		if d.Months == 0 {
			sb.WriteString("0M")
		}
		return sb.String()
	}

	dt := d.DayTime
	days := dt / (24 * time.Hour)
	dt -= days * 24 * time.Hour
	hours := dt / time.Hour
	dt -= hours * time.Hour
	minutes := dt / time.Minute
	dt -= minutes * time.Minute

	if days != 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}
	if hours != 0 || minutes != 0 || dt != 0 {
		sb.WriteByte('T')
		if hours != 0 {
			fmt.Fprintf(&sb, "%dH", hours)
		}
		if minutes != 0 {
			fmt.Fprintf(&sb, "%dM", minutes)
		}
		if dt != 0 {
			secs := fmt.Sprintf("%d.%09d", dt/time.Second, dt%time.Second)
			secs = strings.TrimSuffix(strings.TrimRight(secs, "0"), ".")
			sb.WriteString(secs)
			sb.WriteByte('S')
		}
	}
	if d.IsZero() {
		sb.WriteString("T0S")
	}
	return sb.String()
}

// DurationFromZone returns the dayTimeDuration of a timezone offset.
func DurationFromZone(offset time.Duration) Duration {
	return Duration{DayTime: offset}
}

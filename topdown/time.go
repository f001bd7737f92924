// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"math/big"
	"time"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

func builtinNow(bctx *BuiltinContext, _ []ast.Term) (ast.Term, error) {
	return ast.NewDateTime(ast.DateTime{Time: bctx.Now, HasZone: true}), nil
}

func component(get func(time.Time) int) func(*BuiltinContext, ast.DateTime) (ast.Term, error) {
	return func(_ *BuiltinContext, v ast.DateTime) (ast.Term, error) {
		return ast.NewInteger(int64(get(v.Time))), nil
	}
}

func year(t time.Time) int   { return t.Year() }
func month(t time.Time) int  { return int(t.Month()) }
func day(t time.Time) int    { return t.Day() }
func hour(t time.Time) int   { return t.Hour() }
func minute(t time.Time) int { return t.Minute() }

func builtinSeconds(_ *BuiltinContext, v ast.DateTime) (ast.Term, error) {
	t := v.Time
	nanos := int64(t.Second())*int64(time.Second) + int64(t.Nanosecond())
	return ast.NewDecimal(big.NewRat(nanos, int64(time.Second))), nil
}

func builtinTimezone(_ *BuiltinContext, v ast.DateTime) (ast.Term, error) {
	if !v.HasZone {
		return nil, expressionErr("value has no timezone")
	}
	return ast.NewDayTimeDuration(ast.DurationFromZone(v.Zone())), nil
}

func builtinTZ(_ *BuiltinContext, v ast.DateTime) (ast.Term, error) {
	if !v.HasZone {
		return ast.NewString(""), nil
	}
	return ast.NewString(ast.FormatZone(v.Zone())), nil
}

// adjust places v in the timezone offset. A value without timezone keeps
// its wall clock; a value with one keeps its instant.
func adjust(v ast.DateTime, offset time.Duration) (ast.DateTime, error) {
	if offset%time.Minute != 0 || offset > ast.MaxTimezoneOffset || offset < -ast.MaxTimezoneOffset {
		return ast.DateTime{}, expressionErr("invalid timezone offset %v", offset)
	}
	if v.HasZone {
		return v.InZone(offset, nil), nil
	}
	t := v.Time
	return ast.DateTime{
		Time:    time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), ast.FixedZone(offset)),
		HasZone: true,
	}, nil
}

func builtinAdjust(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
	offset := bctx.implicitOffset()
	if len(args) == 2 {
		d := durationValue(args[1])
		offset = d.DayTime
	}
	v, _ := temporalValue(args[0])
	adjusted, err := adjust(v, offset)
	if err != nil {
		return nil, err
	}
	switch args[0].(type) {
	case *ast.DateLiteral:
		return ast.NewDate(adjusted.Date()), nil
	case *ast.TimeLiteral:
		return ast.NewTime(adjusted.TimeOfDay()), nil
	}
	return ast.NewDateTime(adjusted), nil
}

func init() {
	dateTime, date, tm := types.XSDDateTime, types.XSDDate, types.XSDTime

	RegisterOperator(declare(ast.Now).set(nil, builtinNow).collect())
	RegisterOperator(declare(ast.Year).onTemporal1(component(year), dateTime, date).collect())
	RegisterOperator(declare(ast.Month).onTemporal1(component(month), dateTime, date).collect())
	RegisterOperator(declare(ast.Day).onTemporal1(component(day), dateTime, date).collect())
	RegisterOperator(declare(ast.Hours).onTemporal1(component(hour), dateTime, tm).collect())
	RegisterOperator(declare(ast.Minutes).onTemporal1(component(minute), dateTime, tm).collect())
	RegisterOperator(declare(ast.Seconds).onTemporal1(builtinSeconds, dateTime, tm).collect())
	RegisterOperator(declare(ast.Timezone).onTemporal1(builtinTimezone, dateTime, date, tm).collect())
	RegisterOperator(declare(ast.TZ).onTemporal1(builtinTZ, dateTime, date, tm).collect())

	adj := declare(ast.Adjust)
	for _, dt := range []string{dateTime, date, tm} {
		adj.set([]string{dt}, builtinAdjust)
		adj.set([]string{dt, types.XSDDayTimeDuration}, builtinAdjust)
	}
	RegisterOperator(adj.collect())
}

// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"errors"
	"regexp/syntax"
	"testing"
)

func TestErrorWrap(t *testing.T) {
	cause := errors.New("boom")
	err := error((&Error{Code: ExpressionErr, Message: "failed"}).Wrap(cause))

	if !errors.Is(err, cause) {
		t.Fatalf("expected %v to wrap %v", err, cause)
	}
	if !errors.Is(err, &Error{Code: ExpressionErr}) || errors.Is(err, &Error{Code: TypeErr}) {
		t.Fatalf("unexpected code match for %v", err)
	}
	if err.Error() != "eval_expression_error: failed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestErrorWrapsCause(t *testing.T) {
	wrapsSyntaxError := func(err error) bool {
		var se *syntax.Error
		return IsExpressionError(err) && errors.As(err, &se)
	}
	runEvalCases(t, Config{}, []evalCase{
		{note: "invalid pattern", expr: op("regex", term(`"abc"`), term(`"("`)), wantErr: wrapsSyntaxError},
		{note: "invalid replace pattern", expr: op("replace", term(`"abc"`), term(`"[a"`), term(`"x"`)), wantErr: wrapsSyntaxError},
	})
}

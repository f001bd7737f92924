// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/open-policy-agent/rdfexpr/ast"
)

// Error is the error type returned when an expression cannot be evaluated.
// Errors fail the current expression only; the caller decides whether that
// drops the row.
type Error struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	IRI     string  `json:"iri,omitempty"`
	Errors  []error `json:"-"`
	cause   error
}

const (

	// TypeErr indicates no implementation of an operator accepts the runtime
	// types of its arguments. Applying an operator to a literal with an
	// invalid lexical form is a type error too.
	TypeErr string = "eval_type_error"

	// CastErr indicates a constructor function could not convert its
	// argument to the target datatype.
	CastErr string = "eval_cast_error"

	// ArityErr indicates a functional form was given an unsupported number
	// of arguments. It is raised when the expression is compiled.
	ArityErr string = "eval_arity_error"

	// UnboundVariableErr indicates a variable referenced by the expression
	// has no value in the binding.
	UnboundVariableErr string = "eval_unbound_variable_error"

	// EBVCoercionErr indicates a term has no effective boolean value.
	EBVCoercionErr string = "eval_ebv_coercion_error"

	// CoalesceErr indicates every argument of COALESCE failed. The individual
	// failures are available through Errors.
	CoalesceErr string = "eval_coalesce_error"

	// InErr indicates an IN or NOT IN test found no match while at least one
	// comparison failed.
	InErr string = "eval_in_error"

	// ExtensionFunctionErr wraps a failure raised by a caller supplied
	// function. IRI identifies the function.
	ExtensionFunctionErr string = "eval_extension_function_error"

	// UnknownOperatorErr indicates an expression references an operator or
	// function that is not registered.
	UnknownOperatorErr string = "eval_unknown_operator_error"

	// ExpressionErr indicates an operator rejected its argument values, for
	// example an integer division by zero or an invalid regular expression.
	ExpressionErr string = "eval_expression_error"

	// UnsupportedErr indicates the expression needs a hook the caller did
	// not configure.
	UnsupportedErr string = "eval_unsupported_error"
)

// IsError returns true if the err is an Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v: %v", e.Code, e.Message)
	if e.IRI != "" {
		msg += " (" + e.IRI + ")"
	}
	return msg
}

// Unwrap returns the wrapped cause and the aggregated errors, if any.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return e.Errors
	}
	return append([]error{e.cause}, e.Errors...)
}

// Wrap records err as the cause of e and returns e.
func (e *Error) Wrap(err error) *Error {
	e.cause = err
	return e
}

// Is matches errors with the same code, so errors.Is(err, &Error{Code: c})
// tests the error kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Code == e.Code
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsTypeError returns true if err is a TypeErr.
func IsTypeError(err error) bool { return hasCode(err, TypeErr) }

// IsCastError returns true if err is a CastErr.
func IsCastError(err error) bool { return hasCode(err, CastErr) }

// IsArityError returns true if err is an ArityErr.
func IsArityError(err error) bool { return hasCode(err, ArityErr) }

// IsUnboundVariableError returns true if err is an UnboundVariableErr.
func IsUnboundVariableError(err error) bool { return hasCode(err, UnboundVariableErr) }

// IsEBVCoercionError returns true if err is an EBVCoercionErr.
func IsEBVCoercionError(err error) bool { return hasCode(err, EBVCoercionErr) }

// IsCoalesceError returns true if err is a CoalesceErr.
func IsCoalesceError(err error) bool { return hasCode(err, CoalesceErr) }

// IsInError returns true if err is an InErr.
func IsInError(err error) bool { return hasCode(err, InErr) }

// IsExtensionFunctionError returns true if err is an ExtensionFunctionErr.
func IsExtensionFunctionError(err error) bool { return hasCode(err, ExtensionFunctionErr) }

// IsUnknownOperatorError returns true if err is an UnknownOperatorErr.
func IsUnknownOperatorError(err error) bool { return hasCode(err, UnknownOperatorErr) }

// IsExpressionError returns true if err is an ExpressionErr.
func IsExpressionError(err error) bool { return hasCode(err, ExpressionErr) }

func termList(args []ast.Term) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func invalidArgumentTypesErr(op string, args []ast.Term) error {
	return &Error{
		Code:    TypeErr,
		Message: fmt.Sprintf("%v: argument types not valid: (%v)", op, termList(args)),
	}
}

func invalidLexicalFormErr(lit ast.Literal) error {
	return &Error{
		Code:    TypeErr,
		Message: fmt.Sprintf("invalid lexical form %q for datatype %v", lit.Str(), lit.DataType()),
	}
}

func incompatibleLanguagesErr(op string, a, b ast.Literal) error {
	return &Error{
		Code:    TypeErr,
		Message: fmt.Sprintf("%v: incompatible language tags %q and %q", op, a.Language(), b.Language()),
	}
}

func rdfEqualTypeErr(a, b ast.Term) error {
	return &Error{
		Code:    TypeErr,
		Message: fmt.Sprintf("equality of literals %v and %v is undefined", a, b),
	}
}

func castErr(arg ast.Term, target string) error {
	return &Error{
		Code:    CastErr,
		Message: fmt.Sprintf("cannot cast %v to %v", arg, target),
	}
}

func arityErr(op string, got int, expected string) error {
	return &Error{
		Code:    ArityErr,
		Message: fmt.Sprintf("%v: expected %v arguments but got %d", op, expected, got),
	}
}

func unboundVariableErr(name string) error {
	return &Error{
		Code:    UnboundVariableErr,
		Message: fmt.Sprintf("variable ?%v is unbound", name),
	}
}

func ebvCoercionErr(t ast.Term) error {
	return &Error{
		Code:    EBVCoercionErr,
		Message: fmt.Sprintf("cannot coerce %v to a boolean", t),
	}
}

func coalesceErr(errs []error) error {
	return &Error{
		Code:    CoalesceErr,
		Message: fmt.Sprintf("all %d COALESCE arguments failed", len(errs)),
		Errors:  errs,
	}
}

func inErr(errs []error) error {
	return &Error{
		Code:    InErr,
		Message: fmt.Sprintf("no match found and %d comparisons failed", len(errs)),
		Errors:  errs,
	}
}

func extensionFunctionErr(iri string, cause error) error {
	e := &Error{
		Code:    ExtensionFunctionErr,
		Message: cause.Error(),
		IRI:     iri,
	}
	return e.Wrap(cause)
}

func unknownOperatorErr(name string, suggestions []string) error {
	msg := fmt.Sprintf("unknown operator %v", name)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf(" (hint: did you mean %v?)", strings.Join(suggestions, " or "))
	}
	return &Error{
		Code:    UnknownOperatorErr,
		Message: msg,
	}
}

func expressionErr(f string, a ...any) *Error {
	return &Error{
		Code:    ExpressionErr,
		Message: fmt.Sprintf(f, a...),
	}
}

func unsupportedErr(f string, a ...any) error {
	return &Error{
		Code:    UnsupportedErr,
		Message: fmt.Sprintf(f, a...),
	}
}

// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/internal/uuid"
)

// hashString returns the lowercase hex digest of a simple string.
func hashString(h func() hash.Hash) func(*BuiltinContext, string) (ast.Term, error) {
	return func(_ *BuiltinContext, s string) (ast.Term, error) {
		d := h()
		d.Write([]byte(s))
		return ast.NewString(hex.EncodeToString(d.Sum(nil))), nil
	}
}

func builtinUUID(*BuiltinContext, []ast.Term) (ast.Term, error) {
	iri, err := uuid.NewURN(rand.Reader)
	if err != nil {
		return nil, expressionErr("uuid: %v", err)
	}
	return ast.NewNamedNode(iri), nil
}

func builtinStrUUID(*BuiltinContext, []ast.Term) (ast.Term, error) {
	id, err := uuid.New(rand.Reader)
	if err != nil {
		return nil, expressionErr("uuid: %v", err)
	}
	return ast.NewString(id), nil
}

func init() {
	RegisterOperator(declare(ast.MD5).onString1(hashString(md5.New)).collect())
	RegisterOperator(declare(ast.SHA1).onString1(hashString(sha1.New)).collect())
	RegisterOperator(declare(ast.SHA256).onString1(hashString(sha256.New)).collect())
	RegisterOperator(declare(ast.SHA384).onString1(hashString(sha512.New384)).collect())
	RegisterOperator(declare(ast.SHA512).onString1(hashString(sha512.New)).collect())

	RegisterOperator(declare(ast.UUID).set(nil, builtinUUID).collect())
	RegisterOperator(declare(ast.StrUUID).set(nil, builtinStrUUID).collect())
}

// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON parses the JSON encoded data and stores the result in the value
// pointed to by x.
//
// This function is intended to be used in place of the standard json.Marshal
// function when json.Number is required.
func UnmarshalJSON(bs []byte, x any) error {
	buf := bytes.NewBuffer(bs)
	decoder := NewJSONDecoder(buf)
	if err := decoder.Decode(x); err != nil {
		return err
	}

	// Since decoder.Decode validates only the first json structure in bytes,
	// check if decoder has more bytes to consume to validate whole input bytes.
	tok, err := decoder.Token()
	if tok != nil {
		return decodeError(tok)
	}
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

type trailingDataError struct {
	tok json.Token
}

func (e trailingDataError) Error() string {
	return "error(s) occurred while decoding: unexpected token after value: " + tokenString(e.tok)
}

func decodeError(tok json.Token) error {
	return trailingDataError{tok: tok}
}

func tokenString(tok json.Token) string {
	bs, err := json.Marshal(tok)
	if err != nil {
		return "?"
	}
	return string(bs)
}

// NewJSONDecoder returns a new decoder that reads from r.
//
// This function is intended to be used in place of the standard json.NewDecoder
// when json.Number is required.
func NewJSONDecoder(r io.Reader) *json.Decoder {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	return decoder
}

// Unmarshal decodes a YAML or JSON value into the specified type. YAML follows
// the 1.2 core schema, so keys such as y, n, on and off stay strings.
func Unmarshal(bs []byte, v any) error {
	if json.Valid(bs) {
		return UnmarshalJSON(bs, v)
	}
	var doc any
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return err
	}
	doc, err := jsonCompatible(doc)
	if err != nil {
		return err
	}
	bs, err = json.Marshal(doc)
	if err != nil {
		return err
	}
	return UnmarshalJSON(bs, v)
}

// jsonCompatible converts the mappings decoded by yaml into string keyed maps.
func jsonCompatible(x any) (any, error) {
	switch x := x.(type) {
	case map[string]any:
		for k, v := range x {
			c, err := jsonCompatible(v)
			if err != nil {
				return nil, err
			}
			x[k] = c
		}
		return x, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			switch k.(type) {
			case string, bool, int, int64, uint64, float64:
			default:
				return nil, fmt.Errorf("unsupported mapping key %v", k)
			}
			c, err := jsonCompatible(v)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = c
		}
		return out, nil
	case []any:
		for i, v := range x {
			c, err := jsonCompatible(v)
			if err != nil {
				return nil, err
			}
			x[i] = c
		}
		return x, nil
	}
	return x, nil
}

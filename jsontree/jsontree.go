// Copyright 2016 Apcera Inc. All rights reserved.

// Package jsontree parses JSON text into a generic tree of typed nodes.
//
// Unlike encoding/json's map-based decoding, the tree preserves the
// document order of object members and keeps duplicate keys. Both matter
// to the boot configuration interpreter: handler dispatch must visit every
// occurrence of a key, and must do so in the order the document supplies
// them. Input is normalized with jsonc first, so payloads may carry
// comments and trailing commas.
package jsontree

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// Kind is the type tag of a tree node.
type Kind int

const (
	Null Kind = iota
	Bool
	String
	Number
	Array
	Object
)

// String returns the kind name used in schema error messages.
func (k Kind) String() string {
	switch k {
	case Null:
		return "NULL"
	case Bool:
		return "BOOLEAN"
	case String:
		return "STRING"
	case Number:
		return "NUMBER"
	case Array:
		return "ARRAY"
	case Object:
		return "OBJECT"
	}
	return "UNKNOWN"
}

// Value is one node of the parsed document. Name is set only for object
// members. Str holds the string value for String nodes and the literal
// text for Number nodes. Members holds object members or array elements
// in document order.
type Value struct {
	Kind    Kind
	Name    string
	Str     string
	Bool    bool
	Members []*Value
}

// Parse decodes text into a document tree. It returns an error for
// syntactically invalid input or for input that is not a single JSON
// value.
func Parse(text string) (*Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(jsonc.ToJSON([]byte(text)))))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration document: %v", err)
	}
	v, err := parseValue(dec, tok)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration document: %v", err)
	}
	return v, nil
}

func parseValue(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t.String())
	case bool:
		return &Value{Kind: Bool, Bool: t}, nil
	case string:
		return &Value{Kind: String, Str: t}, nil
	case json.Number:
		return &Value{Kind: Number, Str: t.String()}, nil
	case nil:
		return &Value{Kind: Null}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder) (*Value, error) {
	obj := &Value{Kind: Object}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		member, err := parseValue(dec, valTok)
		if err != nil {
			return nil, err
		}
		member.Name = key
		obj.Members = append(obj.Members, member)
	}
	// consume the closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) (*Value, error) {
	arr := &Value{Kind: Array}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		elem, err := parseValue(dec, tok)
		if err != nil {
			return nil, err
		}
		arr.Members = append(arr.Members, elem)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

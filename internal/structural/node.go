package structural

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind identifies a node variant. KindAny is only meaningful inside a
// Signature; nodes never report it.
type Kind int

const (
	KindAny Kind = iota
	KindObject
	KindArray
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	default:
		return "any"
	}
}

// Node is one of *Object, Array, or Scalar.
type Node interface {
	Kind() Kind
	json.Marshaler
}

// Object is a JSON object whose key order follows the source document.
type Object struct {
	keys   []string
	fields map[string]Node
}

// Array is a JSON array.
type Array []Node

// Scalar wraps a string, json.Number, bool, or nil.
type Scalar struct {
	Value any
}

func (*Object) Kind() Kind { return KindObject }
func (Array) Kind() Kind   { return KindArray }
func (Scalar) Kind() Kind  { return KindScalar }

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Node)}
}

// Set stores value under key, appending the key if it is new.
func (o *Object) Set(key string, value Node) {
	if o.fields == nil {
		o.fields = make(map[string]Node)
	}
	if _, exists := o.fields[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Node, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Keys returns the object keys in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len reports the number of fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// String returns the scalar string value under key.
func (o *Object) String(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	return AsString(v)
}

// AsObject narrows n to an object.
func AsObject(n Node) (*Object, bool) {
	o, ok := n.(*Object)
	return o, ok && o != nil
}

// AsArray narrows n to an array.
func AsArray(n Node) (Array, bool) {
	a, ok := n.(Array)
	return a, ok
}

// AsString narrows n to a string scalar.
func AsString(n Node) (string, bool) {
	s, ok := n.(Scalar)
	if !ok {
		return "", false
	}
	str, ok := s.Value.(string)
	return str, ok
}

// AsFloat narrows n to a numeric scalar.
func AsFloat(n Node) (float64, bool) {
	s, ok := n.(Scalar)
	if !ok {
		return 0, false
	}
	switch v := s.Value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// AsInt narrows n to an integral numeric scalar.
func AsInt(n Node) (int, bool) {
	s, ok := n.(Scalar)
	if !ok {
		return 0, false
	}
	switch v := s.Value.(type) {
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	case int:
		return v, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

// FromJSON decodes raw into a node tree, keeping object key order and
// leaving numbers as json.Number.
func FromJSON(raw []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	node, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("structural: trailing data after document")
	}
	return node, nil
}

func decodeNode(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("structural: read token: %w", err)
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("structural: read key: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("structural: unexpected key token %v", keyTok)
				}
				value, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("structural: close object: %w", err)
			}
			return obj, nil
		case '[':
			arr := Array{}
			for dec.More() {
				value, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("structural: close array: %w", err)
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("structural: unexpected delimiter %q", v)
		}
	default:
		return Scalar{Value: v}, nil
	}
}

// MarshalJSON writes the object with its original key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := encodeScalar(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := marshalNode(o.fields[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		v, err := marshalNode(item)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return encodeScalar(s.Value)
}

// encodeScalar is json.Marshal without HTML escaping, so "<", ">" and "&"
// inside extracted text survive verbatim.
func encodeScalar(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalNode(n Node) ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return n.MarshalJSON()
}

// MarshalIndent serialises n with the given indent, keeping non-ASCII text
// and HTML characters unescaped.
func MarshalIndent(n Node, indent string) ([]byte, error) {
	raw, err := marshalNode(n)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Clone returns a deep copy of n so extracted subtrees do not alias the
// source document.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Object:
		if v == nil {
			return nil
		}
		out := &Object{keys: make([]string, len(v.keys)), fields: make(map[string]Node, len(v.fields))}
		copy(out.keys, v.keys)
		for k, child := range v.fields {
			out.fields[k] = Clone(child)
		}
		return out
	case Array:
		out := make(Array, len(v))
		for i, child := range v {
			out[i] = Clone(child)
		}
		return out
	case Scalar:
		return v
	default:
		return nil
	}
}

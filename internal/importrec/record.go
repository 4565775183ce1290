package importrec

import (
	"bundlepull/internal/services"
	"bundlepull/internal/structural"
)

// Encoding identifies which shape a record was stored in.
type Encoding int

const (
	Positional Encoding = iota
	Keyed
)

func (e Encoding) String() string {
	if e == Keyed {
		return "keyed"
	}
	return "positional"
}

const (
	positionalMinLen   = 6
	positionalTypeDefs = 3
	positionalInstance = 5
	nativeField        = "_native"
	typeField          = "__type__"
)

// Record is a decoded import record.
type Record struct {
	encoding Encoding
	doc      structural.Node
	typeName string
	native   string
}

// Parse decodes raw and classifies it. Documents that are neither an array
// nor an object fail with ErrDecodeFailure; arrays and objects that do not
// carry the expected fields still parse and simply report no type.
func Parse(raw []byte) (*Record, error) {
	doc, err := structural.FromJSON(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrDecodeFailure, "import", "parse", "invalid JSON", err)
	}
	rec := &Record{doc: doc}
	switch n := doc.(type) {
	case structural.Array:
		rec.encoding = Positional
		rec.typeName, rec.native = positionalFields(n)
	case *structural.Object:
		rec.encoding = Keyed
		rec.typeName, _ = n.String(typeField)
		rec.native, _ = n.String(nativeField)
	default:
		return nil, services.Wrap(services.ErrDecodeFailure, "import", "parse", "top-level value is neither array nor object", nil)
	}
	return rec, nil
}

// positionalFields reads typeDefs[0] = [typeName, fieldNames] and aligns
// instances[0] against fieldNames. Slot zero of an instance holds the class
// id, so field i lives at instance[i+1].
func positionalFields(doc structural.Array) (string, string) {
	if len(doc) < positionalMinLen {
		return "", ""
	}
	typeDefs, ok := structural.AsArray(doc[positionalTypeDefs])
	if !ok || len(typeDefs) == 0 {
		return "", ""
	}
	def, ok := structural.AsArray(typeDefs[0])
	if !ok || len(def) == 0 {
		return "", ""
	}
	typeName, _ := structural.AsString(def[0])
	if len(def) < 2 {
		return typeName, ""
	}
	fields, ok := structural.AsArray(def[1])
	if !ok {
		return typeName, ""
	}
	instances, ok := structural.AsArray(doc[positionalInstance])
	if !ok || len(instances) == 0 {
		return typeName, ""
	}
	values, ok := structural.AsArray(instances[0])
	if !ok {
		return typeName, ""
	}
	for i, field := range fields {
		name, ok := structural.AsString(field)
		if !ok || name != nativeField {
			continue
		}
		if i+1 >= len(values) {
			return typeName, ""
		}
		native, _ := structural.AsString(values[i+1])
		return typeName, native
	}
	return typeName, ""
}

// Encoding reports the shape the record was stored in.
func (r *Record) Encoding() Encoding { return r.encoding }

// TypeAndNative returns the resource type name and raw native hint. ok is
// false when the record carries neither.
func (r *Record) TypeAndNative() (typeName string, native string, ok bool) {
	if r == nil {
		return "", "", false
	}
	return r.typeName, r.native, r.typeName != "" || r.native != ""
}

// NativeHint returns the native extension normalised to start with '.', or
// "" when the record has none.
func (r *Record) NativeHint() string {
	if r == nil || r.native == "" {
		return ""
	}
	if r.native[0] == '.' {
		return r.native
	}
	return "." + r.native
}

// Document exposes the decoded tree for structural extraction.
func (r *Record) Document() structural.Node {
	if r == nil {
		return nil
	}
	return r.doc
}

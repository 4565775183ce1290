package structural

// KeySpec requires an object key, optionally constraining the kind of value
// stored under it.
type KeySpec struct {
	Name string
	Kind Kind
}

// Signature is the set of keys that must co-occur on a single object node.
type Signature struct {
	Name string
	Keys []KeySpec
}

// Keys builds a signature that only checks key presence.
func Keys(name string, keys ...string) Signature {
	specs := make([]KeySpec, len(keys))
	for i, k := range keys {
		specs[i] = KeySpec{Name: k, Kind: KindAny}
	}
	return Signature{Name: name, Keys: specs}
}

var (
	// SkeletonSignature matches exported skeleton documents.
	SkeletonSignature = Signature{
		Name: "skeleton",
		Keys: []KeySpec{{Name: "skeleton", Kind: KindObject}, {Name: "bones", Kind: KindArray}},
	}
	// AnimationSignature matches still-image keyframe animation tables.
	AnimationSignature = Signature{
		Name: "animation",
		Keys: []KeySpec{{Name: "stillPathList", Kind: KindArray}, {Name: "animation", Kind: KindObject}},
	}
)

// Matches reports whether n is an object carrying every key in the
// signature with a value of the required kind. An empty signature matches
// nothing.
func (s Signature) Matches(n Node) bool {
	obj, ok := AsObject(n)
	if !ok || len(s.Keys) == 0 {
		return false
	}
	for _, want := range s.Keys {
		value, ok := obj.Get(want.Name)
		if !ok {
			return false
		}
		if want.Kind != KindAny && (value == nil || value.Kind() != want.Kind) {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants depth-first in pre-order. Object field
// values are visited in document order, array elements by index. Returning
// false from visit stops the walk.
func Walk(n Node, visit func(Node) bool) {
	walk(n, visit)
}

func walk(n Node, visit func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	switch v := n.(type) {
	case *Object:
		for _, key := range v.keys {
			if !walk(v.fields[key], visit) {
				return false
			}
		}
	case Array:
		for _, item := range v {
			if !walk(item, visit) {
				return false
			}
		}
	}
	return true
}

// Find returns the first node in pre-order that satisfies sig.
func Find(root Node, sig Signature) (Node, bool) {
	var found Node
	Walk(root, func(n Node) bool {
		if sig.Matches(n) {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// FindAll returns every node satisfying sig in pre-order. Matches nested
// inside an earlier match are included.
func FindAll(root Node, sig Signature) []Node {
	var out []Node
	Walk(root, func(n Node) bool {
		if sig.Matches(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

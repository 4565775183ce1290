// Package structural models decoded JSON documents as a three-variant tree
// (Object, Array, Scalar) and locates subtrees by declarative key signatures.
//
// Import documents embed payloads such as skeleton data or keyframe animation
// tables at positions that differ from file to file. Instead of hard-coding
// index paths, callers describe the keys a payload object must carry (and,
// optionally, what kind of value each key holds) and let Find walk the tree.
// Object key order is preserved from the source so traversal and
// re-serialisation are deterministic.
package structural

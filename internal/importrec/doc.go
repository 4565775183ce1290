// Package importrec reads per-asset import records.
//
// An import record is either a positional document (a top-level array whose
// fourth element lists class definitions and sixth element lists instances)
// or a keyed document (a top-level object with __type__ and _native). Parse
// settles which encoding a document uses once; callers ask the Record for
// the resource type name and native extension hint without caring which
// shape produced them.
//
// Resolver locates records in a local mirror first and falls back to the
// remote deployment, trying the canonical file name before the compact one.
package importrec

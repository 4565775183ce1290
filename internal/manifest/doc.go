// Package manifest decodes per-bundle manifest documents into typed tables.
//
// A manifest lists compact asset identifiers by index, a path table mapping
// index strings to display names and type indices, the type-name table, and
// two flat version arrays ("import" and "native") of alternating index and
// hash-token entries. Parse validates only the presence of those top-level
// sections; everything below them is decoded leniently, dropping entries that
// do not line up rather than failing the bundle.
package manifest

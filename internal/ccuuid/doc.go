// Package ccuuid expands the compressed asset identifiers found in bundle
// manifests into their canonical hyphenated form.
//
// Compact identifiers keep the first two hex characters verbatim and pack the
// remaining fifteen bytes as URL-safe base64. An optional leading underscore
// and an optional "@suffix" (sub-asset selector) are tolerated; the suffix is
// carried through unchanged. Decode never fails: anything it cannot expand is
// returned as-is so callers can keep using the raw identifier as a path key.
package ccuuid

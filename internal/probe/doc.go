// Package probe decides which file extensions to try for a native asset and
// downloads the first one the server actually has.
//
// Candidates come from the resource type recorded in the manifest, the
// native hint found in the import record, and a fixed list of common
// extensions. A 404 means "try the next extension"; other failures retry the
// same extension a bounded number of times before moving on.
package probe

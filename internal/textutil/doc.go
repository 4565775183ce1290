// Package textutil turns manifest display names into safe relative paths.
//
// Names are NFC-normalized so the same asset maps to the same file on every
// platform, path segments that would escape the output root are rejected,
// and characters most filesystems refuse are replaced.
package textutil

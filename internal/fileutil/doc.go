// Package fileutil holds small filesystem helpers shared by the download
// stages.
package fileutil

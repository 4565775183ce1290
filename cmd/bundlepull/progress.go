package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"bundlepull/internal/pipeline"
)

// progressView draws one bar per stage and bundle on an interactive
// terminal. A nil view draws nothing.
type progressView struct {
	w   io.Writer
	key string
	bar *progressbar.ProgressBar
}

func newProgressView(w io.Writer) *progressView {
	if !isTerminal(w) {
		return nil
	}
	return &progressView{w: w}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (v *progressView) update(p pipeline.Progress) {
	if v == nil {
		return
	}
	key := p.Stage + "/" + p.Bundle
	if key != v.key || v.bar == nil {
		v.finish()
		description := p.Stage
		if p.Bundle != "" {
			description += " " + p.Bundle
		}
		v.key = key
		v.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetWriter(v.w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = v.bar.Set(p.Done)
}

func (v *progressView) finish() {
	if v == nil || v.bar == nil {
		return
	}
	_ = v.bar.Finish()
	v.bar = nil
}

func (v *progressView) callback() pipeline.ProgressFunc {
	if v == nil {
		return nil
	}
	return v.update
}

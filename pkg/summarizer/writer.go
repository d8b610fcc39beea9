package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/mcapvideo/pkg/ports"
)

// Writer saves summaries through a ports.FileSystem.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

// NewWriter creates a Writer. formatter renders every path except those
// ending in .json, which always get JSONFormatter.
func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{formatter: formatter, fs: fs}
}

// FormatterFor returns the formatter Write uses for path.
func (w *Writer) FormatterFor(path string) Formatter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONFormatter{}
	}
	return w.formatter
}

// Write renders summary and saves it to path, creating missing parent
// directories first.
func (w *Writer) Write(path string, summary *Summary) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := w.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create summary directory %s: %w", dir, err)
		}
	}

	content := w.FormatterFor(path).Format(summary)
	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

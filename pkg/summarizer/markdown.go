package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// logTimeFormat renders message log times.
const logTimeFormat = "2006-01-02 15:04:05.000 MST"

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Conversion Summary"))

	f.section(&b, t("Source"), [][2]string{
		{t("MCAP File"), s.Source.Path},
		{t("Topic"), s.Source.Topic},
	})

	msgs := s.Messages
	f.section(&b, t("Messages"), [][2]string{
		{t("Messages Read"), fmt.Sprintf("%d", msgs.Seen)},
		{t("Skipped"), fmt.Sprintf("%d", msgs.Skipped)},
		{t("Fallback Conversions"), fmt.Sprintf("%d", msgs.FellBack)},
		{t("First Log Time"), f.logTime(msgs.Seen, msgs.FirstLogTimeNs)},
		{t("Last Log Time"), f.logTime(msgs.Seen, msgs.LastLogTimeNs)},
		{t("Duration"), fmt.Sprintf("%.2f s", msgs.DurationSec)},
		{t("Detected FPS"), f.fps(msgs.DetectedFPS)},
	})

	set := s.Settings
	f.section(&b, t("Settings"), [][2]string{
		{t("Encoding"), set.Encoding},
		{t("Codec"), set.Codec},
		{t("FPS"), fmt.Sprintf("%g", set.FPS)},
		{t("Quality (CRF)"), f.orDefault(set.Quality, "%d")},
		{t("Bitrate"), f.orDefault(set.Bitrate, "%d kbps")},
		{t("Remux"), set.Remux},
		{t("Timestamp Overlay"), f.yesNo(set.Overlay)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Video"))
	if s.Video.FrameCount == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No video created."))
	} else {
		v := s.Video
		f.table(&b, [][2]string{
			{t("Output"), v.Path},
			{t("Mode"), t(v.Mode)},
			{t("Codec"), v.Codec},
			{t("Frames"), fmt.Sprintf("%d", v.FrameCount)},
			{t("Resolution"), fmt.Sprintf("%dx%d", v.Width, v.Height)},
			{t("File Size"), formatBytes(v.FileSize)},
		})
	}

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer = fmt.Sprintf("mcapvideo %s / %s", f.version, footer)
	}
	if s.RunID != "" {
		footer += fmt.Sprintf(" (%s %s)", t("Run ID"), s.RunID)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	f.table(b, rows)
}

func (f *MarkdownFormatter) table(b *strings.Builder, rows [][2]string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], escapeCell(row[1]))
	}
	b.WriteString("\n")
}

func (f *MarkdownFormatter) logTime(seen int, ns uint64) string {
	if seen == 0 {
		return f.translate("N/A")
	}
	return time.Unix(0, int64(ns)).UTC().Format(logTimeFormat)
}

func (f *MarkdownFormatter) fps(v float64) string {
	if v <= 0 {
		return f.translate("N/A")
	}
	return fmt.Sprintf("%.2f", v)
}

func (f *MarkdownFormatter) orDefault(v int, format string) string {
	if v <= 0 {
		return f.translate("Default")
	}
	return fmt.Sprintf(format, v)
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.translate("Yes")
	}
	return f.translate("No")
}

// escapeCell keeps pipe characters in paths from breaking the table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// formatBytes formats a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)

package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Render draws the DSR for d as a PDF onto w.
func Render(w io.Writer, d Day) error {
	pdf := build(d)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteFile renders the DSR for d into dir and returns the file path.
func WriteFile(dir string, d Day) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	path := filepath.Join(dir, FileName(d.User, d.Date))

	pdf := build(d)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	slog.Info("report written", "path", path, "user", d.User, "date", d.Date)
	return path, nil
}

// DefaultDir is ~/Downloads when it exists, otherwise the working directory.
func DefaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		downloads := filepath.Join(home, "Downloads")
		if info, err := os.Stat(downloads); err == nil && info.IsDir() {
			return downloads
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func build(d Day) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Daily Sales Report "+d.Date, true)
	pdf.SetAuthor(d.User, true)
	pdf.SetCreator("dsr-ledger", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range Layout(d) {
		pdf.AddPage()
		for _, op := range page.Ops {
			// Layout uses a bottom-left origin; fpdf measures from the top.
			y := PageHeight - op.Y
			if op.Line {
				pdf.SetLineWidth(1)
				pdf.Line(op.X, y, op.X2, y)
				continue
			}
			pdf.SetFont(op.Font.Family, op.Font.Style, op.Font.Size)
			text := tr(op.Text)
			x := op.X
			switch op.Align {
			case AlignRight:
				x -= pdf.GetStringWidth(text)
			case AlignCenter:
				x -= pdf.GetStringWidth(text) / 2
			}
			pdf.Text(x, y, text)
		}
	}
	return pdf
}

// safeName keeps user supplied values from escaping the report directory.
func safeName(s string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	s = r.Replace(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

// maxPDFFailures caps the failure entries listed in a PDF.
const maxPDFFailures = 50

// FileName returns the timestamped PDF name for r.
func FileName(r Report) string {
	return fmt.Sprintf("maintenance_report_%s.pdf", r.GeneratedAt.Format("20060102_150405"))
}

// ExportPDF writes r into dir, creating it if needed, and returns the file path.
func ExportPDF(dir string, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, FileName(r))
	pdf := build(r)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("export report: %w", err)
	}
	return path, nil
}

// WritePDF renders r as a PDF document to w.
func WritePDF(w io.Writer, r Report) error {
	pdf := build(r)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func build(r Report) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetTitle("Predictive maintenance report", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Predictive Maintenance Report", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	line := func(s string) { pdf.CellFormat(0, 7, tr(s), "", 1, "", false, 0, "") }
	heading := func(s string) {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(s), "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 12)
	}

	line("Date and time: " + r.GeneratedAt.Format("02/01/2006 15:04:05"))
	line(fmt.Sprintf("Machine: %s   Policy: %s", r.MachineID, r.Policy))
	if r.RunID != "" {
		line("Run: " + r.RunID)
	}

	heading("General Statistics")
	for _, l := range strings.Split(strings.TrimSpace(Statistics(r.Summary)), "\n") {
		line(l)
	}

	heading("Corrective Recommendations")
	if len(r.Recommendations) == 0 {
		line("- None.")
	}
	for _, rec := range r.Recommendations {
		line("- " + rec)
	}

	if r.Model != nil {
		heading("Model")
		for _, l := range strings.Split(ModelSummary(*r.Model), "\n") {
			line(l)
		}
	}

	heading("Failures")
	if len(r.Failures.Entries) == 0 {
		line(NoFailuresMessage)
	}
	for i, e := range r.Failures.Entries {
		if i == maxPDFFailures {
			line(fmt.Sprintf("... and %d more", len(r.Failures.Entries)-maxPDFFailures))
			break
		}
		for _, l := range e.Lines() {
			line(l)
		}
	}
	return pdf
}

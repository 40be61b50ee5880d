// Package pdf renders a completed recording into a downloadable PDF
// with the summary sections followed by the full transcript.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/voicescribe/backend/internal/models"
	"github.com/voicescribe/backend/internal/summary"
)

const (
	pageMargin = 15.0
	lineHeight = 5.5
)

// Render builds the PDF document for a recording. The caller is
// responsible for ensuring a transcript exists.
func Render(rec *models.Recording) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 18)
	doc.MultiCell(0, 8, tr(rec.Title), "", "L", false)
	doc.Ln(1)

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(110, 110, 110)
	doc.CellFormat(0, 5, tr(metadataLine(rec)), "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(4)

	if rec.Summary != nil && strings.TrimSpace(*rec.Summary) != "" {
		heading(doc, tr, "Summary")
		for _, sec := range summary.Parse(*rec.Summary) {
			doc.SetFont("Helvetica", "B", 12)
			doc.CellFormat(0, 7, tr(sec.Title), "", 1, "L", false, 0, "")
			doc.SetFont("Helvetica", "", 10)
			for _, line := range sec.Lines {
				doc.MultiCell(0, lineHeight, tr("  "+summary.PlainLine(line)), "", "L", false)
			}
			doc.Ln(2)
		}
		doc.Ln(2)
	}

	heading(doc, tr, "Transcript")
	doc.SetFont("Helvetica", "", 10)
	transcript := ""
	if rec.Transcript != nil {
		transcript = *rec.Transcript
	}
	for _, para := range strings.Split(strings.TrimSpace(transcript), "\n") {
		if para = strings.TrimSpace(para); para == "" {
			doc.Ln(2)
			continue
		}
		doc.MultiCell(0, lineHeight, tr(para), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(doc *gofpdf.Fpdf, tr func(string) string, text string) {
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
	doc.SetDrawColor(200, 200, 200)
	x, y := doc.GetX(), doc.GetY()
	pageW, _ := doc.GetPageSize()
	doc.Line(x, y, pageW-pageMargin, y)
	doc.Ln(3)
}

func metadataLine(rec *models.Recording) string {
	parts := []string{rec.CreatedAt.Format("Jan 2, 2006 15:04")}
	if rec.Duration != nil {
		parts = append(parts, fmt.Sprintf("%d:%02d", *rec.Duration/60, *rec.Duration%60))
	}
	parts = append(parts, rec.Status)
	return strings.Join(parts, "  ·  ")
}

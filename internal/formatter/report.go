package formatter

import (
	"bytes"
	"fmt"

	"github.com/desertthunder/podx/internal/models"
)

// ReportSection is one group of an upload report.
type ReportSection struct {
	Title string
	Lines []string
}

// UploadReport groups an upload result into Added, Duplicates and Errors sections, skipping empty ones.
//
// Added files show "Artist - Title", duplicates "filename (already in library)" and errors "filename: reason".
func UploadReport(result *models.UploadResult) []ReportSection {
	if result == nil {
		return nil
	}

	var sections []ReportSection
	if len(result.Added) > 0 {
		s := ReportSection{Title: fmt.Sprintf("Added (%d)", len(result.Added))}
		for _, e := range result.Added {
			s.Lines = append(s.Lines, e.Label())
		}
		sections = append(sections, s)
	}
	if len(result.Duplicates) > 0 {
		s := ReportSection{Title: fmt.Sprintf("Duplicates (%d)", len(result.Duplicates))}
		for _, e := range result.Duplicates {
			s.Lines = append(s.Lines, e.Filename+" (already in library)")
		}
		sections = append(sections, s)
	}
	if len(result.Errors) > 0 {
		s := ReportSection{Title: fmt.Sprintf("Errors (%d)", len(result.Errors))}
		for _, e := range result.Errors {
			reason := e.Reason
			if reason == "" {
				reason = "Unknown error"
			}
			s.Lines = append(s.Lines, e.Filename+": "+reason)
		}
		sections = append(sections, s)
	}
	return sections
}

// UploadToast is the notification shown when an upload run finishes.
func UploadToast(result *models.UploadResult) string {
	switch n := len(result.Added); {
	case n == 1:
		return "1 track uploaded"
	case n > 1:
		return fmt.Sprintf("%d tracks uploaded", n)
	case len(result.Duplicates) > 0 && len(result.Errors) == 0:
		return "All files already in library"
	default:
		return "No tracks uploaded"
	}
}

// RenderReport writes sections as plain text.
func RenderReport(sections []ReportSection) string {
	var buf bytes.Buffer
	for i, s := range sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(s.Title + "\n")
		for _, l := range s.Lines {
			buf.WriteString("  " + l + "\n")
		}
	}
	return buf.String()
}

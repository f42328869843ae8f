package report

import (
	"fmt"

	"vidmeta/internal/media"
)

// NoSuccessMessage is shown when a batch produced no successful record.
const NoSuccessMessage = "No videos were successfully processed."

// Summary counts the outcome of a batch.
type Summary struct {
	Total     int
	Succeeded int
	Failures  []media.Failure
}

// Summarize splits results into a success count and failure details.
func Summarize(results []media.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
		} else if r.Failure != nil {
			s.Failures = append(s.Failures, *r.Failure)
		}
	}
	return s
}

// Failed returns the number of failed records.
func (s Summary) Failed() int { return len(s.Failures) }

// FailureMessage returns "Failed to process N out of M videos", or "" when
// nothing failed.
func (s Summary) FailureMessage() string {
	if len(s.Failures) == 0 {
		return ""
	}
	return fmt.Sprintf("Failed to process %d out of %d videos", len(s.Failures), s.Total)
}

// CountMessage describes how many videos are shown after filtering.
func CountMessage(shown, total int) string {
	if shown < total {
		return fmt.Sprintf("Showing %d of %d videos (filtered view)", shown, total)
	}
	return fmt.Sprintf("Results: %d videos", shown)
}

package subtitles

import (
	"fmt"

	"dualsub/internal/services"
)

// Validate checks numbering and timing and returns a list of issues; an
// empty slice means the document is well formed. Overlapping cues are
// allowed.
func Validate(doc Document) []string {
	if len(doc.Cues) == 0 {
		return []string{"empty_subtitle_document"}
	}
	var issues []string
	for i, cue := range doc.Cues {
		if cue.Number != i+1 {
			issues = append(issues, fmt.Sprintf("numbering: cue %d numbered %d", i+1, cue.Number))
		}
		if cue.Start < 0 {
			issues = append(issues, fmt.Sprintf("timing: cue %d starts before zero", i+1))
		}
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("timing: cue %d ends before it starts", i+1))
		}
		if i > 0 && cue.Start < doc.Cues[i-1].Start {
			issues = append(issues, fmt.Sprintf("ordering: cue %d starts before cue %d", i+1, i))
		}
	}
	return issues
}

// CheckParity verifies that two documents share cue count, numbering, and
// timings.
func CheckParity(a, b Document) error {
	if len(a.Cues) != len(b.Cues) {
		return services.Wrap(services.ErrValidation, "assemble", "parity",
			fmt.Sprintf("cue count differs: %d vs %d", len(a.Cues), len(b.Cues)), nil)
	}
	for i := range a.Cues {
		x, y := a.Cues[i], b.Cues[i]
		if x.Number != y.Number || x.Start != y.Start || x.End != y.End {
			return services.Wrap(services.ErrValidation, "assemble", "parity",
				fmt.Sprintf("cue %d differs: %d %s-%s vs %d %s-%s", i+1,
					x.Number, FormatTimestamp(x.Start), FormatTimestamp(x.End),
					y.Number, FormatTimestamp(y.Start), FormatTimestamp(y.End)), nil)
		}
	}
	return nil
}

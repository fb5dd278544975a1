package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	MatchCollection Phase = iota
	MatchTrack
	Done
)

func (p Phase) String() string {
	switch p {
	case MatchCollection:
		return "match_collection"
	case MatchTrack:
		return "match_track"
	case Done:
		return "done"
	default:
		return ""
	}
}

func matchCollectionUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Matching %s...", name),
		Data:    name,
	}
}

func matchTrackUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching for %s...", title),
		Data:    title,
	}
}

func doneUpdate(report *Report) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: "Matching complete",
		Data:    report,
	}
}

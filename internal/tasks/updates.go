package tasks

import (
	"fmt"
)

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
	PhaseFetchUsers Phase = iota
	PhaseFetchPosts
	PhaseTransform
	PhaseListAssets
	PhaseUploadAssets
	PhaseMatchAuthors
	PhaseUploadPosts
)

func (p Phase) String() string {
	switch p {
	case PhaseFetchUsers:
		return "fetch_users"
	case PhaseFetchPosts:
		return "fetch_posts"
	case PhaseTransform:
		return "transform"
	case PhaseListAssets:
		return "list_assets"
	case PhaseUploadAssets:
		return "upload_assets"
	case PhaseMatchAuthors:
		return "match_authors"
	case PhaseUploadPosts:
		return "upload_posts"
	default:
		return ""
	}
}

// UploadCounts is the [ProgressUpdate.Data] payload of uploader updates.
type UploadCounts struct {
	Total     int
	Remaining int // still pending
	Uploading int // in flight
	Done      int
	Failed    int
}

// Finished is the number of items that reached a terminal outcome.
func (c UploadCounts) Finished() int {
	return c.Done + c.Failed
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// consumer is behind; drop
	}
}

func preparingUpdate(phase Phase, total int, label string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Total:   total,
		Message: fmt.Sprintf("Preparing to create %d %s", total, label),
		Data:    UploadCounts{Total: total, Remaining: total},
	}
}

func remainingUpdate(phase Phase, c UploadCounts) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    c.Finished(),
		Total:   c.Total,
		Message: fmt.Sprintf("Remaining: %d (%d uploading, %d done, %d failed)", c.Remaining, c.Uploading, c.Done, c.Failed),
		Data:    c,
	}
}

func fetchPageUpdate(phase Phase, resource string, page int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    page,
		Message: fmt.Sprintf("Getting %s by page (%d)", resource, page),
	}
}

func transformUpdate(step, total int, slug string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseTransform,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Transformed: %s", step, total, slug),
	}
}

func listAssetsUpdate(step, total, images int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseListAssets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Processed %d images. (%d / %d posts)", images, step, total),
	}
}

func matchAuthorsUpdate(matched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseMatchAuthors,
		Step:    matched,
		Total:   total,
		Message: fmt.Sprintf("Matched %d of %d authors", matched, total),
	}
}

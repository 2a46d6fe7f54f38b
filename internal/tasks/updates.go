package tasks

import (
	"fmt"

	"github.com/desertthunder/podx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase   // Operation phase
	Step    int     // Current step number within phase (1-based)
	Total   int     // Total steps in this phase
	Percent float64 // Overall completion in [0, 1]
	Message string  // Human-readable message for display
	Data    any     // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	UploadStart Phase = iota
	UploadTransfer
	UploadSettled
	UploadDone
	SyncCollect
	SyncSubmit
	ExportFetch
	ExportCompleted
	ExportFailed
)

func (p Phase) String() string {
	switch p {
	case UploadStart:
		return "upload_start"
	case UploadTransfer:
		return "upload_transfer"
	case UploadSettled:
		return "upload_settled"
	case UploadDone:
		return "upload_done"
	case SyncCollect:
		return "sync_collect"
	case SyncSubmit:
		return "sync_submit"
	case ExportFetch:
		return "export_fetch"
	case ExportCompleted:
		return "export_completed"
	case ExportFailed:
		return "export_failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// overall computes (completed + fraction) / total, clamped to [0, 1].
func overall(completed int, fraction float64, total int) float64 {
	if total <= 0 {
		return 1
	}
	fraction = min(max(fraction, 0), 1)
	p := (float64(completed) + fraction) / float64(total)
	return min(max(p, 0), 1)
}

func uploadStartUpdate(step, total int, file models.UploadFile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadStart,
		Step:    step,
		Total:   total,
		Percent: overall(step-1, 0, total),
		Message: fmt.Sprintf("Uploading %d of %d: %s", step, total, file.Name),
		Data:    file,
	}
}

func uploadTransferUpdate(step, total int, file models.UploadFile, fraction float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadTransfer,
		Step:    step,
		Total:   total,
		Percent: overall(step-1, fraction, total),
		Message: fmt.Sprintf("Uploading %d of %d: %s (%d%%)", step, total, file.Name, int(fraction*100)),
		Data:    file,
	}
}

// FileOutcome is the Data payload of an [UploadSettled] update.
type FileOutcome struct {
	File    models.UploadFile
	Outcome models.Outcome
	Entry   models.UploadEntry
}

func uploadSettledUpdate(step, total int, outcome FileOutcome) ProgressUpdate {
	mark := "✓"
	if outcome.Outcome == models.OutcomeError {
		mark = "✗"
	} else if outcome.Outcome == models.OutcomeDuplicate {
		mark = "="
	}
	msg := fmt.Sprintf("[%d/%d] %s %s", step, total, mark, outcome.File.Name)
	if outcome.Entry.Reason != "" {
		msg += ": " + outcome.Entry.Reason
	}
	return ProgressUpdate{
		Phase:   UploadSettled,
		Step:    step,
		Total:   total,
		Percent: overall(step, 0, total),
		Message: msg,
		Data:    outcome,
	}
}

func uploadDoneUpdate(result *models.UploadResult) ProgressUpdate {
	total := result.Total()
	return ProgressUpdate{
		Phase:   UploadDone,
		Step:    total,
		Total:   total,
		Percent: 1,
		Message: fmt.Sprintf("Upload finished: %d added, %d duplicates, %d errors", len(result.Added), len(result.Duplicates), len(result.Errors)),
		Data:    result,
	}
}

func syncCollectUpdate(step, total int, content models.ContentType) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncCollect,
		Step:    step,
		Total:   total,
		Percent: overall(step-1, 0, total),
		Message: fmt.Sprintf("Collecting %s track ids...", content),
	}
}

func syncSubmitUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncSubmit,
		Step:    1,
		Total:   1,
		Percent: 1,
		Message: fmt.Sprintf("Adding %d tracks to the device...", count),
	}
}

func exportFetchUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFetch,
		Step:    step,
		Total:   total,
		Percent: overall(step-1, 0, total),
		Message: fmt.Sprintf("Fetching playlist %d of %d: %s", step, total, name),
	}
}

func exportCompletedUpdate(completed, total int, name string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCompleted,
		Step:    completed,
		Total:   total,
		Percent: overall(completed, 0, total),
		Message: fmt.Sprintf("Exported %s (%d files)", name, files),
	}
}

func exportFailedUpdate(completed, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFailed,
		Step:    completed,
		Total:   total,
		Percent: overall(completed, 0, total),
		Message: fmt.Sprintf("Failed to export %s: %v", name, err),
		Data:    err,
	}
}

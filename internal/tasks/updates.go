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
}

// Operation phase enumeration
type Phase int

const (
	ValidateInput Phase = iota
	SubmitBatch
	FetchHistory
	FetchSession
	DeleteSession
	DownloadArchive
)

func (p Phase) String() string {
	switch p {
	case ValidateInput:
		return "validate_input"
	case SubmitBatch:
		return "submit_batch"
	case FetchHistory:
		return "fetch_history"
	case FetchSession:
		return "fetch_session"
	case DeleteSession:
		return "delete_session"
	case DownloadArchive:
		return "download_archive"
	default:
		return "unknown"
	}
}

func validateInputUpdate(count int) ProgressUpdate {
	return ProgressUpdate{Phase: ValidateInput, Step: 1, Total: 1, Message: fmt.Sprintf("Validating %d lines...", count)}
}

func submitBatchUpdate(count int) ProgressUpdate {
	return ProgressUpdate{Phase: SubmitBatch, Step: 1, Total: 1, Message: fmt.Sprintf("Checking %d cookies...", count)}
}

func fetchHistoryUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchHistory, Step: 1, Total: 1, Message: "Fetching history..."}
}

func fetchSessionUpdate(sessionID string) ProgressUpdate {
	return ProgressUpdate{Phase: FetchSession, Step: 1, Total: 1, Message: "Loading session " + sessionID}
}

func deleteSessionUpdate(step, total int, sessionID string) ProgressUpdate {
	return ProgressUpdate{Phase: DeleteSession, Step: step, Total: total, Message: "Deleting " + sessionID}
}

func downloadArchiveUpdate(sessionID string) ProgressUpdate {
	return ProgressUpdate{Phase: DownloadArchive, Step: 1, Total: 1, Message: "Downloading archive for " + sessionID}
}

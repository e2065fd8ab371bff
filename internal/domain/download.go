package domain

import "time"

// DownloadStatus enumerates download lifecycle states.
type DownloadStatus string

const (
	DownloadStatusPending   DownloadStatus = "pending"
	DownloadStatusRunning   DownloadStatus = "running"
	DownloadStatusCompleted DownloadStatus = "completed"
	DownloadStatusFailed    DownloadStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s DownloadStatus) Terminal() bool {
	return s == DownloadStatusCompleted || s == DownloadStatusFailed
}

// Download tracks one user-initiated fetch of a specific format of a source
// URL, end to end. Title and FilePath are filled on completion; ErrorMessage
// on failure.
type Download struct {
	ID           string
	UserID       string
	URL          string
	FormatID     string
	Title        string
	Status       DownloadStatus
	FilePath     string
	ErrorMessage string
	RequestedAt  time.Time
	UpdatedAt    time.Time
}

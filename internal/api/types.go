package api

import (
	"time"

	"shortreel/internal/deps"
	"shortreel/internal/queue"
	"shortreel/internal/staging"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SubmitResponse answers POST /api/short-video.
type SubmitResponse struct {
	VideoID string `json:"videoId"`
}

// StatusResponse answers GET /api/short-video/{id}/status.
type StatusResponse struct {
	Status string `json:"status"`
}

// VideoEntry is one row of the video listing.
type VideoEntry struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VideoListResponse answers GET /api/short-videos.
type VideoListResponse struct {
	Videos []VideoEntry `json:"videos"`
}

// DeleteResponse answers DELETE /api/short-video/{id}.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QueueStatus summarizes the worker.
type QueueStatus struct {
	Draining bool   `json:"draining"`
	Queued   int    `json:"queued"`
	ActiveID string `json:"activeId,omitempty"`
	Since    string `json:"since,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// StagingDir reports one directory under the staging root.
type StagingDir struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
	Modified  string `json:"modified"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	LockFilePath string             `json:"lockFilePath"`
	Storage      string             `json:"storage"`
	Queue        QueueStatus        `json:"queue"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Staging      []StagingDir       `json:"staging"`
}

// FromEntries converts queue listing rows.
func FromEntries(entries []queue.Entry) []VideoEntry {
	out := make([]VideoEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, VideoEntry{ID: entry.ID, Status: string(entry.Status)})
	}
	return out
}

// FromSnapshot converts the worker snapshot.
func FromSnapshot(snap queue.Snapshot) QueueStatus {
	return QueueStatus{
		Draining: snap.Draining,
		Queued:   snap.Queued,
		ActiveID: snap.ActiveID,
		Since:    formatTime(snap.Since),
	}
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromStagingDirs converts staging listings.
func FromStagingDirs(dirs []staging.DirInfo) []StagingDir {
	out := make([]StagingDir, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, StagingDir{
			Name:      dir.Name,
			SizeBytes: dir.Size,
			Modified:  formatTime(dir.ModTime),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

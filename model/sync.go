package model

import "time"

// SyncSummary is the outcome of a bulk sync. A single playlist failing does
// not fail the batch; it only bumps Failed.
type SyncSummary struct {
	BatchID   string        `json:"batchId"`
	Playlists int           `json:"playlists"`
	Songs     int           `json:"songs"`
	Failed    int           `json:"failed"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Sync event types pushed over the progress websocket.
const (
	SyncEventStart    = "sync_start"
	SyncEventPlaylist = "playlist_synced"
	SyncEventFailed   = "playlist_failed"
	SyncEventDone     = "sync_done"
)

// SyncEvent is one progress notification during a sync run.
type SyncEvent struct {
	Type       string `json:"type"`
	BatchID    string `json:"batchId,omitempty"`
	PlaylistID int64  `json:"playlistId,omitempty"`
	Name       string `json:"name,omitempty"`
	Songs      int    `json:"songs,omitempty"`
	Error      string `json:"error,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

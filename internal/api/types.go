package api

// Remote job status values. The service reports a larger, evolving set of
// in-progress markers; anything not listed here is treated as in-progress
// by the caller (forward compatibility).
const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// inProgressStatuses are the documented non-terminal status values.
var inProgressStatuses = map[string]bool{
	"requested":      true,
	"accepted":       true,
	"initializing":   true,
	"preprocessing":  true,
	"processing":     true,
	"postprocessing": true,
}

// IsInProgress reports whether status is a known non-terminal job status.
func IsInProgress(status string) bool {
	return inProgressStatuses[status]
}

// SubmitResponse is the body returned when a job is created. The service
// issues one upload URL per source; only the first is used.
type SubmitResponse struct {
	RequestID  string   `json:"requestId"`
	UploadURLs []string `json:"uploadUrls"`
}

// DownloadInfo carries the result location once a job is complete.
type DownloadInfo struct {
	URL string `json:"url"`
}

// StatusResponse is one status poll result. Progress is advisory only and
// never used for control flow. Download is present only when Status is
// "complete"; Error only when it is "failed".
type StatusResponse struct {
	Status   string        `json:"status"`
	Progress int           `json:"progress"`
	Download *DownloadInfo `json:"download,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// CreditsBalance is the account credit summary.
type CreditsBalance struct {
	Available int64 `json:"available_credits"`
	Reserved  int64 `json:"reserved_credits"`
	Total     int64 `json:"total_credits"`
}

package api

import "errors"

// Sentinel errors for classifying failed exchanges. Each client operation
// wraps its sentinel with request detail; callers test with errors.Is.
var (
	ErrSubmission  = errors.New("job submission failed")
	ErrUpload      = errors.New("video upload failed")
	ErrStatusCheck = errors.New("status check failed")
	ErrDownload    = errors.New("result download failed")
	ErrCredits     = errors.New("credit balance check failed")
)

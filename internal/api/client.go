// Package api is the client for the remote video enhancement service. Each
// operation is a single bounded HTTP exchange: submit a job, upload the
// source bytes, poll job status, download the result. Retry is the
// caller's responsibility; the client never retries internally.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"

	"github.com/backmassage/cloudlift/internal/config"
)

const creditsPath = "/account/v1/credits/balance"

// uploadAccepted is the set of statuses the storage backend may answer a
// successful PUT with.
var uploadAccepted = map[int]bool{
	http.StatusOK:        true,
	http.StatusCreated:   true,
	http.StatusNoContent: true,
}

// Client talks to the remote service. It is stateless apart from
// configuration and safe for concurrent use by any number of runners.
type Client struct {
	baseURL string // Canonical, with trailing slash.
	apiKey  string
	profile JobProfile
	httpc   *http.Client
}

// NewClient builds a Client from cfg. The connection-establishment timeout
// and the stalled-response timeout are wired into the transport; the
// per-file processing ceiling lives in the polling loop, not here.
func NewClient(cfg *config.Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: cfg.ReadStallTimeout,
	}
	return &Client{
		baseURL: cfg.APIBaseURL,
		apiKey:  cfg.APIKey,
		profile: DefaultProfile(),
		httpc:   &http.Client{Transport: transport},
	}
}

// Submit creates a new remote job with the fixed enhancement profile and
// returns the assigned request ID plus the upload destination. A response
// without a request ID or upload URL is a submission failure even when the
// status code is 200.
func (c *Client) Submit(ctx context.Context) (requestID, uploadURL string, err error) {
	body, err := json.Marshal(c.profile)
	if err != nil {
		return "", "", fmt.Errorf("%w: encoding profile: %v", ErrSubmission, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"express", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: unexpected status %d: %s", ErrSubmission, resp.StatusCode, errSnippet(resp.Body))
	}

	var sr SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", "", fmt.Errorf("%w: decoding response: %v", ErrSubmission, err)
	}
	if sr.RequestID == "" {
		return "", "", fmt.Errorf("%w: no request ID in response", ErrSubmission)
	}
	if len(sr.UploadURLs) == 0 || sr.UploadURLs[0] == "" {
		return sr.RequestID, "", fmt.Errorf("%w: no upload URLs in response", ErrSubmission)
	}
	return sr.RequestID, sr.UploadURLs[0], nil
}

// Upload transfers the full file content to uploadURL in one PUT. The body
// streams from disk; nothing is buffered in memory.
func (c *Client) Upload(ctx context.Context, path, uploadURL string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.ContentLength = fi.Size()
	req.Header.Set("Content-Type", "video/mp4")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if !uploadAccepted[resp.StatusCode] {
		return fmt.Errorf("%w: unexpected status %d", ErrUpload, resp.StatusCode)
	}
	return nil
}

// Status fetches the current state of a submitted job.
func (c *Client) Status(ctx context.Context, requestID string) (StatusResponse, error) {
	var sr StatusResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestID+"/status", nil)
	if err != nil {
		return sr, fmt.Errorf("%w: %v", ErrStatusCheck, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return sr, fmt.Errorf("%w: %v", ErrStatusCheck, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sr, fmt.Errorf("%w: unexpected status %d", ErrStatusCheck, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return sr, fmt.Errorf("%w: decoding response: %v", ErrStatusCheck, err)
	}
	return sr, nil
}

// Download streams the result at downloadURL into dest, writing
// incrementally. The URL is pre-signed; no API key is sent. On any failure
// the partial dest file is removed.
func (c *Client) Download(ctx context.Context, downloadURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrDownload, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	return nil
}

// Credits fetches the account credit balance. The credits endpoint lives
// at the account root of the same host as the video API.
func (c *Client) Credits(ctx context.Context) (CreditsBalance, error) {
	var bal CreditsBalance

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return bal, fmt.Errorf("%w: %v", ErrCredits, err)
	}
	u.Path = creditsPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return bal, fmt.Errorf("%w: %v", ErrCredits, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return bal, fmt.Errorf("%w: %v", ErrCredits, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return bal, fmt.Errorf("%w: unexpected status %d: %s", ErrCredits, resp.StatusCode, errSnippet(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(&bal); err != nil {
		return bal, fmt.Errorf("%w: decoding response: %v", ErrCredits, err)
	}
	return bal, nil
}

// errSnippet reads at most 512 bytes of an error response body for
// inclusion in an error message.
func errSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	if len(b) == 0 {
		return "(empty body)"
	}
	return string(b)
}

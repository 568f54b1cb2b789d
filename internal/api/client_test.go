package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/cloudlift/internal/config"
)

func testClient(srvURL string) *Client {
	cfg := config.DefaultConfig()
	cfg.APIBaseURL = srvURL + "/video/"
	cfg.APIKey = "test-key"
	return NewClient(&cfg)
}

// --- Submit ---

func TestSubmit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/video/express" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q", got)
		}
		var profile JobProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			t.Fatalf("decoding profile: %v", err)
		}
		if len(profile.Filters) != 1 || profile.Filters[0].Model != "prob-4" {
			t.Errorf("profile filters = %+v", profile.Filters)
		}
		json.NewEncoder(w).Encode(SubmitResponse{
			RequestID:  "req-42",
			UploadURLs: []string{"https://storage.example/put/1", "https://storage.example/put/2"},
		})
	}))
	defer srv.Close()

	id, uploadURL, err := testClient(srv.URL).Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "req-42" {
		t.Errorf("requestID = %q, want req-42", id)
	}
	if uploadURL != "https://storage.example/put/1" {
		t.Errorf("uploadURL = %q, want first URL", uploadURL)
	}
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"insufficient credits"}`, http.StatusPaymentRequired)
		}},
		{"missing request ID", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"uploadUrls":["https://storage.example/put/1"]}`)
		}},
		{"missing upload URLs", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"requestId":"req-1"}`)
		}},
		{"empty upload URL", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"requestId":"req-1","uploadUrls":[""]}`)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{not json`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, _, err := testClient(srv.URL).Submit(context.Background())
			if !errors.Is(err, ErrSubmission) {
				t.Errorf("Submit error = %v, want ErrSubmission", err)
			}
		})
	}
}

// --- Upload ---

func TestUpload_AcceptedStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		wantOK bool
	}{
		{"200 OK", http.StatusOK, true},
		{"201 Created", http.StatusCreated, true},
		{"204 No Content", http.StatusNoContent, true},
		{"403 Forbidden", http.StatusForbidden, false},
		{"500 Internal", http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut {
					t.Errorf("method = %s, want PUT", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "video/mp4" {
					t.Errorf("Content-Type = %q", ct)
				}
				gotBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			path := filepath.Join(t.TempDir(), "clip.mp4")
			if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
				t.Fatal(err)
			}

			err := testClient(srv.URL).Upload(context.Background(), path, srv.URL+"/put/1")
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Upload: %v", err)
				}
				if string(gotBody) != "video-bytes" {
					t.Errorf("uploaded body = %q", gotBody)
				}
			} else if !errors.Is(err, ErrUpload) {
				t.Errorf("Upload error = %v, want ErrUpload", err)
			}
		})
	}
}

func TestUpload_MissingFile(t *testing.T) {
	err := testClient("http://unused.invalid").Upload(context.Background(),
		filepath.Join(t.TempDir(), "missing.mp4"), "http://unused.invalid/put")
	if !errors.Is(err, ErrUpload) {
		t.Errorf("Upload error = %v, want ErrUpload", err)
	}
}

// --- Status ---

func TestStatus_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/video/req-7/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status":"processing","progress":61}`)
	}))
	defer srv.Close()

	st, err := testClient(srv.URL).Status(context.Background(), "req-7")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Status != "processing" || st.Progress != 61 || st.Download != nil {
		t.Errorf("status = %+v", st)
	}
}

func TestStatus_CompleteCarriesDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"complete","progress":100,"download":{"url":"https://cdn.example/out.mp4"}}`)
	}))
	defer srv.Close()

	st, err := testClient(srv.URL).Status(context.Background(), "req-7")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Status != StatusComplete || st.Download == nil || st.Download.URL != "https://cdn.example/out.mp4" {
		t.Errorf("status = %+v", st)
	}
}

func TestStatus_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Status(context.Background(), "req-7")
	if !errors.Is(err, ErrStatusCheck) {
		t.Errorf("Status error = %v, want ErrStatusCheck", err)
	}
}

// --- Download ---

func TestDownload_WritesDest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "enhanced-bytes")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "result.part")
	if err := testClient(srv.URL).Download(context.Background(), srv.URL+"/dl/1", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "enhanced-bytes" {
		t.Errorf("downloaded content = %q", b)
	}
}

func TestDownload_Non200LeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "result.part")
	err := testClient(srv.URL).Download(context.Background(), srv.URL+"/dl/1", dest)
	if !errors.Is(err, ErrDownload) {
		t.Errorf("Download error = %v, want ErrDownload", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("dest file should not exist after a failed download")
	}
}

// --- Credits ---

func TestCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account/v1/credits/balance" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q", got)
		}
		fmt.Fprint(w, `{"available_credits":1500,"reserved_credits":200,"total_credits":1700}`)
	}))
	defer srv.Close()

	bal, err := testClient(srv.URL).Credits(context.Background())
	if err != nil {
		t.Fatalf("Credits: %v", err)
	}
	if bal.Available != 1500 || bal.Reserved != 200 || bal.Total != 1700 {
		t.Errorf("balance = %+v", bal)
	}
}

func TestIsInProgress(t *testing.T) {
	for _, s := range []string{"requested", "accepted", "initializing", "preprocessing", "processing", "postprocessing"} {
		if !IsInProgress(s) {
			t.Errorf("IsInProgress(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"complete", "failed", "warming_up", ""} {
		if IsInProgress(s) {
			t.Errorf("IsInProgress(%q) = true, want false", s)
		}
	}
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testClient() *Client {
	return NewClient(Options{Timeout: 2 * time.Second, MaxAttempts: 3, BackoffBase: time.Millisecond})
}

func TestFetchPageSendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body><p>hello</p></body></html>"))
	}))
	defer server.Close()

	body, err := testClient().FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if string(body) != "<html><body><p>hello</p></body></html>" {
		t.Errorf("Unexpected body: %q", body)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("Expected User-Agent %q, got %q", DefaultUserAgent, gotUA)
	}
}

func TestFetchPageRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := testClient().FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Unexpected body: %q", body)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchPageGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testClient().FetchPage(context.Background(), server.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("Expected StatusError 502, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchPageDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := testClient().FetchPage(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls.Load())
	}
}

func TestFetchPageHonoursCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testClient().FetchPage(ctx, server.URL); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestFetchPageRetriesAttemptTimeouts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.Write([]byte("late"))
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: 50 * time.Millisecond, MaxAttempts: 3, BackoffBase: time.Millisecond})
	_, err := client.FetchPage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error when every attempt times out")
	}
	if !IsRetryable(err) {
		t.Errorf("Expected the final timeout to be retryable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchPageStopsAtCallerDeadline(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := testClient().FetchPage(ctx, server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected caller deadline error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls.Load())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"500", &StatusError{StatusCode: 500}, true},
		{"504", &StatusError{StatusCode: 504}, true},
		{"501", &StatusError{StatusCode: 501}, false},
		{"403", &StatusError{StatusCode: 403}, false},
		{"transport", &transportError{err: errors.New("connection reset")}, true},
		{"cancelled", context.Canceled, false},
		{"caller deadline", context.DeadlineExceeded, false},
		{"attempt timeout", &transportError{err: fmt.Errorf("client timeout: %w", context.DeadlineExceeded)}, true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestReadLinksFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test-links.md")

	testContent := `# Test Links

- https://example.com/article1
- [Test Article](https://example.com/article2)
- Some text with https://example.com/article3 inline
- Invalid URL: not-a-url
- ftp://example.com/file (should be skipped)
- https://example.com/article1 (duplicate)
`
	if err := os.WriteFile(testFile, []byte(testContent), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	links, err := ReadLinksFromFile(testFile)
	if err != nil {
		t.Fatalf("ReadLinksFromFile failed: %v", err)
	}

	expected := []struct{ title, url string }{
		{"https://example.com/article1", "https://example.com/article1"},
		{"Test Article", "https://example.com/article2"},
		{"https://example.com/article3", "https://example.com/article3"},
	}
	if len(links) != len(expected) {
		t.Fatalf("Expected %d links, got %d: %v", len(expected), len(links), links)
	}
	for i, want := range expected {
		if links[i].Title != want.title || links[i].URL != want.url {
			t.Errorf("Link %d = %+v, want %+v", i, links[i], want)
		}
	}
}

func TestReadLinksFromJSONFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrapped", `{"news_links":[{"title":"A","url":"https://a.example"},{"title":"B","url":"https://b.example"}]}`},
		{"bare array", `[{"title":"A","url":"https://a.example"},{"title":"B","url":"https://b.example"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "links.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			links, err := ReadLinksFromFile(path)
			if err != nil {
				t.Fatalf("ReadLinksFromFile failed: %v", err)
			}
			if len(links) != 2 || links[0].Title != "A" || links[1].URL != "https://b.example" {
				t.Errorf("Unexpected links: %+v", links)
			}
		})
	}
}

func TestReadLinksFromFileMissing(t *testing.T) {
	if _, err := ReadLinksFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

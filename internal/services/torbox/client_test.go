package torbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amaumene/strmarr/internal/config"
	"github.com/amaumene/strmarr/internal/models"
	"github.com/amaumene/strmarr/internal/utils"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(&config.Config{TorBoxAPIKey: "test-key"}, utils.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(&config.Config{}, utils.NewLogger("error")); err == nil {
		t.Error("Expected an error without an API key")
	}
}

func TestListDownloads(t *testing.T) {
	var gotPath, gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []Download{
				{ID: 1, Hash: "abc", Name: "item", Cached: true},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t)
	client.APIBaseURL = server.URL

	downloads, err := client.ListDownloads(context.Background(), models.DownloadTypeTorrents, 1000, 0)
	if err != nil {
		t.Fatalf("ListDownloads failed: %v", err)
	}
	if len(downloads) != 1 || downloads[0].Hash != "abc" {
		t.Errorf("Unexpected downloads: %+v", downloads)
	}
	if gotPath != "/torrents/mylist" {
		t.Errorf("Unexpected path: %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Unexpected authorization header: %q", gotAuth)
	}
	if !strings.Contains(gotQuery, "limit=1000") || !strings.Contains(gotQuery, "bypass_cache=true") {
		t.Errorf("Unexpected query: %q", gotQuery)
	}
}

func TestListDownloadsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t)
	client.APIBaseURL = server.URL

	if _, err := client.ListDownloads(context.Background(), models.DownloadTypeUsenet, 1000, 0); err == nil {
		t.Error("Expected an error for a non-200 status")
	}
}

func TestDownloadLink(t *testing.T) {
	client := newTestClient(t)

	link := client.DownloadLink(models.DownloadTypeUsenet, 42, 7)
	for _, part := range []string{"/usenet/requestdl", "token=test-key", "usenet_id=42", "file_id=7", "redirect=true"} {
		if !strings.Contains(link, part) {
			t.Errorf("Download link missing %q: %q", part, link)
		}
	}
}

func TestResolveDownloadLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/redirect":
			w.Header().Set("Location", "https://cdn.example.com/final")
			w.WriteHeader(http.StatusFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := newTestClient(t)

	resolved, err := client.ResolveDownloadLink(context.Background(), server.URL+"/redirect")
	if err != nil {
		t.Fatalf("ResolveDownloadLink failed: %v", err)
	}
	if resolved != "https://cdn.example.com/final" {
		t.Errorf("Unexpected resolved link: %q", resolved)
	}

	direct, err := client.ResolveDownloadLink(context.Background(), server.URL+"/direct")
	if err != nil {
		t.Fatalf("ResolveDownloadLink failed: %v", err)
	}
	if direct != server.URL+"/direct" {
		t.Errorf("A non-redirect must return the original URL, got %q", direct)
	}
}

func TestSearchMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/meta/search/") {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"title": "True Blood", "type": "series", "releaseYears": "2008"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t)
	client.SearchBaseURL = server.URL

	results, err := client.SearchMetadata(context.Background(), "True Blood S07E01")
	if err != nil {
		t.Fatalf("SearchMetadata failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "True Blood" {
		t.Errorf("Unexpected results: %+v", results)
	}
	if years, ok := results[0].ReleaseYears.(string); !ok || years != "2008" {
		t.Errorf("Release years must round-trip untyped, got %#v", results[0].ReleaseYears)
	}
}

package torbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amaumene/strmarr/internal/models"
)

// DownloadFile represents one file inside a download item
type DownloadFile struct {
	ID        int64  `json:"id"`
	ShortName string `json:"short_name"`
	Name      string `json:"name"` // full path within the item
	MimeType  string `json:"mimetype"`
	Size      int64  `json:"size"`
}

// Download represents one item from a mylist listing
type Download struct {
	ID     int64          `json:"id"`
	Hash   string         `json:"hash"`
	Name   string         `json:"name"`
	Cached bool           `json:"cached"`
	Files  []DownloadFile `json:"files"`
}

type listResponse struct {
	Success bool       `json:"success"`
	Error   *string    `json:"error"`
	Detail  string     `json:"detail"`
	Data    []Download `json:"data"`
}

// ListDownloads fetches one page of the user's download list for a download
// type. The caller paginates until a short or empty page comes back.
func (c *Client) ListDownloads(ctx context.Context, downloadType models.DownloadType, limit, offset int) ([]Download, error) {
	endpoint := fmt.Sprintf("%s/%s/mylist?limit=%d&offset=%d&bypass_cache=true", c.APIBaseURL, downloadType, limit, offset)

	body, status, err := c.doGet(ctx, endpoint, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s at offset %d: %w", downloadType, offset, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s at offset %d: status %d", downloadType, offset, status)
	}

	var result listResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse %s at offset %d: %w", downloadType, offset, err)
	}

	return result.Data, nil
}

// DownloadLink constructs the playback URL for one file of a download item
func (c *Client) DownloadLink(downloadType models.DownloadType, itemID, fileID int64) string {
	return fmt.Sprintf("%s/%s/requestdl?token=%s&%s=%d&file_id=%d&redirect=true",
		c.APIBaseURL, downloadType, url.QueryEscape(c.apiKey), downloadType.IDField(), itemID, fileID)
}

// ResolveDownloadLink follows the requestdl redirect and returns the direct
// location, or the original URL when no redirect is issued
func (c *Client) ResolveDownloadLink(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{
		Timeout: c.httpClient.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		if location := resp.Header.Get("Location"); location != "" {
			return location, nil
		}
	}
	return rawURL, nil
}

package torbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SearchResult represents one record from the metadata search API
type SearchResult struct {
	Title        string `json:"title"`
	Type         string `json:"type"`
	ReleaseYears any    `json:"releaseYears"` // string, number or list
	Link         string `json:"link"`
	Image        string `json:"image"`
	Backdrop     string `json:"backdrop"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Error   *string        `json:"error"`
	Detail  string         `json:"detail"`
	Data    []SearchResult `json:"data"`
}

// SearchMetadata queries the metadata search API with a full-title search
// string and returns the raw candidate list
func (c *Client) SearchMetadata(ctx context.Context, fullTitle string) ([]SearchResult, error) {
	endpoint := fmt.Sprintf("%s/meta/search/%s?type=file", c.SearchBaseURL, url.PathEscape(fullTitle))

	body, status, err := c.doGet(ctx, endpoint, true)
	if err != nil {
		return nil, fmt.Errorf("failed to search metadata: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("failed to search metadata: status %d", status)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse metadata search response: %w", err)
	}

	return result.Data, nil
}

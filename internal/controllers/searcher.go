package controllers

import (
	"context"

	"github.com/amaumene/strmarr/internal/metadata"
	"github.com/amaumene/strmarr/internal/services/torbox"
)

// torboxSearcher adapts the TorBox search client to the resolver's Searcher
// interface
type torboxSearcher struct {
	client *torbox.Client
}

// NewMetadataSearcher wraps a TorBox client as a metadata searcher
func NewMetadataSearcher(client *torbox.Client) metadata.Searcher {
	return &torboxSearcher{client: client}
}

func (s *torboxSearcher) Search(ctx context.Context, fullTitle string) ([]metadata.Candidate, error) {
	results, err := s.client.SearchMetadata(ctx, fullTitle)
	if err != nil {
		return nil, err
	}

	candidates := make([]metadata.Candidate, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, metadata.Candidate{
			Title:        result.Title,
			Type:         result.Type,
			ReleaseYears: result.ReleaseYears,
			Link:         result.Link,
			Image:        result.Image,
			Backdrop:     result.Backdrop,
		})
	}
	return candidates, nil
}

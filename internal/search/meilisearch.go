// Package search indexes stations and municipalities for name lookup.
package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
)

const (
	indexName    = "places"
	defaultLimit = 20
)

// SearchClient is a Searcher backed by Meilisearch.
type SearchClient struct {
	client *meilisearch.Client
	index  string
}

// NewSearchClient creates a client for the configured host.
func NewSearchClient(cfg config.MeilisearchConfig) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   cfg.Host,
		APIKey: cfg.APIKey,
	})

	return &SearchClient{
		client: client,
		index:  indexName,
	}
}

// InitIndex creates the index and its attribute settings.
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"name",
		"prefecture",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"kind",
		"prefecture",
		"station_rank",
		"price_tier",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"passengers",
		"avg_price_per_sqm",
	})
	return err
}

// Index replaces every document in the index.
func (s *SearchClient) Index(places []Place) error {
	if _, err := s.client.Index(s.index).DeleteAllDocuments(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	if len(places) == 0 {
		return nil
	}
	if _, err := s.client.Index(s.index).AddDocuments(places, "id"); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	slog.Info("Search: places indexed", "count", len(places))
	return nil
}

// Search runs a text query, optionally restricted to one kind.
func (s *SearchClient) Search(query string, kind PlaceKind, limit int64) ([]Place, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	req := &meilisearch.SearchRequest{Limit: limit}
	if filter := kindFilter(kind); filter != "" {
		req.Filter = filter
	}

	res, err := s.client.Index(s.index).Search(strings.TrimSuffix(strings.TrimSpace(query), "駅"), req)
	if err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(res.Hits))
	for _, hit := range res.Hits {
		// Convert hit to JSON then to Place
		data, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var p Place
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

func kindFilter(kind PlaceKind) string {
	if kind == "" {
		return ""
	}
	return fmt.Sprintf("kind = '%s'", kind)
}

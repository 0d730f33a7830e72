package mongodb

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/pkg/crypto"
)

// SearchHistory serves a contact's recent searches. URNs are never used
// as query filters directly; lookups go through the same keyed digest the
// recorder stores, so the plaintext URN stays out of the collection.
type SearchHistory interface {
	RecentSearches(ctx context.Context, contactURN string, limit int) ([]models.SearchSummary, error)
}

type searchHistory struct {
	repo   SearchActivityRepository
	crypto crypto.Client
}

func NewSearchHistory(repo SearchActivityRepository, cryptoClient crypto.Client) SearchHistory {
	return &searchHistory{
		repo:   repo,
		crypto: cryptoClient,
	}
}

func (h *searchHistory) RecentSearches(ctx context.Context, contactURN string, limit int) ([]models.SearchSummary, error) {
	if contactURN == "" {
		return nil, fmt.Errorf("contact urn is required")
	}

	activities, err := h.repo.RecentByContact(ctx, h.crypto.Hash(contactURN), limit)
	if err != nil {
		return nil, fmt.Errorf("load recent searches: %w", err)
	}

	summaries := make([]models.SearchSummary, 0, len(activities))
	for _, activity := range activities {
		summaries = append(summaries, models.SearchSummary{
			Query:        activity.Query,
			PostalCode:   activity.PostalCode,
			RegionID:     activity.RegionID,
			Status:       activity.Status,
			ProductCount: activity.ProductCount,
			CreatedAt:    activity.CreatedAt,
		})
	}
	return summaries, nil
}

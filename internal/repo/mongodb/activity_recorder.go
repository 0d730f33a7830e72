package mongodb

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/pkg/crypto"
)

// activityRecorder adapts the activity repository to the pipeline's
// recorder contract. Contact URNs are PII and are encrypted before they
// hit the collection; a nil crypto client stores no URN at all.
type activityRecorder struct {
	repo   SearchActivityRepository
	crypto crypto.Client
}

func NewActivityRecorder(repo SearchActivityRepository, cryptoClient crypto.Client) concierge.ActivityRecorder {
	return &activityRecorder{
		repo:   repo,
		crypto: cryptoClient,
	}
}

func (r *activityRecorder) RecordSearch(ctx context.Context, sc *concierge.SearchContext, result *models.SearchResult) error {
	activity := &SearchActivity{
		Query:          sc.Query,
		PostalCode:     sc.PostalCode,
		RegionID:       sc.RegionID,
		Status:         result.Status,
		ProductCount:   len(result.Products),
		FailedStage:    result.FailedStage,
		PluginFailures: result.PluginFailures,
	}

	if sc.Contact.URN != "" && r.crypto != nil {
		encrypted, err := r.crypto.Encrypt(sc.Contact.URN)
		if err != nil {
			return fmt.Errorf("encrypt contact urn: %w", err)
		}
		activity.ContactURN = encrypted
		activity.ContactKey = r.crypto.Hash(sc.Contact.URN)
	}

	return r.repo.Create(ctx, activity)
}

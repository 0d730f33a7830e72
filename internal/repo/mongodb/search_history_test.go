package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/pkg/crypto"
)

const testKey = "MTIzNDU2Nzg5MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTI="

type fakeActivityRepo struct {
	created   []*SearchActivity
	recent    []*SearchActivity
	lastKey   string
	lastLimit int
}

func (f *fakeActivityRepo) Create(ctx context.Context, activity *SearchActivity) error {
	f.created = append(f.created, activity)
	return nil
}

func (f *fakeActivityRepo) RecentByContact(ctx context.Context, contactKey string, limit int) ([]*SearchActivity, error) {
	f.lastKey = contactKey
	f.lastLimit = limit
	return f.recent, nil
}

func TestRecordSearchStoresContactKey(t *testing.T) {
	cryptoClient, err := crypto.NewClient(testKey)
	require.NoError(t, err)
	repo := &fakeActivityRepo{}
	recorder := NewActivityRecorder(repo, cryptoClient)

	sc := &concierge.SearchContext{Query: "arroz"}
	sc.Contact.URN = "whatsapp:5511999990000"

	err = recorder.RecordSearch(context.Background(), sc, &models.SearchResult{
		Status:   models.StatusComplete,
		Products: []models.Product{{SKUID: "100"}},
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	activity := repo.created[0]
	assert.NotEqual(t, sc.Contact.URN, activity.ContactURN, "urn must be stored encrypted")
	assert.Equal(t, cryptoClient.Hash(sc.Contact.URN), activity.ContactKey)
}

func TestRecentSearchesLooksUpByKey(t *testing.T) {
	cryptoClient, err := crypto.NewClient(testKey)
	require.NoError(t, err)
	repo := &fakeActivityRepo{
		recent: []*SearchActivity{
			{
				Query:        "arroz",
				RegionID:     "v2.SP",
				Status:       models.StatusComplete,
				ProductCount: 3,
				CreatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
	history := NewSearchHistory(repo, cryptoClient)

	urn := "whatsapp:5511999990000"
	summaries, err := history.RecentSearches(context.Background(), urn, 10)
	require.NoError(t, err)

	// the filter is the keyed digest, never the plaintext urn
	assert.Equal(t, cryptoClient.Hash(urn), repo.lastKey)
	assert.NotEqual(t, urn, repo.lastKey)
	assert.Equal(t, 10, repo.lastLimit)

	require.Len(t, summaries, 1)
	assert.Equal(t, "arroz", summaries[0].Query)
	assert.Equal(t, "v2.SP", summaries[0].RegionID)
	assert.Equal(t, 3, summaries[0].ProductCount)
}

func TestRecentSearchesRequiresURN(t *testing.T) {
	cryptoClient, err := crypto.NewClient(testKey)
	require.NoError(t, err)
	history := NewSearchHistory(&fakeActivityRepo{}, cryptoClient)

	_, err = history.RecentSearches(context.Background(), "", 10)
	require.Error(t, err)
}

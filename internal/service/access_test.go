package service_test

import (
	"context"
	"testing"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// brokenCatalog fails its lookup with a real statement error on the caller's connection.
type brokenCatalog struct {
	repository.ProductRepository
}

func (b brokenCatalog) FindMany(ctx context.Context, tx *gorm.DB, _ []string) ([]*model.Product, error) {
	var products []*model.Product
	err := tx.WithContext(ctx).Raw("SELECT * FROM no_such_table").Scan(&products).Error
	return nil, err
}

func TestExpandBundles(t *testing.T) {
	t.Parallel()

	catalog := []*model.Product{
		{ID: "kit", IsBundle: true, BundleItems: datatypes.JSONSlice[string]{"site", "rsvp"}},
		{ID: "empty_kit", IsBundle: true},
		{ID: "site"},
	}

	assert.Equal(t, []string{"kit", "site", "rsvp"}, service.ExpandBundles([]string{"kit", "site"}, catalog))
	assert.Equal(t, []string{"empty_kit"}, service.ExpandBundles([]string{"empty_kit"}, catalog))
	assert.Equal(t, []string{"unknown", "kit"}, service.ExpandBundles([]string{"unknown", "kit"}, nil))
}

func TestMergeAccess(t *testing.T) {
	t.Parallel()

	merged, changed := service.MergeAccess([]string{"a", "b"}, []string{"b", "c"})
	assert.True(t, changed)
	assert.Equal(t, []string{"a", "b", "c"}, merged)

	merged, changed = service.MergeAccess([]string{"a"}, []string{"a", "a"})
	assert.False(t, changed)
	assert.Equal(t, []string{"a"}, merged)

	merged, changed = service.MergeAccess(nil, []string{"a", "a"})
	assert.True(t, changed)
	assert.Equal(t, []string{"a"}, merged)
}

func TestGrantIsMonotonicAndIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	seedCatalog(t, db)
	require.NoError(t, repository.NewProfileRepository(db).Insert(context.Background(), &model.Profile{
		ID: "c1", Email: "ana@example.com", TaxID: "12345678901",
	}))

	grantor := service.NewAccessService(repository.NewProductRepository(db), repository.NewAccessRepository(db), testutil.Logger())
	users := service.NewUserService(repository.NewProfileRepository(db))
	ctx := context.Background()

	changed, err := grantor.Grant(ctx, nil, "c1", []string{"A", "B"})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = grantor.Grant(ctx, nil, "c1", []string{"B", "C"})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = grantor.Grant(ctx, nil, "c1", []string{"A"})
	require.NoError(t, err)
	assert.False(t, changed)

	resp, err := users.GetAccess(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, resp.Access)

	changed, err = grantor.Grant(ctx, nil, "c1", []string{"kit"})
	require.NoError(t, err)
	assert.True(t, changed)

	resp, err = users.GetAccess(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "kit", "site", "rsvp"}, resp.Access)

	_, err = grantor.Grant(ctx, nil, "ghost", []string{"A"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGrantSurvivesFailedCatalogLookupInTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, repository.NewProfileRepository(db).Insert(context.Background(), &model.Profile{
		ID: "c1", Email: "ana@example.com", TaxID: "12345678901",
	}))

	grantor := service.NewAccessService(
		brokenCatalog{repository.NewProductRepository(db)},
		repository.NewAccessRepository(db),
		testutil.Logger(),
	)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		changed, err := grantor.Grant(ctx, tx, "c1", []string{"kit"})
		if err != nil {
			return err
		}
		assert.True(t, changed)
		return nil
	})
	require.NoError(t, err)

	resp, err := service.NewUserService(repository.NewProfileRepository(db)).GetAccess(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"kit"}, resp.Access)
}

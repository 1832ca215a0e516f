package repository

import (
	"testing"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBusinessTest(t *testing.T) (*gorm.DB, BusinessRepository, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	owner := &model.User{Email: "owner@example.com", PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(testDB).Create(owner))

	return testDB, NewBusinessRepository(testDB), owner
}

func newTestBusiness(ownerID uint, slug string) *model.Business {
	return &model.Business{
		UserID:  ownerID,
		Slug:    slug,
		PlaceID: "ChIJ-" + slug,
		Name:    "Business " + slug,
		Config:  model.DefaultBusinessSettings(),
	}
}

func TestBusinessRepository_CreateAndFindBySlug(t *testing.T) {
	_, repo, owner := setupBusinessTest(t)

	b := newTestBusiness(owner.ID, "starbucks")
	b.Config.SheetScriptURL = "https://script.example.com/exec"
	require.NoError(t, repo.Create(b))
	assert.NotZero(t, b.ID)

	found, err := repo.FindBySlug("starbucks")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)
	assert.Equal(t, model.DefaultReviewThreshold, found.Config.ReviewThreshold)
	assert.True(t, found.Config.DiscountEnabled)
	assert.Equal(t, "https://script.example.com/exec", found.Config.SheetScriptURL)

	_, err = repo.FindBySlug("unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBusinessRepository_DuplicateSlug(t *testing.T) {
	_, repo, owner := setupBusinessTest(t)

	require.NoError(t, repo.Create(newTestBusiness(owner.ID, "starbucks")))
	err := repo.Create(newTestBusiness(owner.ID, "starbucks"))

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestBusinessRepository_SlugExistsAndCount(t *testing.T) {
	_, repo, owner := setupBusinessTest(t)

	exists, err := repo.SlugExists("cafe")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(newTestBusiness(owner.ID, "cafe")))
	require.NoError(t, repo.Create(newTestBusiness(owner.ID, "cafe-2")))

	exists, err = repo.SlugExists("cafe")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.CountByUserID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	list, err := repo.FindByUserID(owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cafe-2", list[0].Slug)

	all, err := repo.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"streamhub/internal/testutil"
	"streamhub/pkg/database"
	"streamhub/pkg/models"
)

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "streamhub.db")
	db, err := database.Open(path, false)
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	created, err := database.SeedAdmin(db, "admin", "admin", bcrypt.DefaultCost)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = database.SeedAdmin(db, "admin", "other", bcrypt.DefaultCost)
	require.NoError(t, err)
	assert.False(t, created)

	var u models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&u).Error)
	assert.True(t, u.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin")))
}

func TestSeedCategoriesAndReset(t *testing.T) {
	db := testutil.NewDB(t)

	n, err := database.SeedCategories(db, []string{"K-Drama", "Anime"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = database.SeedCategories(db, []string{"Anime", "Latest"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, database.Reset(db))
	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSeedShowsFromJSON(t *testing.T) {
	db := testutil.NewDB(t)
	path := filepath.Join(t.TempDir(), "shows.json")
	data := `[
		{"title": "Frieren", "genres": "Adventure,Fantasy", "category": "Anime"},
		{"title": "Frieren", "genres": "dup", "category": "Anime"},
		{"title": "", "category": "Anime"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	list, err := database.LoadShowsFromJSON(path)
	require.NoError(t, err)
	require.Len(t, list, 3)

	n, err := database.SeedShows(db, list)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var show models.Show
	require.NoError(t, db.First(&show).Error)
	var cat models.Category
	require.NoError(t, db.First(&cat, "id = ?", show.CategoryID).Error)
	assert.Equal(t, "Anime", cat.Name)
}

func TestIsDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.Category{Name: "Anime"}).Error)
	err := db.Create(&models.Category{Name: "Anime"}).Error
	assert.True(t, database.IsDuplicate(err))
}

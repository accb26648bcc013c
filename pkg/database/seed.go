package database

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"streamhub/pkg/models"
)

// SeedShow is one record of the shows seed file written by cmd/tools/fetch_anilist.
type SeedShow struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Poster      string `json:"poster"`
	Banner      string `json:"banner"`
	Genres      string `json:"genres"`
	Category    string `json:"category"`
}

// Reset clears users and categories, as a fresh seed expects.
func Reset(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Category{}).Error; err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		return nil
	})
}

// SeedAdmin creates the admin account unless a user with that name exists.
// It reports whether a user was created.
func SeedAdmin(db *gorm.DB, username, password string, cost int) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count admin: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	u := &models.User{Username: username, PasswordHash: string(hash), IsAdmin: true}
	if err := db.Create(u).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

// SeedCategories inserts the named categories that do not exist yet.
func SeedCategories(db *gorm.DB, names []string) (int, error) {
	inserted := 0
	for _, name := range names {
		var count int64
		if err := db.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return inserted, fmt.Errorf("count category %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&models.Category{Name: name}).Error; err != nil {
			return inserted, fmt.Errorf("seed category %s: %w", name, err)
		}
		inserted++
	}
	return inserted, nil
}

func LoadShowsFromJSON(path string) ([]SeedShow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shows json: %w", err)
	}
	var list []SeedShow
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("unmarshal shows json: %w", err)
	}
	return list, nil
}

// SeedShows inserts shows whose title is not present yet, creating categories on demand.
func SeedShows(db *gorm.DB, list []SeedShow) (int, error) {
	inserted := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		categoryIDs := map[string]string{}
		for _, s := range list {
			if s.Title == "" || s.Category == "" {
				continue
			}
			catID, ok := categoryIDs[s.Category]
			if !ok {
				var c models.Category
				if err := tx.Where(models.Category{Name: s.Category}).FirstOrCreate(&c).Error; err != nil {
					return fmt.Errorf("category %s: %w", s.Category, err)
				}
				catID = c.ID
				categoryIDs[s.Category] = catID
			}

			var exists int64
			if err := tx.Model(&models.Show{}).Where("title = ?", s.Title).Count(&exists).Error; err != nil {
				return fmt.Errorf("count show %s: %w", s.Title, err)
			}
			if exists > 0 {
				continue
			}
			show := &models.Show{
				Title:       s.Title,
				Description: s.Description,
				Poster:      s.Poster,
				Banner:      s.Banner,
				Genres:      s.Genres,
				CategoryID:  catID,
			}
			if err := tx.Create(show).Error; err != nil {
				return fmt.Errorf("insert show %s: %w", s.Title, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

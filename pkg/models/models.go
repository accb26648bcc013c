package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// users table
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsAdmin      bool      `json:"isAdmin" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	return assignID(&u.ID)
}

type Category struct {
	ID   string `json:"id" gorm:"primaryKey;size:36"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	return assignID(&c.ID)
}

type Show struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" gorm:"not null;index"`
	Description string    `json:"description"`
	Poster      string    `json:"poster"`
	Banner      string    `json:"banner"`
	Genres      string    `json:"genres"` // comma-joined
	CategoryID  string    `json:"category_id" gorm:"size:36;index;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Show) BeforeCreate(tx *gorm.DB) error {
	return assignID(&s.ID)
}

type Episode struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ShowID      string    `json:"show_id" gorm:"size:36;not null;index:idx_episode_show_number"`
	EpNumber    int       `json:"ep_number" gorm:"not null;index:idx_episode_show_number"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	DriveURL    string    `json:"drive_url" gorm:"not null"`
	Thumbnail   string    `json:"thumbnail"`
	PublishDate time.Time `json:"publish_date" gorm:"index"`
}

func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	return assignID(&e.ID)
}

// BeforeSave stores publish dates in UTC so the text comparison SQLite
// performs on them orders correctly.
func (e *Episode) BeforeSave(tx *gorm.DB) error {
	e.PublishDate = e.PublishDate.UTC()
	return nil
}

// Published reports whether the episode is visible to public queries at now.
func (e *Episode) Published(now time.Time) bool {
	return !e.PublishDate.After(now)
}

type HeroSlide struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Title     string    `json:"title" gorm:"not null"`
	Subtitle  string    `json:"subtitle"`
	Image     string    `json:"image" gorm:"not null"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (h *HeroSlide) BeforeCreate(tx *gorm.DB) error {
	return assignID(&h.ID)
}

// watch_history table, one row per (user, episode)
type WatchHistory struct {
	UserID        string    `json:"user_id" gorm:"primaryKey;size:36"`
	EpisodeID     string    `json:"episode_id" gorm:"primaryKey;size:36"`
	Progress      float64   `json:"progress" gorm:"not null;default:0"`
	LastWatchedAt time.Time `json:"last_watched_at" gorm:"index"`
}

func (WatchHistory) TableName() string {
	return "watch_history"
}

// ProgressUpdate is pushed to the TCP progress feed after every saved ping.
type ProgressUpdate struct {
	UserID    string  `json:"user_id"`
	EpisodeID string  `json:"episode_id"`
	Progress  float64 `json:"progress"`
	Timestamp int64   `json:"timestamp"`
}

// CatalogEvent is broadcast to websocket subscribers when the admin mutates the catalog.
type CatalogEvent struct {
	Action    string `json:"action"` // created | updated | deleted
	Entity    string `json:"entity"` // category | show | episode | slide
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// All returns every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Show{},
		&Episode{},
		&HeroSlide{},
		&WatchHistory{},
	}
}

func assignID(id *string) error {
	if *id != "" {
		return nil
	}
	v, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v.String()
	return nil
}

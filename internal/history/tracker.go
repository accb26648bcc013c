// Package history records per-user watch progress and lists it back.
package history

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"streamhub/internal/apperr"
	"streamhub/internal/logger"
	"streamhub/internal/metrics"
	"streamhub/pkg/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type ShowRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type EpisodeRef struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	EpNumber  int      `json:"ep_number"`
	Show      *ShowRef `json:"show"`
}

// Entry is a history row joined with its episode. Episode is null once the
// episode has been deleted.
type Entry struct {
	models.WatchHistory
	Episode *EpisodeRef `json:"episode"`
}

// Tracker upserts watch progress. After each write it offers a
// ProgressUpdate to events without blocking; full buffers drop the event.
type Tracker struct {
	db     *gorm.DB
	events chan<- models.ProgressUpdate
	now    func() time.Time
}

func NewTracker(db *gorm.DB, events chan<- models.ProgressUpdate) *Tracker {
	return &Tracker{db: db, events: events, now: time.Now}
}

// UpdateProgress stores progress (seconds) for the pair. A nil progress is
// rejected; zero is a valid position. The episode is not required to exist.
func (t *Tracker) UpdateProgress(ctx context.Context, userID, episodeID string, progress *float64) error {
	episodeID = strings.TrimSpace(episodeID)
	if episodeID == "" || progress == nil {
		return apperr.New(apperr.Validation, "missing fields")
	}
	if *progress < 0 {
		return apperr.New(apperr.Validation, "progress cannot be negative")
	}

	now := t.now().UTC()
	row := models.WatchHistory{
		UserID:        userID,
		EpisodeID:     episodeID,
		Progress:      *progress,
		LastWatchedAt: now,
	}
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "episode_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "last_watched_at"}),
	}).Create(&row).Error
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "save progress")
	}
	metrics.ProgressUpdates.Inc()
	t.offer(models.ProgressUpdate{
		UserID:    userID,
		EpisodeID: episodeID,
		Progress:  *progress,
		Timestamp: now.Unix(),
	})
	return nil
}

func (t *Tracker) offer(evt models.ProgressUpdate) {
	if t.events == nil {
		return
	}
	select {
	case t.events <- evt:
	default:
		metrics.ProgressEventsDropped.Inc()
		logger.Debug("progress feed full, dropping event for ", evt.EpisodeID)
	}
}

// ListHistory returns the user's most recently watched entries first.
// limit <= 0 means DefaultLimit; values above MaxLimit are capped.
func (t *Tracker) ListHistory(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var rows []models.WatchHistory
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_watched_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list history")
	}
	return t.joinEpisodes(ctx, rows)
}

// ShowProgress returns the user's history rows for episodes of one show,
// for resuming playback from the show page.
func (t *Tracker) ShowProgress(ctx context.Context, userID, showID string) ([]models.WatchHistory, error) {
	out := []models.WatchHistory{}
	err := t.db.WithContext(ctx).
		Where("user_id = ? AND episode_id IN (?)", userID,
			t.db.Model(&models.Episode{}).Select("id").Where("show_id = ?", showID)).
		Order("last_watched_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "show progress")
	}
	return out, nil
}

func (t *Tracker) joinEpisodes(ctx context.Context, rows []models.WatchHistory) ([]Entry, error) {
	entries := make([]Entry, len(rows))
	if len(rows) == 0 {
		return entries, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EpisodeID)
	}
	var eps []models.Episode
	if err := t.db.WithContext(ctx).Where("id IN ?", ids).Find(&eps).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "load history episodes")
	}

	showIDs := make([]string, 0, len(eps))
	for _, e := range eps {
		showIDs = append(showIDs, e.ShowID)
	}
	shows := map[string]*ShowRef{}
	if len(showIDs) > 0 {
		var list []models.Show
		if err := t.db.WithContext(ctx).Select("id", "title").Where("id IN ?", showIDs).Find(&list).Error; err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "load history shows")
		}
		for _, s := range list {
			shows[s.ID] = &ShowRef{ID: s.ID, Title: s.Title}
		}
	}

	byID := make(map[string]*EpisodeRef, len(eps))
	for _, e := range eps {
		byID[e.ID] = &EpisodeRef{
			ID:        e.ID,
			Title:     e.Title,
			Thumbnail: e.Thumbnail,
			EpNumber:  e.EpNumber,
			Show:      shows[e.ShowID],
		}
	}
	for i, r := range rows {
		entries[i] = Entry{WatchHistory: r, Episode: byID[r.EpisodeID]}
	}
	return entries, nil
}

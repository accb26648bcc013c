package catalog

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"streamhub/internal/apperr"
	"streamhub/pkg/database"
	"streamhub/pkg/models"
)

// Store persists categories, shows, episodes and hero slides.
// A nil publishedBy means no publish-date gate (admin reads).
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(entity string) error {
	return apperr.New(apperr.NotFound, entity+" not found")
}

func first[T any](ctx context.Context, db *gorm.DB, entity string, query any, args ...any) (*T, error) {
	var out T
	err := db.WithContext(ctx).Where(query, args...).First(&out).Error
	if database.IsNotFound(err) {
		return nil, notFound(entity)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "find "+entity)
	}
	return &out, nil
}

func deleteByID(ctx context.Context, db *gorm.DB, entity string, model any, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, res.Error, "delete "+entity)
	}
	if res.RowsAffected == 0 {
		return notFound(entity)
	}
	return nil
}

func gate(q *gorm.DB, publishedBy *time.Time) *gorm.DB {
	if publishedBy == nil {
		return q
	}
	return q.Where("publish_date <= ?", publishedBy.UTC())
}

// categories

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	out := []models.Category{}
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list categories")
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return first[models.Category](ctx, s.db, "category", "id = ?", id)
}

// SaveCategory inserts or updates c. A duplicate name is apperr.Conflict.
func (s *Store) SaveCategory(ctx context.Context, c *models.Category) error {
	err := s.db.WithContext(ctx).Save(c).Error
	if database.IsDuplicate(err) {
		return apperr.New(apperr.Conflict, "category already exists")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "save category")
	}
	return nil
}

// DeleteCategory leaves the category's shows in place; their category_name reads as null.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "category", &models.Category{}, id)
}

func (s *Store) categoryNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var cats []models.Category
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "load category names")
	}
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

// shows

func (s *Store) ListShows(ctx context.Context, categoryID string) ([]models.Show, error) {
	q := s.db.WithContext(ctx).Order("title").Order("id")
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	out := []models.Show{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list shows")
	}
	return out, nil
}

func (s *Store) GetShow(ctx context.Context, id string) (*models.Show, error) {
	return first[models.Show](ctx, s.db, "show", "id = ?", id)
}

// SearchShows matches term case-insensitively as a literal substring of
// title, genres or description.
func (s *Store) SearchShows(ctx context.Context, term string, limit int) ([]models.Show, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	out := []models.Show{}
	err := s.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(genres) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("title").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "search shows")
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Store) SaveShow(ctx context.Context, show *models.Show) error {
	if err := s.db.WithContext(ctx).Save(show).Error; err != nil {
		return apperr.Wrap(apperr.Internal, err, "save show")
	}
	return nil
}

// DeleteShow removes the show's episodes and then the show in one transaction.
func (s *Store) DeleteShow(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("show_id = ?", id).Delete(&models.Episode{}).Error; err != nil {
			return apperr.Wrap(apperr.Internal, err, "delete episodes")
		}
		return deleteByID(ctx, tx, "show", &models.Show{}, id)
	})
}

func (s *Store) showTitles(ctx context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	var shows []models.Show
	if err := s.db.WithContext(ctx).Select("id", "title").Where("id IN ?", ids).Find(&shows).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "load show titles")
	}
	for _, sh := range shows {
		titles[sh.ID] = sh.Title
	}
	return titles, nil
}

// episodes

func (s *Store) ListEpisodes(ctx context.Context, showID string, publishedBy *time.Time) ([]models.Episode, error) {
	out := []models.Episode{}
	q := gate(s.db.WithContext(ctx).Where("show_id = ?", showID), publishedBy)
	if err := q.Order("ep_number").Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list episodes")
	}
	return out, nil
}

func (s *Store) GetEpisode(ctx context.Context, id string, publishedBy *time.Time) (*models.Episode, error) {
	return first[models.Episode](ctx, gate(s.db, publishedBy), "episode", "id = ?", id)
}

// EpisodeByNumber returns nil without error when the show has no such episode.
func (s *Store) EpisodeByNumber(ctx context.Context, showID string, number int, publishedBy *time.Time) (*models.Episode, error) {
	ep, err := first[models.Episode](ctx, gate(s.db, publishedBy), "episode", "show_id = ? AND ep_number = ?", showID, number)
	if apperr.Is(err, apperr.NotFound) {
		return nil, nil
	}
	return ep, err
}

func (s *Store) SaveEpisode(ctx context.Context, ep *models.Episode) error {
	if err := s.db.WithContext(ctx).Save(ep).Error; err != nil {
		return apperr.Wrap(apperr.Internal, err, "save episode")
	}
	return nil
}

func (s *Store) DeleteEpisode(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "episode", &models.Episode{}, id)
}

// slides

func (s *Store) ListSlides(ctx context.Context) ([]models.HeroSlide, error) {
	out := []models.HeroSlide{}
	if err := s.db.WithContext(ctx).Order("created_at").Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list slides")
	}
	return out, nil
}

func (s *Store) GetSlide(ctx context.Context, id string) (*models.HeroSlide, error) {
	return first[models.HeroSlide](ctx, s.db, "slide", "id = ?", id)
}

func (s *Store) SaveSlide(ctx context.Context, slide *models.HeroSlide) error {
	if err := s.db.WithContext(ctx).Save(slide).Error; err != nil {
		return apperr.Wrap(apperr.Internal, err, "save slide")
	}
	return nil
}

func (s *Store) DeleteSlide(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "slide", &models.HeroSlide{}, id)
}

// counts

func (s *Store) count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "count")
	}
	return n, nil
}

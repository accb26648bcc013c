package catalog

import (
	"context"
	"strings"
	"time"

	"streamhub/internal/apperr"
	"streamhub/pkg/models"
)

// SearchLimit caps the number of shows a search returns.
const SearchLimit = 20

// ShowView is a show with its category name; CategoryName is null when the
// category has been deleted.
type ShowView struct {
	models.Show
	CategoryName *string `json:"category_name"`
}

type EpisodeView struct {
	models.Episode
	ShowTitle     string  `json:"show_title"`
	NextEpisodeID *string `json:"next_episode_id"`
}

// QueryService serves the public catalog. Episodes are visible only once
// their publish date has passed.
type QueryService struct {
	store *Store
	now   func() time.Time
}

func NewQueryService(store *Store) *QueryService {
	return &QueryService{store: store, now: time.Now}
}

func (q *QueryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return q.store.ListCategories(ctx)
}

func (q *QueryService) ListShows(ctx context.Context, categoryID string) ([]ShowView, error) {
	shows, err := q.store.ListShows(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return q.joinCategoryNames(ctx, shows)
}

func (q *QueryService) GetShow(ctx context.Context, id string) (*ShowView, error) {
	show, err := q.store.GetShow(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := q.joinCategoryNames(ctx, []models.Show{*show})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (q *QueryService) ListEpisodes(ctx context.Context, showID string) ([]models.Episode, error) {
	now := q.now()
	return q.store.ListEpisodes(ctx, showID, &now)
}

// GetEpisode returns a published episode with its show title and the id of
// the next published episode (ep_number + 1) of the same show.
func (q *QueryService) GetEpisode(ctx context.Context, id string) (*EpisodeView, error) {
	now := q.now()
	ep, err := q.store.GetEpisode(ctx, id, &now)
	if err != nil {
		return nil, err
	}
	titles, err := q.store.showTitles(ctx, []string{ep.ShowID})
	if err != nil {
		return nil, err
	}
	view := &EpisodeView{Episode: *ep, ShowTitle: titles[ep.ShowID]}

	next, err := q.store.EpisodeByNumber(ctx, ep.ShowID, ep.EpNumber+1, &now)
	if err != nil {
		return nil, err
	}
	if next != nil {
		view.NextEpisodeID = &next.ID
	}
	return view, nil
}

func (q *QueryService) Search(ctx context.Context, term string) ([]ShowView, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.New(apperr.Validation, "query required")
	}
	shows, err := q.store.SearchShows(ctx, term, SearchLimit)
	if err != nil {
		return nil, err
	}
	return q.joinCategoryNames(ctx, shows)
}

func (q *QueryService) ListSlides(ctx context.Context) ([]models.HeroSlide, error) {
	return q.store.ListSlides(ctx)
}

func (q *QueryService) joinCategoryNames(ctx context.Context, shows []models.Show) ([]ShowView, error) {
	ids := make([]string, 0, len(shows))
	for _, s := range shows {
		ids = append(ids, s.CategoryID)
	}
	names, err := q.store.categoryNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]ShowView, len(shows))
	for i, s := range shows {
		views[i].Show = s
		if name, ok := names[s.CategoryID]; ok {
			views[i].CategoryName = &name
		}
	}
	return views, nil
}

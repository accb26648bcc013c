package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"streamhub/internal/apperr"
	"streamhub/internal/logger"
	"streamhub/internal/metrics"
	"streamhub/pkg/models"
)

// Publisher receives catalog change events, e.g. the websocket hub.
type Publisher interface {
	Publish(evt models.CatalogEvent)
}

// Notifier broadcasts short announcements, e.g. the UDP notice channel.
type Notifier interface {
	Broadcast(message string)
}

// Inputs use pointers so updates only touch submitted fields. Upload
// handlers fill the image fields with the stored file's URL.

type CategoryInput struct {
	Name *string `form:"name" json:"name"`
}

type ShowInput struct {
	Title       *string `form:"title" json:"title"`
	Description *string `form:"description" json:"description"`
	Genres      *string `form:"genres" json:"genres"`
	CategoryID  *string `form:"category_id" json:"category_id"`
	Poster      *string `form:"-" json:"poster"`
	Banner      *string `form:"-" json:"banner"`
}

type EpisodeInput struct {
	ShowID      *string `form:"show_id" json:"show_id"`
	EpNumber    *int    `form:"ep_number" json:"ep_number"`
	Title       *string `form:"title" json:"title"`
	Description *string `form:"description" json:"description"`
	DriveURL    *string `form:"drive_url" json:"drive_url"`
	PublishDate *string `form:"publish_date" json:"publish_date"`
	Thumbnail   *string `form:"-" json:"thumbnail"`
}

type SlideInput struct {
	Title    *string `form:"title" json:"title"`
	Subtitle *string `form:"subtitle" json:"subtitle"`
	Link     *string `form:"link" json:"link"`
	Image    *string `form:"-" json:"image"`
}

type Analytics struct {
	Users      int64 `json:"users"`
	Shows      int64 `json:"shows"`
	Episodes   int64 `json:"episodes"`
	DailyViews int64 `json:"daily_views"`
}

// AdminService mutates the catalog on behalf of admins and announces every
// successful change.
type AdminService struct {
	store    *Store
	events   Publisher
	notifier Notifier
	now      func() time.Time
}

func NewAdminService(store *Store, events Publisher, notifier Notifier) *AdminService {
	return &AdminService{store: store, events: events, notifier: notifier, now: time.Now}
}

func (a *AdminService) announce(entity, action, id string) {
	metrics.CatalogMutations.WithLabelValues(entity, action).Inc()
	logger.Infof("admin %s %s %s", action, entity, id)
	if a.events != nil {
		a.events.Publish(models.CatalogEvent{
			Action:    action,
			Entity:    entity,
			ID:        id,
			Timestamp: a.now().Unix(),
		})
	}
}

func required(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.TrimSpace(*v)
	return s, s != ""
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// categories

func (a *AdminService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name, ok := required(in.Name)
	if !ok {
		return nil, apperr.New(apperr.Validation, "name required")
	}
	c := &models.Category{Name: name}
	if err := a.store.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	a.announce("category", "created", c.ID)
	return c, nil
}

func (a *AdminService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	c, err := a.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name, ok := required(in.Name)
		if !ok {
			return nil, apperr.New(apperr.Validation, "name required")
		}
		c.Name = name
	}
	if err := a.store.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	a.announce("category", "updated", c.ID)
	return c, nil
}

func (a *AdminService) DeleteCategory(ctx context.Context, id string) error {
	if err := a.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	a.announce("category", "deleted", id)
	return nil
}

// shows

func (a *AdminService) ListShows(ctx context.Context) ([]models.Show, error) {
	return a.store.ListShows(ctx, "")
}

func (a *AdminService) checkCategory(ctx context.Context, id string) error {
	if _, err := a.store.GetCategory(ctx, id); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return apperr.New(apperr.Validation, "category does not exist")
		}
		return err
	}
	return nil
}

func (a *AdminService) CreateShow(ctx context.Context, in ShowInput) (*models.Show, error) {
	title, ok := required(in.Title)
	if !ok {
		return nil, apperr.New(apperr.Validation, "title required")
	}
	categoryID, ok := required(in.CategoryID)
	if !ok {
		return nil, apperr.New(apperr.Validation, "category_id required")
	}
	if err := a.checkCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	show := &models.Show{Title: title, CategoryID: categoryID}
	assign(&show.Description, in.Description)
	assign(&show.Genres, in.Genres)
	assign(&show.Poster, in.Poster)
	assign(&show.Banner, in.Banner)
	if err := a.store.SaveShow(ctx, show); err != nil {
		return nil, err
	}
	a.announce("show", "created", show.ID)
	return show, nil
}

func (a *AdminService) UpdateShow(ctx context.Context, id string, in ShowInput) (*models.Show, error) {
	show, err := a.store.GetShow(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title, ok := required(in.Title)
		if !ok {
			return nil, apperr.New(apperr.Validation, "title required")
		}
		show.Title = title
	}
	if in.CategoryID != nil {
		categoryID := strings.TrimSpace(*in.CategoryID)
		if err := a.checkCategory(ctx, categoryID); err != nil {
			return nil, err
		}
		show.CategoryID = categoryID
	}
	assign(&show.Description, in.Description)
	assign(&show.Genres, in.Genres)
	assign(&show.Poster, in.Poster)
	assign(&show.Banner, in.Banner)
	if err := a.store.SaveShow(ctx, show); err != nil {
		return nil, err
	}
	a.announce("show", "updated", show.ID)
	return show, nil
}

// DeleteShow deletes the show together with all of its episodes.
func (a *AdminService) DeleteShow(ctx context.Context, id string) error {
	if err := a.store.DeleteShow(ctx, id); err != nil {
		return err
	}
	a.announce("show", "deleted", id)
	return nil
}

// episodes

// ListEpisodes returns every episode of the show, published or not.
func (a *AdminService) ListEpisodes(ctx context.Context, showID string) ([]models.Episode, error) {
	return a.store.ListEpisodes(ctx, showID, nil)
}

func (a *AdminService) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	return a.store.GetEpisode(ctx, id, nil)
}

var publishDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParsePublishDate accepts RFC 3339, an HTML datetime-local value or a bare
// date. Values without a zone are taken as UTC.
func ParsePublishDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range publishDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Newf(apperr.Validation, "invalid publish_date %q", s)
}

func (a *AdminService) applyEpisode(ctx context.Context, ep *models.Episode, in EpisodeInput) error {
	if in.ShowID != nil {
		showID := strings.TrimSpace(*in.ShowID)
		if _, err := a.store.GetShow(ctx, showID); err != nil {
			if apperr.Is(err, apperr.NotFound) {
				return apperr.New(apperr.Validation, "show does not exist")
			}
			return err
		}
		ep.ShowID = showID
	}
	if in.EpNumber != nil {
		if *in.EpNumber < 1 {
			return apperr.New(apperr.Validation, "ep_number must be at least 1")
		}
		ep.EpNumber = *in.EpNumber
	}
	if in.Title != nil {
		title, ok := required(in.Title)
		if !ok {
			return apperr.New(apperr.Validation, "title required")
		}
		ep.Title = title
	}
	if in.DriveURL != nil {
		url, ok := required(in.DriveURL)
		if !ok {
			return apperr.New(apperr.Validation, "drive_url required")
		}
		ep.DriveURL = url
	}
	if in.PublishDate != nil && strings.TrimSpace(*in.PublishDate) != "" {
		t, err := ParsePublishDate(*in.PublishDate)
		if err != nil {
			return err
		}
		ep.PublishDate = t
	}
	assign(&ep.Description, in.Description)
	assign(&ep.Thumbnail, in.Thumbnail)
	return nil
}

func (a *AdminService) CreateEpisode(ctx context.Context, in EpisodeInput) (*models.Episode, error) {
	if _, ok := required(in.ShowID); !ok {
		return nil, apperr.New(apperr.Validation, "show_id required")
	}
	if in.EpNumber == nil {
		return nil, apperr.New(apperr.Validation, "ep_number required")
	}
	if _, ok := required(in.Title); !ok {
		return nil, apperr.New(apperr.Validation, "title required")
	}
	if _, ok := required(in.DriveURL); !ok {
		return nil, apperr.New(apperr.Validation, "drive_url required")
	}

	now := a.now()
	ep := &models.Episode{PublishDate: now.UTC()}
	if err := a.applyEpisode(ctx, ep, in); err != nil {
		return nil, err
	}
	if err := a.store.SaveEpisode(ctx, ep); err != nil {
		return nil, err
	}
	a.announce("episode", "created", ep.ID)
	if ep.Published(now) {
		a.notifyEpisode(ctx, ep)
	}
	return ep, nil
}

func (a *AdminService) notifyEpisode(ctx context.Context, ep *models.Episode) {
	if a.notifier == nil {
		return
	}
	titles, err := a.store.showTitles(ctx, []string{ep.ShowID})
	if err != nil {
		logger.Warning("episode notice skipped:", err)
		return
	}
	a.notifier.Broadcast(fmt.Sprintf("New episode: %s - Episode %d: %s", titles[ep.ShowID], ep.EpNumber, ep.Title))
}

func (a *AdminService) UpdateEpisode(ctx context.Context, id string, in EpisodeInput) (*models.Episode, error) {
	ep, err := a.store.GetEpisode(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if err := a.applyEpisode(ctx, ep, in); err != nil {
		return nil, err
	}
	if err := a.store.SaveEpisode(ctx, ep); err != nil {
		return nil, err
	}
	a.announce("episode", "updated", ep.ID)
	return ep, nil
}

func (a *AdminService) DeleteEpisode(ctx context.Context, id string) error {
	if err := a.store.DeleteEpisode(ctx, id); err != nil {
		return err
	}
	a.announce("episode", "deleted", id)
	return nil
}

// slides

func (a *AdminService) ListSlides(ctx context.Context) ([]models.HeroSlide, error) {
	return a.store.ListSlides(ctx)
}

func (a *AdminService) GetSlide(ctx context.Context, id string) (*models.HeroSlide, error) {
	return a.store.GetSlide(ctx, id)
}

func (a *AdminService) CreateSlide(ctx context.Context, in SlideInput) (*models.HeroSlide, error) {
	title, ok := required(in.Title)
	if !ok {
		return nil, apperr.New(apperr.Validation, "title required")
	}
	image, ok := required(in.Image)
	if !ok {
		return nil, apperr.New(apperr.Validation, "image required")
	}
	slide := &models.HeroSlide{Title: title, Image: image}
	assign(&slide.Subtitle, in.Subtitle)
	assign(&slide.Link, in.Link)
	if err := a.store.SaveSlide(ctx, slide); err != nil {
		return nil, err
	}
	a.announce("slide", "created", slide.ID)
	return slide, nil
}

func (a *AdminService) UpdateSlide(ctx context.Context, id string, in SlideInput) (*models.HeroSlide, error) {
	slide, err := a.store.GetSlide(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title, ok := required(in.Title)
		if !ok {
			return nil, apperr.New(apperr.Validation, "title required")
		}
		slide.Title = title
	}
	assign(&slide.Subtitle, in.Subtitle)
	assign(&slide.Link, in.Link)
	assign(&slide.Image, in.Image)
	if err := a.store.SaveSlide(ctx, slide); err != nil {
		return nil, err
	}
	a.announce("slide", "updated", slide.ID)
	return slide, nil
}

func (a *AdminService) DeleteSlide(ctx context.Context, id string) error {
	if err := a.store.DeleteSlide(ctx, id); err != nil {
		return err
	}
	a.announce("slide", "deleted", id)
	return nil
}

// Analytics counts users, shows and episodes; DailyViews is the number of
// watch history rows touched in the last 24 hours.
func (a *AdminService) Analytics(ctx context.Context) (*Analytics, error) {
	var out Analytics
	var err error
	if out.Users, err = a.store.count(ctx, &models.User{}, ""); err != nil {
		return nil, err
	}
	if out.Shows, err = a.store.count(ctx, &models.Show{}, ""); err != nil {
		return nil, err
	}
	if out.Episodes, err = a.store.count(ctx, &models.Episode{}, ""); err != nil {
		return nil, err
	}
	since := a.now().Add(-24 * time.Hour).UTC()
	if out.DailyViews, err = a.store.count(ctx, &models.WatchHistory{}, "last_watched_at >= ?", since); err != nil {
		return nil, err
	}
	return &out, nil
}

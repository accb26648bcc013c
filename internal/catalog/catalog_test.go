package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamhub/internal/apperr"
	"streamhub/internal/testutil"
	"streamhub/pkg/models"
)

type recorder struct {
	mu      sync.Mutex
	events  []models.CatalogEvent
	notices []string
}

func (r *recorder) Publish(evt models.CatalogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) Broadcast(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store *Store
	query *QueryService
	admin *AdminService
	rec   *recorder
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewStore(testutil.NewDB(t))
	rec := &recorder{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		store: store,
		query: NewQueryService(store),
		admin: NewAdminService(store, rec, rec),
		rec:   rec,
		now:   now,
	}
	f.query.now = func() time.Time { return now }
	f.admin.now = func() time.Time { return now }
	return f
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := f.admin.CreateCategory(context.Background(), CategoryInput{Name: ptr(name)})
	require.NoError(t, err)
	return c
}

func (f *fixture) show(t *testing.T, title, categoryID string) *models.Show {
	t.Helper()
	s, err := f.admin.CreateShow(context.Background(), ShowInput{Title: ptr(title), CategoryID: ptr(categoryID)})
	require.NoError(t, err)
	return s
}

func (f *fixture) episode(t *testing.T, showID string, n int, publish time.Time) *models.Episode {
	t.Helper()
	ep, err := f.admin.CreateEpisode(context.Background(), EpisodeInput{
		ShowID:      ptr(showID),
		EpNumber:    ptr(n),
		Title:       ptr("Episode"),
		DriveURL:    ptr("https://drive.example/" + showID),
		PublishDate: ptr(publish.Format(time.RFC3339)),
	})
	require.NoError(t, err)
	return ep
}

func TestCategoriesSortedAndUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, "Popular")
	f.category(t, "Anime")

	_, err := f.admin.CreateCategory(ctx, CategoryInput{Name: ptr("Anime")})
	assert.True(t, apperr.Is(err, apperr.Conflict))
	_, err = f.admin.CreateCategory(ctx, CategoryInput{Name: ptr("  ")})
	assert.True(t, apperr.Is(err, apperr.Validation))

	cats, err := f.query.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Anime", cats[0].Name)
	assert.Equal(t, "Popular", cats[1].Name)
}

func TestShowsJoinCategoryName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	anime := f.category(t, "Anime")
	drama := f.category(t, "K-Drama")
	f.show(t, "Naruto", anime.ID)
	f.show(t, "Bleach", anime.ID)
	f.show(t, "Goblin", drama.ID)

	all, err := f.query.ListShows(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Bleach", "Goblin", "Naruto"}, []string{all[0].Title, all[1].Title, all[2].Title})

	animeOnly, err := f.query.ListShows(ctx, anime.ID)
	require.NoError(t, err)
	require.Len(t, animeOnly, 2)
	for _, s := range animeOnly {
		require.NotNil(t, s.CategoryName)
		assert.Equal(t, "Anime", *s.CategoryName)
	}

	// shows outlive their category
	require.NoError(t, f.admin.DeleteCategory(ctx, drama.ID))
	views, err := f.query.ListShows(ctx, drama.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].CategoryName)
}

func TestCreateShowValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	anime := f.category(t, "Anime")

	_, err := f.admin.CreateShow(ctx, ShowInput{CategoryID: ptr(anime.ID)})
	assert.True(t, apperr.Is(err, apperr.Validation))
	_, err = f.admin.CreateShow(ctx, ShowInput{Title: ptr("X"), CategoryID: ptr("missing")})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = f.query.GetShow(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateShowIsPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	anime := f.category(t, "Anime")
	show, err := f.admin.CreateShow(ctx, ShowInput{
		Title:       ptr("Naruto"),
		Description: ptr("ninja"),
		Genres:      ptr("Action,Adventure"),
		CategoryID:  ptr(anime.ID),
		Poster:      ptr("/uploads/images/poster-1.png"),
	})
	require.NoError(t, err)

	updated, err := f.admin.UpdateShow(ctx, show.ID, ShowInput{Title: ptr("Naruto Shippuden")})
	require.NoError(t, err)
	assert.Equal(t, "Naruto Shippuden", updated.Title)
	assert.Equal(t, "ninja", updated.Description)
	assert.Equal(t, "/uploads/images/poster-1.png", updated.Poster)

	got, err := f.query.GetShow(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, "Naruto Shippuden", got.Title)
	assert.Equal(t, "Action,Adventure", got.Genres)

	_, err = f.admin.UpdateShow(ctx, "missing", ShowInput{Title: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestEpisodePublishGating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	show := f.show(t, "Naruto", f.category(t, "Anime").ID)

	ep1 := f.episode(t, show.ID, 1, f.now.Add(-48*time.Hour))
	ep2 := f.episode(t, show.ID, 2, f.now.Add(-time.Hour))
	ep3 := f.episode(t, show.ID, 3, f.now.Add(24*time.Hour))

	public, err := f.query.ListEpisodes(ctx, show.ID)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, ep1.ID, public[0].ID)
	assert.Equal(t, ep2.ID, public[1].ID)

	all, err := f.admin.ListEpisodes(ctx, show.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.query.GetEpisode(ctx, ep3.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	adminEp, err := f.admin.GetEpisode(ctx, ep3.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, adminEp.EpNumber)

	// ep2's successor is not yet published
	view, err := f.query.GetEpisode(ctx, ep2.ID)
	require.NoError(t, err)
	assert.Nil(t, view.NextEpisodeID)

	view, err = f.query.GetEpisode(ctx, ep1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Naruto", view.ShowTitle)
	require.NotNil(t, view.NextEpisodeID)
	assert.Equal(t, ep2.ID, *view.NextEpisodeID)
}

func TestCreateEpisodeValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	show := f.show(t, "Naruto", f.category(t, "Anime").ID)

	tests := []struct {
		name string
		in   EpisodeInput
	}{
		{"no show", EpisodeInput{EpNumber: ptr(1), Title: ptr("a"), DriveURL: ptr("u")}},
		{"unknown show", EpisodeInput{ShowID: ptr("nope"), EpNumber: ptr(1), Title: ptr("a"), DriveURL: ptr("u")}},
		{"no number", EpisodeInput{ShowID: ptr(show.ID), Title: ptr("a"), DriveURL: ptr("u")}},
		{"zero number", EpisodeInput{ShowID: ptr(show.ID), EpNumber: ptr(0), Title: ptr("a"), DriveURL: ptr("u")}},
		{"no title", EpisodeInput{ShowID: ptr(show.ID), EpNumber: ptr(1), DriveURL: ptr("u")}},
		{"no drive url", EpisodeInput{ShowID: ptr(show.ID), EpNumber: ptr(1), Title: ptr("a")}},
		{"bad date", EpisodeInput{ShowID: ptr(show.ID), EpNumber: ptr(1), Title: ptr("a"), DriveURL: ptr("u"), PublishDate: ptr("tomorrow")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.admin.CreateEpisode(ctx, tt.in)
			assert.True(t, apperr.Is(err, apperr.Validation), "got %v", err)
		})
	}
}

func TestCreateEpisodeDefaultsAndNotice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	show := f.show(t, "Naruto", f.category(t, "Anime").ID)

	ep, err := f.admin.CreateEpisode(ctx, EpisodeInput{
		ShowID: ptr(show.ID), EpNumber: ptr(1), Title: ptr("Enter"), DriveURL: ptr("https://drive.example/1"),
	})
	require.NoError(t, err)
	assert.True(t, ep.PublishDate.Equal(f.now))
	require.Len(t, f.rec.notices, 1)
	assert.Contains(t, f.rec.notices[0], "Naruto")

	// future episodes are announced on the websocket only
	f.episode(t, show.ID, 2, f.now.Add(time.Hour))
	assert.Len(t, f.rec.notices, 1)
}

func TestParsePublishDate(t *testing.T) {
	for _, s := range []string{"2026-03-01T12:00:00Z", "2026-03-01T12:00", "2026-03-01T12:00:00"} {
		got, err := ParsePublishDate(s)
		require.NoError(t, err, s)
		assert.True(t, got.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)), s)
	}
	got, err := ParsePublishDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParsePublishDate("2026-03-01T14:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 12, got.Hour())
}

func TestDeleteShowCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	anime := f.category(t, "Anime")
	show := f.show(t, "Naruto", anime.ID)
	other := f.show(t, "Bleach", anime.ID)
	for n := 1; n <= 3; n++ {
		f.episode(t, show.ID, n, f.now.Add(-time.Hour))
	}
	kept := f.episode(t, other.ID, 1, f.now.Add(-time.Hour))

	require.NoError(t, f.admin.DeleteShow(ctx, show.ID))

	left, err := f.admin.ListEpisodes(ctx, show.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	_, err = f.query.GetShow(ctx, show.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = f.admin.GetEpisode(ctx, kept.ID)
	assert.NoError(t, err)

	err = f.admin.DeleteShow(ctx, show.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	anime := f.category(t, "Anime")
	_, err := f.admin.CreateShow(ctx, ShowInput{Title: ptr("Attack on Titan"), Genres: ptr("Action,Drama"), CategoryID: ptr(anime.ID)})
	require.NoError(t, err)
	_, err = f.admin.CreateShow(ctx, ShowInput{Title: ptr("Spy x Family"), Description: ptr("100% wholesome"), CategoryID: ptr(anime.ID)})
	require.NoError(t, err)
	_, err = f.admin.CreateShow(ctx, ShowInput{Title: ptr("Goblin"), Genres: ptr("Romance"), CategoryID: ptr(anime.ID)})
	require.NoError(t, err)

	_, err = f.query.Search(ctx, "   ")
	assert.True(t, apperr.Is(err, apperr.Validation))

	res, err := f.query.Search(ctx, "TITAN")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Attack on Titan", res[0].Title)
	require.NotNil(t, res[0].CategoryName)
	assert.Equal(t, "Anime", *res[0].CategoryName)

	res, err = f.query.Search(ctx, "drama")
	require.NoError(t, err)
	assert.Len(t, res, 1)

	// wildcards are literal
	res, err = f.query.Search(ctx, "%")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Spy x Family", res[0].Title)

	res, err = f.query.Search(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearchLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	anime := f.category(t, "Anime")
	for i := 0; i < SearchLimit+5; i++ {
		f.show(t, "Show "+string(rune('A'+i)), anime.ID)
	}
	res, err := f.query.Search(ctx, "show")
	require.NoError(t, err)
	assert.Len(t, res, SearchLimit)
}

func TestSlides(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.admin.CreateSlide(ctx, SlideInput{Title: ptr("Hero")})
	require.Error(t, err)
	assert.Equal(t, "image required", apperr.Message(err))

	first, err := f.admin.CreateSlide(ctx, SlideInput{Title: ptr("One"), Image: ptr("/uploads/slides/a.png")})
	require.NoError(t, err)
	second, err := f.admin.CreateSlide(ctx, SlideInput{Title: ptr("Two"), Image: ptr("/uploads/slides/b.png")})
	require.NoError(t, err)

	slides, err := f.query.ListSlides(ctx)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, first.ID, slides[0].ID)
	assert.Equal(t, second.ID, slides[1].ID)

	updated, err := f.admin.UpdateSlide(ctx, first.ID, SlideInput{Subtitle: ptr("now streaming")})
	require.NoError(t, err)
	assert.Equal(t, "One", updated.Title)
	assert.Equal(t, "/uploads/slides/a.png", updated.Image)

	require.NoError(t, f.admin.DeleteSlide(ctx, first.ID))
	_, err = f.admin.GetSlide(ctx, first.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMutationsPublishEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Anime")
	_, err := f.admin.UpdateCategory(ctx, c.ID, CategoryInput{Name: ptr("Animation")})
	require.NoError(t, err)
	require.NoError(t, f.admin.DeleteCategory(ctx, c.ID))

	require.Len(t, f.rec.events, 3)
	assert.Equal(t, []string{"created", "updated", "deleted"},
		[]string{f.rec.events[0].Action, f.rec.events[1].Action, f.rec.events[2].Action})
	for _, e := range f.rec.events {
		assert.Equal(t, "category", e.Entity)
		assert.Equal(t, c.ID, e.ID)
	}

	err = f.admin.DeleteCategory(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Len(t, f.rec.events, 3)
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	db := f.store.db
	show := f.show(t, "Naruto", f.category(t, "Anime").ID)
	ep := f.episode(t, show.ID, 1, f.now.Add(-time.Hour))
	require.NoError(t, db.Create(&models.User{Username: "alice", PasswordHash: "x"}).Error)
	require.NoError(t, db.Create(&models.WatchHistory{UserID: "u1", EpisodeID: ep.ID, LastWatchedAt: f.now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.WatchHistory{UserID: "u2", EpisodeID: ep.ID, LastWatchedAt: f.now.Add(-48 * time.Hour)}).Error)

	stats, err := f.admin.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, Analytics{Users: 1, Shows: 1, Episodes: 1, DailyViews: 1}, *stats)
}

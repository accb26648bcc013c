package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/gorm"

	"streamhub/internal/auth"
	"streamhub/internal/catalog"
	"streamhub/internal/history"
	"streamhub/internal/testutil"
	"streamhub/pkg/models"
)

type env struct {
	client *CatalogClient
	db     *gorm.DB
	users  *auth.Signer
	events chan models.ProgressUpdate
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	events := make(chan models.ProgressUpdate, 8)
	users := auth.NewSigner(auth.KindUser, []byte("user-secret"), time.Hour)
	store := catalog.NewStore(db)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterCatalogServiceServer(srv, NewServer(catalog.NewQueryService(store), history.NewTracker(db, events), users))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &env{client: NewCatalogClient(conn), db: db, users: users, events: events}
}

func (e *env) seed(t *testing.T) (*models.Show, *models.Episode) {
	t.Helper()
	cat := &models.Category{Name: "Anime"}
	require.NoError(t, e.db.Create(cat).Error)
	show := &models.Show{Title: "Cowboy Bebop", Genres: "Sci-Fi,Noir", CategoryID: cat.ID}
	require.NoError(t, e.db.Create(show).Error)
	ep := &models.Episode{ShowID: show.ID, EpNumber: 1, Title: "Asteroid Blues", DriveURL: "u", PublishDate: time.Now().Add(-time.Hour)}
	require.NoError(t, e.db.Create(ep).Error)
	future := &models.Episode{ShowID: show.ID, EpNumber: 2, Title: "Stray Dog Strut", DriveURL: "u", PublishDate: time.Now().Add(time.Hour)}
	require.NoError(t, e.db.Create(future).Error)
	return show, ep
}

func TestCatalogReads(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	show, ep := e.seed(t)

	got, err := e.client.GetShow(ctx, &GetShowRequest{ID: show.ID})
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", got.Title)
	require.NotNil(t, got.CategoryName)
	assert.Equal(t, "Anime", *got.CategoryName)

	_, err = e.client.GetShow(ctx, &GetShowRequest{ID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	found, err := e.client.SearchShows(ctx, &SearchShowsRequest{Query: "noir"})
	require.NoError(t, err)
	require.Len(t, found.Shows, 1)

	_, err = e.client.SearchShows(ctx, &SearchShowsRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	eps, err := e.client.ListEpisodes(ctx, &ListEpisodesRequest{ShowID: show.ID})
	require.NoError(t, err)
	require.Len(t, eps.Episodes, 1)
	assert.Equal(t, ep.ID, eps.Episodes[0].ID)
}

func TestUpdateProgressRequiresToken(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, ep := e.seed(t)
	progress := 33.0
	req := &UpdateProgressRequest{EpisodeID: ep.ID, Progress: &progress}

	_, err := e.client.UpdateProgress(ctx, req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer nope")
	_, err = e.client.UpdateProgress(bad, req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	tok, err := e.users.Issue(auth.Principal{ID: "u1", Username: "alice"})
	require.NoError(t, err)
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
	resp, err := e.client.UpdateProgress(authed, req)
	require.NoError(t, err)
	assert.Equal(t, "Progress saved.", resp.Message)

	var row models.WatchHistory
	require.NoError(t, e.db.First(&row, "user_id = ? AND episode_id = ?", "u1", ep.ID).Error)
	assert.Equal(t, 33.0, row.Progress)

	select {
	case evt := <-e.events:
		assert.Equal(t, "u1", evt.UserID)
	default:
		t.Fatal("expected progress event")
	}

	_, err = e.client.UpdateProgress(authed, &UpdateProgressRequest{EpisodeID: ep.ID})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

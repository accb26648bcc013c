package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"streamhub/internal/apperr"
	"streamhub/internal/testutil"
	"streamhub/internal/user"
	"streamhub/pkg/database"
)

func newTestService(t *testing.T) (*Service, *Signer, *Signer, *user.Repo) {
	t.Helper()
	db := testutil.NewDB(t)
	_, err := database.SeedAdmin(db, "admin", "admin", bcrypt.DefaultCost)
	require.NoError(t, err)

	userSigner := NewSigner(KindUser, []byte("user-secret"), 7*24*time.Hour)
	adminSigner := NewSigner(KindAdmin, []byte("admin-secret"), 12*time.Hour)
	users := user.NewRepo(db)
	return NewService(users, userSigner, adminSigner, bcrypt.DefaultCost), userSigner, adminSigner, users
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, userSigner, _, users := newTestService(t)

	tokA, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.True(t, apperr.Is(err, apperr.InvalidCredentials))

	tokB, err := svc.Login(ctx, "alice", "pw123")
	require.NoError(t, err)

	pa, err := userSigner.Verify(tokA)
	require.NoError(t, err)
	pb, err := userSigner.Verify(tokB)
	require.NoError(t, err)
	assert.Equal(t, pa.ID, pb.ID)
	assert.Equal(t, "alice", pb.Username)
	assert.False(t, pb.IsAdmin)

	u, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, pa.ID)
	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cost, 10)
}

func TestLoginWithPaddedUsername(t *testing.T) {
	ctx := context.Background()
	svc, userSigner, adminSigner, _ := newTestService(t)

	tokA, err := svc.Register(ctx, " bob ", "pw123")
	require.NoError(t, err)
	tokB, err := svc.Login(ctx, " bob ", "pw123")
	require.NoError(t, err)

	pa, err := userSigner.Verify(tokA)
	require.NoError(t, err)
	pb, err := userSigner.Verify(tokB)
	require.NoError(t, err)
	assert.Equal(t, pa.ID, pb.ID)
	assert.Equal(t, "bob", pb.Username)

	_, err = svc.Login(ctx, "bob", "pw123")
	require.NoError(t, err)

	tok, err := svc.AdminLogin(ctx, "  admin", "admin")
	require.NoError(t, err)
	p, err := adminSigner.Verify(tok)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
}

func TestRegisterConflictCreatesNothing(t *testing.T) {
	ctx := context.Background()
	svc, _, _, users := newTestService(t)

	_, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)
	before, err := users.Count(ctx)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other")
	assert.True(t, apperr.Is(err, apperr.Conflict))

	after, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), "", "pw")
	assert.True(t, apperr.Is(err, apperr.Validation))
	_, err = svc.Register(context.Background(), "bob", "")
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestLoginUnknownUserIsGeneric(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, errUnknown := svc.Login(context.Background(), "ghost", "pw")
	_, errWrong := svc.Login(context.Background(), "admin", "nope")
	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, apperr.Message(errUnknown), apperr.Message(errWrong))
	assert.True(t, apperr.Is(errUnknown, apperr.InvalidCredentials))
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, adminSigner, _ := newTestService(t)
	_, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		kind     apperr.Kind
		ok       bool
	}{
		{"admin ok", "admin", "admin", 0, true},
		{"admin wrong password", "admin", "bad", apperr.InvalidCredentials, false},
		{"non-admin right password", "alice", "pw123", apperr.Forbidden, false},
		{"non-admin wrong password", "alice", "bad", apperr.Forbidden, false},
		{"unknown user", "ghost", "x", apperr.Forbidden, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := svc.AdminLogin(ctx, tt.username, tt.password)
			if !tt.ok {
				assert.True(t, apperr.Is(err, tt.kind), "got %v", err)
				return
			}
			require.NoError(t, err)
			p, err := adminSigner.Verify(tok)
			require.NoError(t, err)
			assert.True(t, p.IsAdmin)
			assert.Equal(t, "admin", p.Username)
		})
	}
}

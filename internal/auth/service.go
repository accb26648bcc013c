package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"streamhub/internal/apperr"
	"streamhub/internal/metrics"
	"streamhub/internal/user"
	"streamhub/pkg/models"
)

var errInvalidCredentials = apperr.New(apperr.InvalidCredentials, "invalid credentials")

// Service registers and authenticates users against the credential store.
type Service struct {
	users       *user.Repo
	userTokens  *Signer
	adminTokens *Signer
	cost        int
}

func NewService(users *user.Repo, userTokens, adminTokens *Signer, bcryptCost int) *Service {
	if bcryptCost < bcrypt.DefaultCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, userTokens: userTokens, adminTokens: adminTokens, cost: bcryptCost}
}

// Register, Login and AdminLogin all look names up through normalizeUsername.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return "", apperr.New(apperr.Validation, "username and password required")
	}

	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperr.New(apperr.Conflict, "username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "hash password")
	}
	u := &models.User{Username: username, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return s.userTokens.Issue(Principal{ID: u.ID, Username: u.Username})
}

// Login does not distinguish an unknown username from a wrong password.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return "", apperr.New(apperr.Validation, "username and password required")
	}
	u, err := s.users.FindByUsername(ctx, username)
	if apperr.Is(err, apperr.NotFound) {
		metrics.AuthFailures.WithLabelValues("login_unknown_user").Inc()
		return "", errInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		metrics.AuthFailures.WithLabelValues("login_bad_password").Inc()
		return "", errInvalidCredentials
	}
	return s.userTokens.Issue(Principal{ID: u.ID, Username: u.Username})
}

// AdminLogin rejects non-admins with Forbidden before the password is compared.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (string, error) {
	username = normalizeUsername(username)
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil && !apperr.Is(err, apperr.NotFound) {
		return "", err
	}
	if u == nil || !u.IsAdmin {
		metrics.AuthFailures.WithLabelValues("admin_login_forbidden").Inc()
		return "", apperr.New(apperr.Forbidden, "access denied")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		metrics.AuthFailures.WithLabelValues("admin_login_bad_password").Inc()
		return "", errInvalidCredentials
	}
	return s.adminTokens.Issue(Principal{ID: u.ID, Username: u.Username, IsAdmin: true})
}

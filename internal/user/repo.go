package user

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"streamhub/internal/apperr"
	"streamhub/pkg/database"
	"streamhub/pkg/models"
)

// Repo is the credential store. It never deletes users.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Create inserts u. A username collision is reported as apperr.Conflict.
func (r *Repo) Create(ctx context.Context, u *models.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if database.IsDuplicate(err) {
		return apperr.New(apperr.Conflict, "username already exists")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "create user")
	}
	return nil
}

// FindByUsername returns apperr.NotFound when no such user exists.
func (r *Repo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "find user")
	}
	return &u, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "find user")
	}
	return &u, nil
}

func (r *Repo) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, apperr.Wrap(apperr.Internal, err, "count users")
	}
	return count > 0, nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

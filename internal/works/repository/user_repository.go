package repository

import (
	"context"
	"errors"

	"github.com/civista/nirman/internal/works/entity"
	"gorm.io/gorm"
)

// UserRepository reads the mirrored identity directory.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads a batch of users keyed by id, for timeline display joins.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.User, error) {
	if len(ids) == 0 {
		return map[string]entity.User{}, nil
	}
	var users []entity.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

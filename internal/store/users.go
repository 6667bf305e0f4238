package store

import (
	"context"
	"fmt"

	"yatube/internal/models"
)

// CreateUser inserts u and fills its ID. ErrDuplicate when the username is taken.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, translate(err))
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// DeleteUser removes the user; their posts, comments and follow edges go with them.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStaff grants or revokes the staff flag.
func (s *Store) SetStaff(ctx context.Context, username string, staff bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Update("is_staff", staff)
	if res.Error != nil {
		return fmt.Errorf("set staff for %q: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"yatube/internal/models"
)

// Follow records that userID follows authorID. It reports whether a new edge
// was created; following yourself or an author you already follow is a no-op.
// The unique index on the pair makes concurrent requests safe.
func (s *Store) Follow(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == authorID {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{UserID: userID, AuthorID: authorID})
	if res.Error != nil {
		return false, fmt.Errorf("follow %d -> %d: %w", userID, authorID, translate(res.Error))
	}
	return res.RowsAffected > 0, nil
}

// Unfollow deletes the edge if present and reports whether one was removed.
func (s *Store) Unfollow(ctx context.Context, userID, authorID uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("unfollow %d -> %d: %w", userID, authorID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow %d -> %d: %w", userID, authorID, err)
	}
	return n > 0, nil
}

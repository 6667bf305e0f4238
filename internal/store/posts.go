package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yatube/internal/models"
)

// PostFilter narrows a post listing. Zero fields are ignored, so the zero
// value lists every post.
type PostFilter struct {
	GroupID  uint
	AuthorID uint
	// FollowerID selects posts by authors this user follows.
	FollowerID uint
}

func (s *Store) postScope(f PostFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.GroupID != 0 {
			db = db.Where("posts.group_id = ?", f.GroupID)
		}
		if f.AuthorID != 0 {
			db = db.Where("posts.author_id = ?", f.AuthorID)
		}
		if f.FollowerID != 0 {
			followed := s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", f.FollowerID)
			db = db.Where("posts.author_id IN (?)", followed)
		}
		return db
	}
}

// CreatePost inserts p. Only the foreign keys are written, never the
// associated author or group rows.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", translate(err))
	}
	return nil
}

// PostByID loads a post with its author and group.
func (s *Store) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpdatePost writes text, group, image and author of p.
func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	res := s.db.WithContext(ctx).
		Model(&models.Post{ID: p.ID}).
		Omit(clause.Associations).
		Select("text", "group_id", "image", "author_id").
		Updates(map[string]any{
			"text":      p.Text,
			"group_id":  p.GroupID,
			"image":     p.Image,
			"author_id": p.AuthorID,
		})
	if res.Error != nil {
		return fmt.Errorf("update post %d: %w", p.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes the post and, through the foreign key, its comments.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountPosts(ctx context.Context, f PostFilter) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).Scopes(s.postScope(f)).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// ListPosts returns one window of matching posts, newest first.
func (s *Store) ListPosts(ctx context.Context, f PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Scopes(s.postScope(f)).
		Order("posts.created_at DESC, posts.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

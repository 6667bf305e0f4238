package models

import (
	"strings"
	"time"
)

// User is the identity that authors posts and comments and follows authors.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	Email        string `gorm:"size:254"`
	PasswordHash string `gorm:"not null"`
	IsStaff      bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

// DisplayName is "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Group is a community posts may optionally belong to.
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:20;uniqueIndex;not null"`
	Description string `gorm:"type:text;not null"`
	CreatedAt   time.Time
}

type Post struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	Image     string    `gorm:"size:255"` // blob reference, empty when none
	CreatedAt time.Time `gorm:"index"`
	AuthorID  uint      `gorm:"not null;index"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE"`
	GroupID   *uint     `gorm:"index"`
	Group     *Group    `gorm:"constraint:OnDelete:SET NULL"`
}

// Excerpt is the first 15 characters of the text.
func (p Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}

type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	PostID    uint `gorm:"not null;index"`
	Post      Post `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint `gorm:"not null;index"`
	Author    User `gorm:"constraint:OnDelete:CASCADE"`
}

// Follow is a directed edge: User receives Author's posts in their feed.
// A pair is stored at most once and a user never follows themselves.
type Follow struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_follows_pair"`
	User      User `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_follows_pair;index;check:chk_follows_not_self,user_id <> author_id"`
	Author    User `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// All lists the models in migration order.
func All() []any {
	return []any{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}

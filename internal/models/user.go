// Package models contains data structures for the application's domain models.
package models

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultProfilePicBase is the placeholder image service used for new accounts.
const DefaultProfilePicBase = "https://via.placeholder.com/150?text="

// User represents an account. Follow relationships live in the follows table and are
// attached to read responses as counts and summaries.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Username   string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password   string    `gorm:"not null" json:"-"`
	ProfilePic string    `gorm:"type:text" json:"profile_pic"`
	Bio        string    `gorm:"type:text" json:"bio"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	FollowersCount int64         `gorm:"-" json:"followers_count"`
	FollowingCount int64         `gorm:"-" json:"following_count"`
	Followers      []UserSummary `gorm:"-" json:"followers,omitempty"`
	Following      []UserSummary `gorm:"-" json:"following,omitempty"`
}

// UserSummary is the embedded projection of a user used in read responses.
type UserSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
	}
}

// Summaries projects a slice of users.
func Summaries(users []User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}

// DefaultProfilePic derives the placeholder picture from the first letter of name.
func DefaultProfilePic(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultProfilePicBase
	}
	r, _ := utf8.DecodeRuneInString(name)
	return DefaultProfilePicBase + url.QueryEscape(strings.ToUpper(string(r)))
}

package models

import "time"

// Post represents a post with an optional image.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Caption   string    `gorm:"type:text;not null" json:"caption"`
	Image     string    `gorm:"type:text" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"comments"`

	// Computed per request
	Likes      []uint `gorm:"-" json:"likes"`
	LikesCount int64  `gorm:"-" json:"likes_count"`
	Liked      bool   `gorm:"-" json:"liked"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// Like records that UserID liked PostID.
type Like struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// LikeResult is returned by like and unlike.
type LikeResult struct {
	Likes      []uint `json:"likes"`
	LikesCount int64  `json:"likes_count"`
	Liked      bool   `json:"liked"`
}

// Comment is a text reply on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

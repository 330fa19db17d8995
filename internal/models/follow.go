package models

import "time"

// Follow is a directed edge: FollowerID follows FolloweeID.
// The following and followers views of a user are the forward and reverse
// lookups over this single table.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// RelationshipStats is the follower/following summary for a profile.
type RelationshipStats struct {
	UserID         uint   `json:"user_id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	ProfilePic     string `json:"profile_pic"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
}

// Relationship describes how a viewer relates to another user.
type Relationship struct {
	Following  bool `json:"following"`
	FollowedBy bool `json:"followed_by"`
	Mutual     bool `json:"mutual"`
}

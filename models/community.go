package models

import "time"

// Support group categories.
const (
	GroupCategoryCondition = "condition"
	GroupCategoryLifestyle = "lifestyle"
)

// Reaction types.
const (
	ReactionLike      = "like"
	ReactionCelebrate = "celebrate"
	ReactionSupport   = "support"
)

// SupportGroup is a peer community around a condition or lifestyle.
type SupportGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:20;not null" json:"category"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupMembership records that a user joined a group.
type GroupMembership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_member,priority:1" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_member,priority:2;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// ForumPost is a message posted inside a support group.
type ForumPost struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	GroupID     uint           `gorm:"not null;index" json:"group_id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	IsMilestone bool           `gorm:"not null;default:false" json:"is_milestone"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	User        User           `json:"author"`
	Comments    []ForumComment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

// ForumComment is a reply to a forum post.
type ForumComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"author"`
}

// ForumReaction is one user's reaction of one type to a post.
type ForumReaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;uniqueIndex:idx_post_reaction,priority:1" json:"post_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_post_reaction,priority:2" json:"user_id"`
	ReactionType string    `gorm:"size:20;not null;uniqueIndex:idx_post_reaction,priority:3" json:"reaction_type"`
	CreatedAt    time.Time `json:"created_at"`
}

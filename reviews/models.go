package reviews

import (
	"time"

	"yamdb-api/catalog"
	"yamdb-api/common"
	"yamdb-api/users"
)

// ReviewModel is a scored review of a title. A user writes at most one
// review per title, enforced by the composite unique index.
type ReviewModel struct {
	ID       uint                `gorm:"primaryKey" json:"id"`
	Text     string              `gorm:"type:text;not null" json:"text"`
	Score    int                 `gorm:"not null;check:score >= 1 AND score <= 10" json:"score"`
	AuthorID uint                `gorm:"not null;uniqueIndex:idx_reviews_title_author" json:"-"`
	Author   *users.UserModel    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TitleID  uint                `gorm:"not null;uniqueIndex:idx_reviews_title_author" json:"-"`
	Title    *catalog.TitleModel `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PubDate  time.Time           `gorm:"not null;autoCreateTime" json:"pub_date"`
}

// CommentModel is a comment on a review
type CommentModel struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	Text     string           `gorm:"type:text;not null" json:"text"`
	AuthorID uint             `gorm:"not null;index" json:"-"`
	Author   *users.UserModel `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ReviewID uint             `gorm:"not null;index" json:"-"`
	Review   *ReviewModel     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PubDate  time.Time        `gorm:"not null;autoCreateTime" json:"pub_date"`
}

func (ReviewModel) TableName() string  { return "reviews" }
func (CommentModel) TableName() string { return "comments" }

// AutoMigrate creates the reviews and comments tables
func AutoMigrate() {
	db := common.GetDB()
	db.AutoMigrate(&ReviewModel{}, &CommentModel{})
}

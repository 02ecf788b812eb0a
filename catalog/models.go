package catalog

import (
	"yamdb-api/common"
)

// CategoryModel is a title category (one per title)
type CategoryModel struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"not null;size:256;index" json:"name"`
	Slug string `gorm:"uniqueIndex;not null;size:50" json:"slug"`
}

// GenreModel is a title genre (many per title)
type GenreModel struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"not null;size:256;index" json:"name"`
	Slug string `gorm:"uniqueIndex;not null;size:50" json:"slug"`
}

// TitleModel is a work that reviews are written about
type TitleModel struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;index" json:"name"`
	Year        int            `gorm:"not null" json:"year"`
	Description string         `gorm:"type:text" json:"description"`
	CategoryID  *uint          `json:"-"`
	Category    *CategoryModel `gorm:"constraint:OnDelete:SET NULL" json:"category"`
	Genres      []GenreModel   `gorm:"many2many:title_genres;joinForeignKey:TitleID;joinReferences:GenreID" json:"genre"`
}

func (CategoryModel) TableName() string { return "categories" }
func (GenreModel) TableName() string    { return "genres" }
func (TitleModel) TableName() string    { return "titles" }

// AutoMigrate creates the catalog tables
func AutoMigrate() {
	db := common.GetDB()
	db.AutoMigrate(&CategoryModel{}, &GenreModel{}, &TitleModel{})
}

package catalog

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// orderings maps the public ordering keys to SQL columns
var orderings = map[string]string{
	"name":     "titles.name",
	"year":     "titles.year",
	"category": "titles.category_id",
	"genre":    "titles.id",
}

// ApplyTitleFilters narrows and orders a titles query from query parameters:
// category (slug), genre (slug), name (substring), year (exact), ordering.
func ApplyTitleFilters(c *gin.Context, query *gorm.DB) *gorm.DB {
	if category := c.Query("category"); category != "" {
		query = query.
			Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", category)
	}
	if genre := c.Query("genre"); genre != "" {
		query = query.
			Joins("JOIN title_genres ON title_genres.title_id = titles.id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", genre)
	}
	if name := c.Query("name"); name != "" {
		query = query.Where("titles.name LIKE ?", "%"+name+"%")
	}
	if yearStr := c.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			query = query.Where("titles.year = ?", year)
		}
	}

	order := "titles.name"
	if param := c.Query("ordering"); param != "" {
		desc := strings.HasPrefix(param, "-")
		key := strings.TrimPrefix(param, "-")
		if column, ok := orderings[key]; ok {
			order = column
			if desc {
				order += " DESC"
			}
		}
	}
	return query.Order(order)
}

package catalog

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	slugify "github.com/gosimple/slug"
	"gorm.io/gorm"

	"yamdb-api/common"
	"yamdb-api/users"
)

// RegisterRoutes mounts categories, genres and titles under the version group
func RegisterRoutes(v1 *gin.RouterGroup) {
	categories := v1.Group("/categories", users.OptionalAuthMiddleware(), AdminOrReadOnly())
	categories.GET("", ListCategories)
	categories.POST("", CreateCategory)
	categories.DELETE("/:slug", DeleteCategory)

	genres := v1.Group("/genres", users.OptionalAuthMiddleware(), AdminOrReadOnly())
	genres.GET("", ListGenres)
	genres.POST("", CreateGenre)
	genres.DELETE("/:slug", DeleteGenre)

	titles := v1.Group("/titles", users.OptionalAuthMiddleware(), AdminOrReadOnly())
	titles.GET("", ListTitles)
	titles.POST("", CreateTitle)
	titles.GET("/:title_id", RetrieveTitle)
	titles.PATCH("/:title_id", UpdateTitle)
	titles.DELETE("/:title_id", DeleteTitle)
}

// AdminOrReadOnly allows safe methods for anyone and mutation for admins only
func AdminOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := users.CurrentUser(c)
		if users.IsAdminOrReadOnly(c.Request.Method, user) {
			c.Next()
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
	}
}

// Categories and genres share one field set, so their handlers share the
// listing, validation and deletion plumbing; only the table differs.

func listTerms(c *gin.Context, table string) {
	db := common.GetDB()

	query := db.Table(table).Select("name, slug").Order("name")
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	query = common.ListParams(c, query)

	var terms []TermResponse
	if err := query.Scan(&terms).Error; err != nil {
		log.Printf("Failed to list %s: %v", table, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if terms == nil {
		terms = []TermResponse{}
	}
	c.JSON(http.StatusOK, terms)
}

// bindTerm validates the creation body, deriving the slug when omitted
func bindTerm(c *gin.Context) (*TermRequest, bool) {
	var req TermRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return nil, false
	}

	var errs common.ValidationErrors
	if err := ValidateName(req.Name); err != nil {
		errs = append(errs, err)
	}
	if req.Slug == "" {
		req.Slug = slugify.Make(req.Name)
		if len(req.Slug) > 50 {
			req.Slug = req.Slug[:50]
		}
	}
	if !common.ValidateSlug(req.Slug) {
		errs.Add("slug", "Slug must be at most 50 characters of letters, digits, hyphens or underscores")
	}
	if len(errs) > 0 {
		common.AbortValidation(c, errs)
		return nil, false
	}
	return &req, true
}

func createdTerm(c *gin.Context, req *TermRequest, err error) {
	if err != nil {
		if common.IsDuplicateError(err) {
			common.AbortValidation(c, common.ValidationErrors{
				common.NewValidationError("slug", "Slug already exists"),
			})
			return
		}
		log.Printf("Failed to create term: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, TermResponse{Name: req.Name, Slug: req.Slug})
}

func deletedTerm(c *gin.Context, result *gorm.DB) {
	if result.Error != nil {
		log.Printf("Failed to delete term: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCategories returns categories, searchable by name substring
func ListCategories(c *gin.Context) { listTerms(c, "categories") }

// ListGenres returns genres, searchable by name substring
func ListGenres(c *gin.Context) { listTerms(c, "genres") }

// CreateCategory creates a category (admin only)
func CreateCategory(c *gin.Context) {
	req, ok := bindTerm(c)
	if !ok {
		return
	}
	err := common.GetDB().Create(&CategoryModel{Name: req.Name, Slug: req.Slug}).Error
	createdTerm(c, req, err)
}

// CreateGenre creates a genre (admin only)
func CreateGenre(c *gin.Context) {
	req, ok := bindTerm(c)
	if !ok {
		return
	}
	err := common.GetDB().Create(&GenreModel{Name: req.Name, Slug: req.Slug}).Error
	createdTerm(c, req, err)
}

// DeleteCategory removes a category by slug; its titles keep a null category
func DeleteCategory(c *gin.Context) {
	result := common.GetDB().Where("slug = ?", c.Param("slug")).Delete(&CategoryModel{})
	deletedTerm(c, result)
}

// DeleteGenre removes a genre by slug
func DeleteGenre(c *gin.Context) {
	result := common.GetDB().Where("slug = ?", c.Param("slug")).Delete(&GenreModel{})
	deletedTerm(c, result)
}

// titleRatings computes AVG(score) per title for the given ids
func titleRatings(ids []uint) (map[uint]float64, error) {
	ratings := make(map[uint]float64)
	if len(ids) == 0 {
		return ratings, nil
	}

	var rows []struct {
		TitleID uint
		Rating  float64
	}
	err := common.GetDB().
		Table("reviews").
		Select("title_id, AVG(score) AS rating").
		Where("title_id IN ?", ids).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		ratings[row.TitleID] = row.Rating
	}
	return ratings, nil
}

func ratingFor(ratings map[uint]float64, id uint) *float64 {
	if rating, ok := ratings[id]; ok {
		return &rating
	}
	return nil
}

// ListTitles returns titles with nested category/genres and computed rating
func ListTitles(c *gin.Context) {
	db := common.GetDB()

	query := db.Model(&TitleModel{}).Preload("Category").Preload("Genres")
	query = ApplyTitleFilters(c, query)
	query = common.ListParams(c, query)

	var titles []TitleModel
	if err := query.Find(&titles).Error; err != nil {
		log.Printf("Failed to list titles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ids := make([]uint, len(titles))
	for i := range titles {
		ids[i] = titles[i].ID
	}
	ratings, err := titleRatings(ids)
	if err != nil {
		log.Printf("Failed to compute ratings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	responses := make([]TitleResponse, len(titles))
	for i := range titles {
		responses[i] = NewTitleResponse(&titles[i], ratingFor(ratings, titles[i].ID))
	}
	c.JSON(http.StatusOK, responses)
}

// LookupTitle resolves a title by path parameter, or writes a 404
func LookupTitle(c *gin.Context, param string) (*TitleModel, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
		return nil, false
	}

	var title TitleModel
	err = common.GetDB().Preload("Category").Preload("Genres").First(&title, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to fetch title: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &title, true
}

// RetrieveTitle returns one title with its rating
func RetrieveTitle(c *gin.Context) {
	title, ok := LookupTitle(c, "title_id")
	if !ok {
		return
	}

	ratings, err := titleRatings([]uint{title.ID})
	if err != nil {
		log.Printf("Failed to compute rating: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, NewTitleResponse(title, ratingFor(ratings, title.ID)))
}

// resolveCategory maps a category slug to its record
func resolveCategory(slug string) (*CategoryModel, *common.ValidationError) {
	var category CategoryModel
	err := common.GetDB().Where("slug = ?", slug).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewValidationError("category", "Unknown category %q", slug)
	}
	if err != nil {
		return nil, common.NewValidationError("category", "Category lookup failed")
	}
	return &category, nil
}

// resolveGenres maps genre slugs to records, preserving order
func resolveGenres(slugs []string) ([]GenreModel, *common.ValidationError) {
	genres := make([]GenreModel, 0, len(slugs))
	for _, s := range slugs {
		var genre GenreModel
		err := common.GetDB().Where("slug = ?", s).First(&genre).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewValidationError("genre", "Unknown genre %q", s)
		}
		if err != nil {
			return nil, common.NewValidationError("genre", "Genre lookup failed")
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

// CreateTitle creates a title from the slug-referenced write shape
func CreateTitle(c *gin.Context) {
	var req TitleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var errs common.ValidationErrors
	if err := ValidateName(req.Name); err != nil {
		errs = append(errs, err)
	}
	if req.Year == nil {
		errs.Add("year", "Year is required")
	} else if err := ValidateYear(*req.Year); err != nil {
		errs = append(errs, err)
	}

	title := TitleModel{Name: req.Name}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		category, err := resolveCategory(*req.Category)
		if err != nil {
			errs = append(errs, err)
		} else {
			title.CategoryID = &category.ID
			title.Category = category
		}
	}
	if len(req.Genre) > 0 {
		genres, err := resolveGenres(req.Genre)
		if err != nil {
			errs = append(errs, err)
		} else {
			title.Genres = genres
		}
	}

	if len(errs) > 0 {
		common.AbortValidation(c, errs)
		return
	}

	if err := common.GetDB().Create(&title).Error; err != nil {
		log.Printf("Failed to create title: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, NewTitleResponse(&title, nil))
}

// UpdateTitle is the partial update for a title
func UpdateTitle(c *gin.Context) {
	title, ok := LookupTitle(c, "title_id")
	if !ok {
		return
	}

	var req TitleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var errs common.ValidationErrors
	updates := make(map[string]interface{})

	if req.Name != "" {
		if err := ValidateName(req.Name); err != nil {
			errs = append(errs, err)
		} else {
			updates["name"] = req.Name
		}
	}
	if req.Year != nil {
		if err := ValidateYear(*req.Year); err != nil {
			errs = append(errs, err)
		} else {
			updates["year"] = *req.Year
		}
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	var newCategory *CategoryModel
	if req.Category != nil {
		category, err := resolveCategory(*req.Category)
		if err != nil {
			errs = append(errs, err)
		} else {
			newCategory = category
			updates["category_id"] = category.ID
		}
	}

	var newGenres []GenreModel
	if req.Genre != nil {
		genres, err := resolveGenres(req.Genre)
		if err != nil {
			errs = append(errs, err)
		} else {
			newGenres = genres
		}
	}

	if len(errs) > 0 {
		common.AbortValidation(c, errs)
		return
	}

	db := common.GetDB()
	if len(updates) > 0 {
		if err := db.Model(title).Updates(updates).Error; err != nil {
			log.Printf("Failed to update title: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}
	if req.Genre != nil {
		if err := db.Model(title).Association("Genres").Replace(newGenres); err != nil {
			log.Printf("Failed to update title genres: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		title.Genres = newGenres
	}
	if newCategory != nil {
		title.Category = newCategory
	}

	ratings, err := titleRatings([]uint{title.ID})
	if err != nil {
		log.Printf("Failed to compute rating: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, NewTitleResponse(title, ratingFor(ratings, title.ID)))
}

// DeleteTitle removes a title and, via cascade, its reviews
func DeleteTitle(c *gin.Context) {
	title, ok := LookupTitle(c, "title_id")
	if !ok {
		return
	}

	if err := common.GetDB().Select("Genres").Delete(title).Error; err != nil {
		log.Printf("Failed to delete title: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

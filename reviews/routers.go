package reviews

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yamdb-api/catalog"
	"yamdb-api/common"
	"yamdb-api/users"
)

const duplicateReviewMessage = "A review for this title by this author already exists"

// RegisterRoutes mounts the nested review and comment endpoints
func RegisterRoutes(v1 *gin.RouterGroup) {
	rv := v1.Group("/titles/:title_id/reviews", users.OptionalAuthMiddleware())
	rv.GET("", ListReviews)
	rv.POST("", CreateReview)
	rv.GET("/:review_id", RetrieveReview)
	rv.PATCH("/:review_id", UpdateReview)
	rv.DELETE("/:review_id", DeleteReview)

	cm := v1.Group("/titles/:title_id/reviews/:review_id/comments", users.OptionalAuthMiddleware())
	cm.GET("", ListComments)
	cm.POST("", CreateComment)
	cm.GET("/:comment_id", RetrieveComment)
	cm.PATCH("/:comment_id", UpdateComment)
	cm.DELETE("/:comment_id", DeleteComment)
}

// requireAuthor gates mutation of a review/comment behind the object-level
// rule. Returns false after writing the error response.
func requireAuthor(c *gin.Context, authorID uint) bool {
	user, _ := users.CurrentUser(c)
	if users.ReadOnlyOrAdminOrModeratorOrAuthor(c.Request.Method, user, authorID) {
		return true
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return false
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to modify this resource"})
	return false
}

func lookupReview(c *gin.Context) (*ReviewModel, bool) {
	title, ok := catalog.LookupTitle(c, "title_id")
	if !ok {
		return nil, false
	}

	id, err := strconv.Atoi(c.Param("review_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return nil, false
	}

	var review ReviewModel
	err = common.GetDB().
		Preload("Author").
		Where("title_id = ?", title.ID).
		First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to fetch review: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &review, true
}

// ListReviews returns the reviews of one title, newest first
func ListReviews(c *gin.Context) {
	title, ok := catalog.LookupTitle(c, "title_id")
	if !ok {
		return
	}

	query := common.GetDB().
		Preload("Author").
		Where("title_id = ?", title.ID).
		Order("pub_date DESC")
	query = common.ListParams(c, query)

	var records []ReviewModel
	if err := query.Find(&records).Error; err != nil {
		log.Printf("Failed to list reviews: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	responses := make([]ReviewResponse, len(records))
	for i := range records {
		responses[i] = NewReviewResponse(&records[i])
	}
	c.JSON(http.StatusOK, responses)
}

// CreateReview creates a review for the title in the path. The caller
// becomes the author regardless of payload contents; one review per
// (title, author) pair. The duplicate pre-check gives the friendly error,
// the unique index guarantees consistency when concurrent submissions race
// past it, and both report the same validation error.
func CreateReview(c *gin.Context) {
	user, ok := users.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	title, ok := catalog.LookupTitle(c, "title_id")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if errs := validateReview(&req, true); len(errs) > 0 {
		common.AbortValidation(c, errs)
		return
	}

	db := common.GetDB()

	var count int64
	err := db.Model(&ReviewModel{}).
		Where("title_id = ? AND author_id = ?", title.ID, user.ID).
		Count(&count).Error
	if err != nil {
		log.Printf("Failed to check existing review: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		common.AbortValidation(c, common.ValidationErrors{
			common.NewValidationError("title", duplicateReviewMessage),
		})
		return
	}

	review := ReviewModel{
		Text:     req.Text,
		Score:    *req.Score,
		AuthorID: user.ID,
		TitleID:  title.ID,
	}
	if err := db.Create(&review).Error; err != nil {
		if common.IsDuplicateError(err) {
			common.AbortValidation(c, common.ValidationErrors{
				common.NewValidationError("title", duplicateReviewMessage),
			})
			return
		}
		log.Printf("Failed to create review: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	review.Author = user
	c.JSON(http.StatusCreated, NewReviewResponse(&review))
}

// RetrieveReview returns one review of the title in the path
func RetrieveReview(c *gin.Context) {
	review, ok := lookupReview(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewReviewResponse(review))
}

// UpdateReview partially updates a review (author, moderator or admin)
func UpdateReview(c *gin.Context) {
	review, ok := lookupReview(c)
	if !ok {
		return
	}
	if !requireAuthor(c, review.AuthorID) {
		return
	}

	var req ReviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if errs := validateReview(&req, false); len(errs) > 0 {
		common.AbortValidation(c, errs)
		return
	}

	updates := make(map[string]interface{})
	if req.Text != "" {
		updates["text"] = req.Text
	}
	if req.Score != nil {
		updates["score"] = *req.Score
	}

	if len(updates) > 0 {
		if err := common.GetDB().Model(review).Updates(updates).Error; err != nil {
			log.Printf("Failed to update review: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, NewReviewResponse(review))
}

// DeleteReview removes a review (author, moderator or admin)
func DeleteReview(c *gin.Context) {
	review, ok := lookupReview(c)
	if !ok {
		return
	}
	if !requireAuthor(c, review.AuthorID) {
		return
	}

	if err := common.GetDB().Delete(review).Error; err != nil {
		log.Printf("Failed to delete review: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func lookupComment(c *gin.Context) (*CommentModel, bool) {
	review, ok := lookupReview(c)
	if !ok {
		return nil, false
	}

	id, err := strconv.Atoi(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return nil, false
	}

	var comment CommentModel
	err = common.GetDB().
		Preload("Author").
		Where("review_id = ?", review.ID).
		First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to fetch comment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &comment, true
}

// ListComments returns the comments of one review, newest first
func ListComments(c *gin.Context) {
	review, ok := lookupReview(c)
	if !ok {
		return
	}

	query := common.GetDB().
		Preload("Author").
		Where("review_id = ?", review.ID).
		Order("pub_date DESC")
	query = common.ListParams(c, query)

	var records []CommentModel
	if err := query.Find(&records).Error; err != nil {
		log.Printf("Failed to list comments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	responses := make([]CommentResponse, len(records))
	for i := range records {
		responses[i] = NewCommentResponse(&records[i])
	}
	c.JSON(http.StatusOK, responses)
}

// CreateComment adds a comment to the review in the path; the caller is
// force-assigned as author
func CreateComment(c *gin.Context) {
	user, ok := users.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	review, ok := lookupReview(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Text == "" {
		common.AbortValidation(c, common.ValidationErrors{
			common.NewValidationError("text", "Text is required"),
		})
		return
	}

	comment := CommentModel{
		Text:     req.Text,
		AuthorID: user.ID,
		ReviewID: review.ID,
	}
	if err := common.GetDB().Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	comment.Author = user
	c.JSON(http.StatusCreated, NewCommentResponse(&comment))
}

// RetrieveComment returns one comment of the review in the path
func RetrieveComment(c *gin.Context) {
	comment, ok := lookupComment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewCommentResponse(comment))
}

// UpdateComment partially updates a comment (author, moderator or admin)
func UpdateComment(c *gin.Context) {
	comment, ok := lookupComment(c)
	if !ok {
		return
	}
	if !requireAuthor(c, comment.AuthorID) {
		return
	}

	var req CommentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Text != "" {
		if err := common.GetDB().Model(comment).Update("text", req.Text).Error; err != nil {
			log.Printf("Failed to update comment: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, NewCommentResponse(comment))
}

// DeleteComment removes a comment (author, moderator or admin)
func DeleteComment(c *gin.Context) {
	comment, ok := lookupComment(c)
	if !ok {
		return
	}
	if !requireAuthor(c, comment.AuthorID) {
		return
	}

	if err := common.GetDB().Delete(comment).Error; err != nil {
		log.Printf("Failed to delete comment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

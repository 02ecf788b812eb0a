package reviews_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb-api/catalog"
	"yamdb-api/common"
	"yamdb-api/reviews"
	"yamdb-api/users"
)

func setupReviewRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	os.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, users.InitJWTSecret())

	common.InitTest()
	users.AutoMigrate()
	catalog.AutoMigrate()
	reviews.AutoMigrate()

	r := gin.New()
	v1 := r.Group("/v1")
	catalog.RegisterRoutes(v1)
	reviews.RegisterRoutes(v1)
	return r
}

func tokenFor(t *testing.T, role users.Role, username string) string {
	t.Helper()
	user := users.UserModel{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, common.GetDB().Create(&user).Error)
	token, err := users.GenerateJWT(user.ID, user.Username)
	require.NoError(t, err)
	return token
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// seedTitle creates one reviewable title and returns its reviews path
func seedTitle(t *testing.T, r *gin.Engine, admin string) string {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/v1/categories", admin, `{"name":"Books","slug":"books"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(r, http.MethodPost, "/v1/genres", admin, `{"name":"Sci-Fi","slug":"scifi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/titles", admin,
		`{"name":"Dune","year":1965,"category":"books","genre":["scifi"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var title catalog.TitleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &title))
	return fmt.Sprintf("/v1/titles/%d", title.ID)
}

func getTitle(t *testing.T, r *gin.Engine, path string) catalog.TitleResponse {
	t.Helper()
	w := doJSON(r, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var title catalog.TitleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &title))
	return title
}

func postReview(t *testing.T, r *gin.Engine, titlePath, token string, score int) reviews.ReviewResponse {
	t.Helper()
	w := doJSON(r, http.MethodPost, titlePath+"/reviews", token,
		fmt.Sprintf(`{"text":"review text","score":%d}`, score))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp reviews.ReviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRatingProgression(t *testing.T) {
	r := setupReviewRouter(t)
	admin := tokenFor(t, users.RoleAdmin, "root")
	titlePath := seedTitle(t, r, admin)

	assert.Nil(t, getTitle(t, r, titlePath).Rating, "no reviews yet")

	alice := tokenFor(t, users.RoleUser, "alice")
	postReview(t, r, titlePath, alice, 8)

	rating := getTitle(t, r, titlePath).Rating
	require.NotNil(t, rating)
	assert.InDelta(t, 8.0, *rating, 0.001)

	bob := tokenFor(t, users.RoleUser, "bob")
	postReview(t, r, titlePath, bob, 6)

	rating = getTitle(t, r, titlePath).Rating
	require.NotNil(t, rating)
	assert.InDelta(t, 7.0, *rating, 0.001)
}

func TestReviewUniquePerAuthor(t *testing.T) {
	r := setupReviewRouter(t)
	admin := tokenFor(t, users.RoleAdmin, "root")
	titlePath := seedTitle(t, r, admin)
	alice := tokenFor(t, users.RoleUser, "alice")

	postReview(t, r, titlePath, alice, 8)

	w := doJSON(r, http.MethodPost, titlePath+"/reviews", alice, `{"text":"again","score":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	common.GetDB().Model(&reviews.ReviewModel{}).Count(&count)
	assert.Equal(t, int64(1), count, "second create must not add a row")

	// A different author may still review
	bob := tokenFor(t, users.RoleUser, "bob")
	postReview(t, r, titlePath, bob, 6)
}

func TestReviewValidation(t *testing.T) {
	r := setupReviewRouter(t)
	admin := tokenFor(t, users.RoleAdmin, "root")
	titlePath := seedTitle(t, r, admin)
	alice := tokenFor(t, users.RoleUser, "alice")

	tests := []struct {
		name string
		body string
	}{
		{"score too low", `{"text":"x","score":0}`},
		{"score too high", `{"text":"x","score":11}`},
		{"missing score", `{"text":"x"}`},
		{"missing text", `{"score":5}`},
	}
	for _, tt := range tests {
		w := doJSON(r, http.MethodPost, titlePath+"/reviews", alice, tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.name)
	}
}

func TestReviewAuthorization(t *testing.T) {
	r := setupReviewRouter(t)
	admin := tokenFor(t, users.RoleAdmin, "root")
	titlePath := seedTitle(t, r, admin)

	alice := tokenFor(t, users.RoleUser, "alice")
	review := postReview(t, r, titlePath, alice, 8)
	reviewPath := fmt.Sprintf("%s/reviews/%d", titlePath, review.ID)

	// Anonymous read allowed
	w := doJSON(r, http.MethodGet, reviewPath, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Anonymous write denied
	w = doJSON(r, http.MethodPost, titlePath+"/reviews", "", `{"text":"x","score":5}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, http.MethodDelete, reviewPath, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unrelated authenticated user denied
	mallory := tokenFor(t, users.RoleUser, "mallory")
	w = doJSON(r, http.MethodPatch, reviewPath, mallory, `{"text":"hijack"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodDelete, reviewPath, mallory, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Author may edit
	w = doJSON(r, http.MethodPatch, reviewPath, alice, `{"score":9}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"score":9`)

	// Moderator may delete
	moderator := tokenFor(t, users.RoleModerator, "mod")
	w = doJSON(r, http.MethodDelete, reviewPath, moderator, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestReviewNotFoundChain(t *testing.T) {
	r := setupReviewRouter(t)
	admin := tokenFor(t, users.RoleAdmin, "root")
	titlePath := seedTitle(t, r, admin)
	alice := tokenFor(t, users.RoleUser, "alice")

	// Missing title
	w := doJSON(r, http.MethodGet, "/v1/titles/9999/reviews", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(r, http.MethodPost, "/v1/titles/9999/reviews", alice, `{"text":"x","score":5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Missing review under an existing title
	w = doJSON(r, http.MethodGet, titlePath+"/reviews/9999", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Review under the wrong title is not reachable
	review := postReview(t, r, titlePath, alice, 8)
	w = doJSON(r, http.MethodGet, fmt.Sprintf("/v1/titles/9999/reviews/%d", review.ID), "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentsCRUD(t *testing.T) {
	r := setupReviewRouter(t)
	admin := tokenFor(t, users.RoleAdmin, "root")
	titlePath := seedTitle(t, r, admin)

	alice := tokenFor(t, users.RoleUser, "alice")
	review := postReview(t, r, titlePath, alice, 8)
	commentsPath := fmt.Sprintf("%s/reviews/%d/comments", titlePath, review.ID)

	// Anonymous create denied
	w := doJSON(r, http.MethodPost, commentsPath, "", `{"text":"hello"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Authenticated create, forced author
	bob := tokenFor(t, users.RoleUser, "bob")
	w = doJSON(r, http.MethodPost, commentsPath, bob, `{"text":"agreed"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var comment reviews.CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, "bob", comment.Author)

	commentPath := fmt.Sprintf("%s/%d", commentsPath, comment.ID)

	// Anonymous list allowed
	w = doJSON(r, http.MethodGet, commentsPath, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []reviews.CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	// Non-author cannot edit, author can
	w = doJSON(r, http.MethodPatch, commentPath, alice, `{"text":"edited"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodPatch, commentPath, bob, `{"text":"edited"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"edited"`)

	// Missing comment, and comment under the wrong review
	w = doJSON(r, http.MethodGet, commentsPath+"/9999", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Admin delete
	w = doJSON(r, http.MethodDelete, commentPath, admin, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEmptyTextComment(t *testing.T) {
	r := setupReviewRouter(t)
	admin := tokenFor(t, users.RoleAdmin, "root")
	titlePath := seedTitle(t, r, admin)

	alice := tokenFor(t, users.RoleUser, "alice")
	review := postReview(t, r, titlePath, alice, 8)
	commentsPath := fmt.Sprintf("%s/reviews/%d/comments", titlePath, review.ID)

	w := doJSON(r, http.MethodPost, commentsPath, alice, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

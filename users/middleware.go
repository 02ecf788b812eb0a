package users

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"yamdb-api/common"
)

// ContextUserKey is where the authenticated user lives in gin context
const ContextUserKey = "user"

// SafeMethod reports whether the HTTP verb does not mutate state
func SafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func userFromToken(c *gin.Context) (*UserModel, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	token, err := VerifyJWT(parts[1])
	if err != nil {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return nil, false
	}

	var user UserModel
	if err := common.GetDB().First(&user, uint(userIDFloat)).Error; err != nil {
		return nil, false
	}

	return &user, true
}

// AuthMiddleware rejects requests without a valid Bearer token
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := userFromToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing credentials"})
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the caller when a token is present but
// lets anonymous requests through; handlers apply read-only rules themselves.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := userFromToken(c); ok {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, if any
func CurrentUser(c *gin.Context) (*UserModel, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*UserModel)
	return user, ok
}

// IsAdmin is true iff the caller is authenticated with admin privileges
func IsAdmin(user *UserModel) bool {
	return user != nil && user.IsAdmin()
}

// IsAdminOrReadOnly allows safe methods for anyone and mutation for admins
func IsAdminOrReadOnly(method string, user *UserModel) bool {
	return SafeMethod(method) || IsAdmin(user)
}

// ReadOnlyOrAdminOrModeratorOrAuthor is the object-level rule for reviews
// and comments: safe methods for anyone, mutation for admins, moderators
// and the object's author.
func ReadOnlyOrAdminOrModeratorOrAuthor(method string, user *UserModel, authorID uint) bool {
	if SafeMethod(method) {
		return true
	}
	if user == nil {
		return false
	}
	return user.IsAdmin() || user.IsModerator() || user.ID == authorID
}

// RequireAdmin gates a route group behind the admin predicate
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := CurrentUser(c)
		if !IsAdmin(user) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
			return
		}
		c.Next()
	}
}

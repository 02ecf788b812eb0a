package users

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yamdb-api/common"
)

const MaxEmailLength = 254

// RegisterAuthRoutes mounts the anonymous signup/token endpoints
func RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", Signup)
	rg.POST("/token", Token)
}

// RegisterRoutes mounts the user management endpoints
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", AuthMiddleware(), Me)
	rg.PATCH("/me", AuthMiddleware(), UpdateMe)

	admin := rg.Group("", AuthMiddleware(), RequireAdmin())
	admin.GET("", ListUsers)
	admin.POST("", CreateUser)
	admin.GET("/:username", RetrieveUser)
	admin.PATCH("/:username", UpdateUser)
	admin.DELETE("/:username", DeleteUser)
}

func validateSignupFields(username, email string) common.ValidationErrors {
	var errs common.ValidationErrors
	if err := ValidateUsername(username); err != nil {
		errs = append(errs, err)
	}
	if !common.ValidateEmail(email) || len(email) > MaxEmailLength {
		errs.Add("email", "Invalid email format")
	}
	return errs
}

// Signup registers a user (or re-registers an existing one) and mails a
// confirmation code. The code itself never appears in the response.
func Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	if errs := validateSignupFields(req.Username, req.Email); len(errs) > 0 {
		common.AbortValidation(c, errs)
		return
	}

	db := common.GetDB()

	// Exact pair match reuses the record; any partial match is a conflict.
	var user UserModel
	err := db.Where("username = ? AND email = ?", req.Username, req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = UserModel{Username: req.Username, Email: req.Email, Role: RoleUser}
		if createErr := db.Create(&user).Error; createErr != nil {
			if common.IsDuplicateError(createErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid username or email",
					"data":  gin.H{"username": req.Username, "email": req.Email},
				})
				return
			}
			log.Printf("Failed to create user: %v", createErr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	} else if err != nil {
		log.Printf("Database error on signup lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	code, err := IssueConfirmationCode(&user)
	if err != nil {
		log.Printf("Failed to issue confirmation code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := mailer.Send(
		user.Email,
		"Your API token confirmation code",
		fmt.Sprintf("Code: %s", code),
	); err != nil {
		log.Printf("Failed to send confirmation mail: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username, "email": user.Email})
}

// Token exchanges a confirmation code for an access token
func Token(c *gin.Context) {
	var req TokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := ValidateUsername(req.Username); err != nil {
		common.AbortValidation(c, common.ValidationErrors{err})
		return
	}

	db := common.GetDB()

	var user UserModel
	err := db.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Database error on token lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !CheckConfirmationCode(&user, req.ConfirmationCode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confirmation code"})
		return
	}

	token, err := GenerateJWT(user.ID, user.Username)
	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListUsers returns all users, optionally filtered by exact username
func ListUsers(c *gin.Context) {
	db := common.GetDB()

	query := db.Model(&UserModel{}).Order("username")
	if username := c.Query("username"); username != "" {
		query = query.Where("username = ?", username)
	}
	query = common.ListParams(c, query)

	var records []UserModel
	if err := query.Find(&records).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	responses := make([]UserResponse, len(records))
	for i := range records {
		responses[i] = NewUserResponse(&records[i])
	}
	c.JSON(http.StatusOK, responses)
}

// CreateUser is the admin user-creation endpoint
func CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = RoleUser
	}

	errs := validateSignupFields(req.Username, req.Email)
	if !ValidRole(req.Role) {
		errs.Add("role", "Role must be one of: user, moderator, admin")
	}
	if len(errs) > 0 {
		common.AbortValidation(c, errs)
		return
	}

	user := UserModel{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}

	db := common.GetDB()
	if err := db.Create(&user).Error; err != nil {
		if common.IsDuplicateError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
			return
		}
		log.Printf("Failed to create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, NewUserResponse(&user))
}

func lookupUser(c *gin.Context) (*UserModel, bool) {
	var user UserModel
	err := common.GetDB().Where("username = ?", c.Param("username")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to fetch user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &user, true
}

// RetrieveUser returns one user by username
func RetrieveUser(c *gin.Context) {
	user, ok := lookupUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(user))
}

// applyUserUpdate validates a partial update and writes it. allowRole
// controls whether the role field may change (false on the me endpoint).
func applyUserUpdate(c *gin.Context, user *UserModel, req *UpdateUserRequest, allowRole bool) {
	var errs common.ValidationErrors
	updates := make(map[string]interface{})

	if req.Username != nil && *req.Username != user.Username {
		if err := ValidateUsername(*req.Username); err != nil {
			errs = append(errs, err)
		} else {
			updates["username"] = *req.Username
		}
	}
	if req.Email != nil && *req.Email != user.Email {
		email := strings.TrimSpace(*req.Email)
		if !common.ValidateEmail(email) || len(email) > MaxEmailLength {
			errs.Add("email", "Invalid email format")
		} else {
			updates["email"] = email
		}
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Role != nil && allowRole {
		if !ValidRole(*req.Role) {
			errs.Add("role", "Role must be one of: user, moderator, admin")
		} else {
			updates["role"] = *req.Role
		}
	}

	if len(errs) > 0 {
		common.AbortValidation(c, errs)
		return
	}

	db := common.GetDB()
	if len(updates) > 0 {
		if err := db.Model(user).Updates(updates).Error; err != nil {
			if common.IsDuplicateError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
				return
			}
			log.Printf("Failed to update user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if err := db.First(user, user.ID).Error; err != nil {
			log.Printf("Failed to refresh user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, NewUserResponse(user))
}

// UpdateUser is the admin partial update by username
func UpdateUser(c *gin.Context) {
	user, ok := lookupUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	applyUserUpdate(c, user, &req, true)
}

// DeleteUser removes a user by username
func DeleteUser(c *gin.Context) {
	user, ok := lookupUser(c)
	if !ok {
		return
	}

	if err := common.GetDB().Delete(user).Error; err != nil {
		log.Printf("Failed to delete user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Me returns the caller's own profile
func Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(user))
}

// UpdateMe lets the caller edit their own profile; role stays read-only
func UpdateMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	applyUserUpdate(c, user, &req, false)
}

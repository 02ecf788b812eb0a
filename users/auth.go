package users

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"yamdb-api/common"
)

var jwtSecret string

// ConfirmationTTL bounds how long an issued confirmation code stays valid
const ConfirmationTTL = 24 * time.Hour

// InitJWTSecret loads the signing secret from the environment
func InitJWTSecret() error {
	jwtSecret = os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

// GenerateJWT mints an access token for the user
func GenerateJWT(userID uint, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// VerifyJWT parses and validates an access token
func VerifyJWT(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	return token, nil
}

// IssueConfirmationCode generates a fresh one-time code for the user and
// persists only its hash. Re-issuing supersedes any earlier code.
func IssueConfirmationCode(user *UserModel) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	code := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	now := time.Now()
	db := common.GetDB()
	err = db.Model(user).Updates(map[string]interface{}{
		"confirmation_hash":      string(hash),
		"confirmation_issued_at": now,
	}).Error
	if err != nil {
		return "", err
	}

	user.ConfirmationHash = string(hash)
	user.ConfirmationIssuedAt = &now

	return code, nil
}

// CheckConfirmationCode verifies a code against the one issued for the user.
// A successful check consumes the code.
func CheckConfirmationCode(user *UserModel, code string) bool {
	if user.ConfirmationHash == "" || user.ConfirmationIssuedAt == nil {
		return false
	}
	if time.Since(*user.ConfirmationIssuedAt) > ConfirmationTTL {
		return false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.ConfirmationHash), []byte(code)) != nil {
		return false
	}

	// Single use: clear the stored hash. The check fails when the consume
	// write does not land, otherwise the code would stay valid for a retry.
	db := common.GetDB()
	err := db.Model(user).Updates(map[string]interface{}{
		"confirmation_hash":      "",
		"confirmation_issued_at": nil,
	}).Error
	if err != nil {
		log.Printf("Failed to consume confirmation code: %v", err)
		return false
	}
	user.ConfirmationHash = ""
	user.ConfirmationIssuedAt = nil

	return true
}

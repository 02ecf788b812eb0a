package users

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb-api/common"
)

func setupAuthTest(t *testing.T) *UserModel {
	t.Helper()

	os.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, InitJWTSecret())

	common.InitTest()
	AutoMigrate()

	user := &UserModel{Username: "alice", Email: "alice@example.com", Role: RoleUser}
	require.NoError(t, common.GetDB().Create(user).Error)
	return user
}

func TestConfirmationCodeRoundTrip(t *testing.T) {
	user := setupAuthTest(t)

	code, err := IssueConfirmationCode(user)
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.NotEqual(t, code, user.ConfirmationHash, "raw code must not be stored")

	assert.False(t, CheckConfirmationCode(user, "wrong-code"))
	assert.True(t, CheckConfirmationCode(user, code))
}

func TestConfirmationCodeSingleUse(t *testing.T) {
	user := setupAuthTest(t)

	code, err := IssueConfirmationCode(user)
	require.NoError(t, err)

	require.True(t, CheckConfirmationCode(user, code))
	assert.False(t, CheckConfirmationCode(user, code), "a checked code is consumed")
}

func TestConfirmationCodeSuperseded(t *testing.T) {
	user := setupAuthTest(t)

	first, err := IssueConfirmationCode(user)
	require.NoError(t, err)
	second, err := IssueConfirmationCode(user)
	require.NoError(t, err)

	assert.False(t, CheckConfirmationCode(user, first), "re-issuing invalidates the old code")
	assert.True(t, CheckConfirmationCode(user, second))
}

func TestConfirmationCodeConsumeWriteFailure(t *testing.T) {
	user := setupAuthTest(t)

	code, err := IssueConfirmationCode(user)
	require.NoError(t, err)

	// A code that cannot be consumed must not validate
	sqlDB, err := common.GetDB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.False(t, CheckConfirmationCode(user, code))
	assert.NotEmpty(t, user.ConfirmationHash, "a failed consume leaves the hash in place")
}

func TestConfirmationCodeExpiry(t *testing.T) {
	user := setupAuthTest(t)

	code, err := IssueConfirmationCode(user)
	require.NoError(t, err)

	stale := time.Now().Add(-ConfirmationTTL - time.Minute)
	user.ConfirmationIssuedAt = &stale

	assert.False(t, CheckConfirmationCode(user, code))
}

func TestJWTRoundTrip(t *testing.T) {
	user := setupAuthTest(t)

	token, err := GenerateJWT(user.ID, user.Username)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsed, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	_, err = VerifyJWT(token + "tampered")
	assert.Error(t, err)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("ramesh", "ramesh@example.com", "secret123", ROLE_PAYER)
	require.NoError(t, err)
	assert.Equal(t, ROLE_PAYER, user.Role)
	assert.Equal(t, STATUS_ACTIVE, user.Status)
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestCreateUserRejectsBadInput(t *testing.T) {
	_, err := CreateUser("ab", "ramesh@example.com", "secret123", ROLE_OPERATOR)
	assert.Error(t, err, "name below minimum length")

	_, err = CreateUser("ramesh", "not-an-email", "secret123", ROLE_OPERATOR)
	assert.Error(t, err, "invalid email")

	_, err = CreateUser("ramesh", "ramesh@example.com", "secret123", "superuser")
	assert.Error(t, err, "unknown role")
}

func TestGenerateAPIKey(t *testing.T) {
	user := User{Name: "ramesh", Email: "ramesh@example.com"}

	key, err := user.GenerateAPIKey()
	require.NoError(t, err)
	assert.Len(t, key, 48)
	assert.Equal(t, HashAPIKey(key), user.APIKeyHash)

	// A second key replaces the hash; the old key no longer matches.
	second, err := user.GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, second)
	assert.NotEqual(t, HashAPIKey(key), user.APIKeyHash)
	assert.Equal(t, HashAPIKey(second), user.APIKeyHash)
}

func TestIsActive(t *testing.T) {
	assert.True(t, (&User{Status: STATUS_ACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_INACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_DISABLED}).IsActive())
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	var user User
	require.NoError(t, user.SetPassword("secret123"))

	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	assert.NoError(t, user.CheckPassword("secret123"))
	assert.Error(t, user.CheckPassword("wrong-password"))
}

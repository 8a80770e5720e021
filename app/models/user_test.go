package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("testuser", "test@example.com", "secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, STATUS_ACTIVE, u.Status)
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("ab", "test@example.com", "secret123")
	assert.Error(t, err, "name below minimum length")

	_, err = CreateUser("testuser", "not-an-email", "secret123")
	assert.Error(t, err)
}

func TestEmailChangeTokenLifecycle(t *testing.T) {
	u := &User{Name: "testuser", Email: "old@example.com"}
	u.PendingEmail = "new@example.com"
	require.NoError(t, u.GenerateEmailChangeToken())

	require.True(t, u.HasPendingEmailChange())
	assert.True(t, u.IsEmailChangeTokenValid(u.EmailChangeToken))
	assert.False(t, u.IsEmailChangeTokenValid("bogus"))

	// expired tokens are rejected
	old := time.Now().Add(-25 * time.Hour)
	u.EmailChangeSentAt = &old
	assert.False(t, u.IsEmailChangeTokenValid(u.EmailChangeToken))

	u.ClearEmailChangeRequest()
	assert.False(t, u.HasPendingEmailChange())
	assert.Empty(t, u.EmailChangeToken)
	assert.Nil(t, u.EmailChangeSentAt)
}

func TestUserProfileIsPaid(t *testing.T) {
	assert.False(t, (&UserProfile{Plan: PlanFree}).IsPaid())
	assert.True(t, (&UserProfile{Plan: PlanPlus}).IsPaid())
	assert.True(t, (&UserProfile{Plan: PlanPro}).IsPaid())
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthTokens(t *testing.T) {
	a := NewAuthTokens(time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	token := a.Issue()
	assert.NotEmpty(t, token)
	assert.True(t, a.Valid(token))
	assert.False(t, a.Valid(""))
	assert.False(t, a.Valid("true"), "only issued values are accepted")
	assert.NotEqual(t, token, a.Issue(), "tokens are unique")

	a.Revoke(token)
	assert.False(t, a.Valid(token))

	expiring := a.Issue()
	now = now.Add(2 * time.Hour)
	assert.False(t, a.Valid(expiring))
	assert.Equal(t, 1, a.Prune(), "the other token issued earlier also expired")
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("2021-00123", "student", "classtrack", "secret", time.Minute, time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExp.After(pair.AccessExp))

	claims, err := Parse(pair.AccessToken, "secret", "classtrack")
	assert.NoError(t, err)
	assert.Equal(t, "2021-00123", claims.Subject)
	assert.Equal(t, "student", claims.Role)

	claims, err = Parse(pair.RefreshToken, "secret", "classtrack")
	assert.NoError(t, err)
	assert.Equal(t, "2021-00123", claims.Subject)
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("77", "instructor", "classtrack", "secret", time.Minute, time.Hour)
	assert.NoError(t, err)

	_, err = Parse(pair.AccessToken, "other-secret", "classtrack")
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pair, err := Issue("77", "instructor", "someone-else", "secret", time.Minute, time.Hour)
	assert.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "classtrack")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	pair, err := Issue("77", "instructor", "classtrack", "secret", -time.Minute, time.Hour)
	assert.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "classtrack")
	assert.Error(t, err)
}

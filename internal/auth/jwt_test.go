package auth

import (
	"testing"
	"time"

	"codecamp/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return NewIssuer(config.Default().JWT)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	iss := testIssuer()
	tok, err := iss.GenerateAccessToken("u-1", "a@x.com")
	require.NoError(t, err)

	claims, err := iss.Parse(tok, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestParseRejectsWrongPurpose(t *testing.T) {
	iss := testIssuer()
	reset, err := iss.GenerateResetToken("u-1", "a@x.com")
	require.NoError(t, err)

	_, err = iss.Parse(reset, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := iss.GenerateRefreshToken("u-1", "a@x.com")
	require.NoError(t, err)
	_, err = iss.Parse(refresh, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = iss.Parse(refresh, PurposeRefresh)
	assert.NoError(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	iss := testIssuer()
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := iss.GenerateAccessToken("u-1", "a@x.com")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(tok, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := testIssuer().Parse("not-a-token", PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

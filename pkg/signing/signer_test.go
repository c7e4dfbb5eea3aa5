package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManageTokenRoundTrip(t *testing.T) {
	signer := NewManageTokenSigner("secret", time.Hour)

	token, expiresAt, err := signer.Generate("bk-1", "jordan@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	bookingID, email, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "bk-1", bookingID)
	assert.Equal(t, "jordan@example.com", email)
	assert.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestManageTokenRejectsTampering(t *testing.T) {
	signer := NewManageTokenSigner("secret", time.Hour)

	token, _, err := signer.Generate("bk-1", "jordan@example.com")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "a")
	require.Error(t, err)

	_, _, _, err = signer.Parse("bk-2" + token[4:])
	require.Error(t, err)
}

func TestManageTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewManageTokenSigner("secret-a", time.Hour).Generate("bk-1", "jordan@example.com")
	require.NoError(t, err)

	_, _, _, err = NewManageTokenSigner("secret-b", time.Hour).Parse(token)
	require.Error(t, err)
}

func TestManageTokenRejectsExpired(t *testing.T) {
	signer := NewManageTokenSigner("secret", time.Nanosecond)

	token, _, err := signer.Generate("bk-1", "jordan@example.com")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestManageTokenRequiresInputs(t *testing.T) {
	signer := NewManageTokenSigner("secret", time.Hour)

	_, _, err := signer.Generate("", "jordan@example.com")
	require.Error(t, err)
	_, _, err = signer.Generate("bk-1", "")
	require.Error(t, err)
}

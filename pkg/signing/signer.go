package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ManageTokenSigner creates and validates the self-service tokens handed to
// attendees at reservation time. A token authorises cancel/reschedule actions
// on exactly one booking without requiring an account.
type ManageTokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewManageTokenSigner constructs a signer with the provided secret and TTL.
func NewManageTokenSigner(secret string, ttl time.Duration) *ManageTokenSigner {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &ManageTokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a signed token bound to the booking and attendee email.
func (s *ManageTokenSigner) Generate(bookingID, attendeeEmail string) (string, time.Time, error) {
	if bookingID == "" || attendeeEmail == "" {
		return "", time.Time{}, fmt.Errorf("bookingID and attendeeEmail required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedEmail := base64.RawURLEncoding.EncodeToString([]byte(attendeeEmail))
	payload := fmt.Sprintf("%s|%d|%s", bookingID, expiresAt.Unix(), encodedEmail)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	token := strings.Join([]string{bookingID, fmt.Sprintf("%d", expiresAt.Unix()), encodedEmail, signature}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded booking id and email.
func (s *ManageTokenSigner) Parse(token string) (bookingID, attendeeEmail string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	bookingID = parts[0]
	ts := parts[1]
	encodedEmail := parts[2]
	signature := parts[3]

	rawEmail, err := base64.RawURLEncoding.DecodeString(encodedEmail)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode email: %w", err)
	}

	expUnix, err := parseUnix(ts)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt = time.Unix(expUnix, 0)

	payload := fmt.Sprintf("%s|%s|%s", bookingID, ts, encodedEmail)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	if time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return bookingID, string(rawEmail), expiresAt, nil
}

func parseUnix(raw string) (int64, error) {
	var ts int64
	_, err := fmt.Sscanf(raw, "%d", &ts)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp")
	}
	return ts, nil
}

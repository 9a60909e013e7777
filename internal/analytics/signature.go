package analytics

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// Headers set on signed collector requests.
const (
	SignatureHeader = "X-Sharetrack-Signature"
	TimestampHeader = "X-Sharetrack-Timestamp"
)

// DefaultReplayWindow bounds how old a signed request may be.
const DefaultReplayWindow = 5 * time.Minute

var (
	// ErrReplayWindowExceeded is returned when the timestamp is too far from now.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when the signature does not match.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Sign returns the hex HMAC-SHA256 of "<unix timestamp>.<body>".
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign. Collectors use it to
// authenticate events; now is the receiver's clock.
func Verify(secret, signature string, timestamp int64, body []byte, now time.Time, window time.Duration) error {
	age := now.Unix() - timestamp
	if age < 0 {
		age = -age
	}
	if age > int64(window/time.Second) {
		return ErrReplayWindowExceeded
	}

	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

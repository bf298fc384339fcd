package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
)

// DeriveKey returns HMAC-SHA256(secret, part0 0x00 part1 0x00 ...).
// Tokens signed with a derived key stop verifying as soon as any part changes.
func DeriveKey(secret []byte, parts ...string) []byte {
	mac := hmac.New(sha256.New, secret)
	for _, p := range parts {
		mac.Write([]byte(p))
		mac.Write([]byte{0})
	}
	return mac.Sum(nil)
}

// EncodeUID encodes a numeric user id for transport in URLs.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

var ErrInvalidUID = errors.New("invalid uid")

func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, ErrInvalidUID
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidUID
	}
	return uint(id), nil
}

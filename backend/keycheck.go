package backend

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/njyeung/lcpunlock/auth"
)

// UserKey derives the basic profile user key from a passphrase
func UserKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// ValidateLicense reports whether the license can be checked at all: a
// supported profile and a well formed key check.
func ValidateLicense(license *auth.License) error {
	_, err := decodeKeyCheck(license)
	return err
}

func decodeKeyCheck(license *auth.License) ([]byte, error) {
	if license.Profile != "" && license.Profile != BasicProfile {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProfile, license.Profile)
	}

	sealed, err := base64.StdEncoding.DecodeString(license.KeyCheck)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyCheck, err)
	}
	// iv followed by at least one block
	if len(sealed) < 2*aes.BlockSize || len(sealed)%aes.BlockSize != 0 {
		return nil, ErrMalformedKeyCheck
	}
	return sealed, nil
}

// CheckUserKey reports whether key decrypts the license key check back to
// the license id. A wrong key is not an error.
func CheckUserKey(license *auth.License, key []byte) (bool, error) {
	sealed, err := decodeKeyCheck(license)
	if err != nil {
		return false, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return false, fmt.Errorf("invalid user key: %w", err)
	}

	iv, data := sealed[:aes.BlockSize], sealed[aes.BlockSize:]
	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, data)

	plain, ok := unpad(plain)
	if !ok {
		return false, nil
	}
	return subtle.ConstantTimeCompare(plain, []byte(license.ID)) == 1, nil
}

// SealKeyCheck builds a key check value for licenseID under key, the way a
// license server does. Used for fixtures.
func SealKeyCheck(licenseID string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("invalid user key: %w", err)
	}

	plain := pad([]byte(licenseID))
	sealed := make([]byte, aes.BlockSize+len(plain))
	iv := sealed[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(sealed[aes.BlockSize:], plain)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}

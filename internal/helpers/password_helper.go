package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordScheme  = "pbkdf2-sha256"
	passwordSaltLen = 16
	passwordKeyLen  = 32
)

// HashPassword derives a PBKDF2-SHA256 key. The returned hash embeds the
// iteration count so it can be changed without invalidating stored hashes.
func HashPassword(password string, iterations int) (hash string, salt string, err error) {
	saltBytes := make([]byte, passwordSaltLen)
	if _, err = rand.Read(saltBytes); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(saltBytes)
	key := pbkdf2.Key([]byte(password), saltBytes, iterations, passwordKeyLen, sha256.New)
	hash = fmt.Sprintf("%s$%d$%s", passwordScheme, iterations, hex.EncodeToString(key))
	return hash, salt, nil
}

func VerifyPassword(password, hash, salt string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != passwordScheme {
		return false, fmt.Errorf("unsupported password hash format")
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false, fmt.Errorf("invalid iteration count in password hash")
	}
	expected, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, err
	}
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return false, err
	}
	key := pbkdf2.Key([]byte(password), saltBytes, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

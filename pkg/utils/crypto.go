package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// SecretPrefix marks configuration values holding an encrypted secret.
const SecretPrefix = "enc:"

func gcm(secretKey string) (cipher.AEAD, error) {
	if secretKey == "" {
		return nil, errors.New("secret key is empty")
	}
	// Hash so any SECRET_KEY length yields an AES-256 key.
	key := sha256.Sum256([]byte(secretKey))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptSecret seals plaintext with AES-GCM and returns it prefixed with SecretPrefix.
func EncryptSecret(plaintext, secretKey string) (string, error) {
	aesGCM, err := gcm(secretKey)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	sealed := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return SecretPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// RevealSecret returns value unchanged unless it carries SecretPrefix, in
// which case it is decrypted with secretKey.
func RevealSecret(value, secretKey string) (string, error) {
	encoded, ok := strings.CutPrefix(value, SecretPrefix)
	if !ok {
		return value, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	aesGCM, err := gcm(secretKey)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return string(plaintext), nil
}

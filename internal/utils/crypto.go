package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// FieldCipher encrypts single text columns with AES-CBC. The output is the
// hex encoding of IV followed by the PKCS#7 padded ciphertext.
type FieldCipher struct {
	block cipher.Block
}

// NewFieldCipher creates a cipher from a hex encoded 16, 24 or 32 byte key
func NewFieldCipher(hexKey string) (*FieldCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &FieldCipher{block: block}, nil
}

// Encrypt returns the encrypted form of s. Empty input stays empty.
func (c *FieldCipher) Encrypt(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padding := aes.BlockSize - len(s)%aes.BlockSize
	data := make([]byte, len(s)+padding)
	copy(data, s)
	for i := len(s); i < len(data); i++ {
		data[i] = byte(padding)
	}

	out := make([]byte, aes.BlockSize+len(data))
	copy(out, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[aes.BlockSize:], data)
	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt
func (c *FieldCipher) Decrypt(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}
	if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid ciphertext length: %d bytes", len(data))
	}

	iv, ciphertext := data[:aes.BlockSize], data[aes.BlockSize:]
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, ciphertext)

	padding := int(plain[len(plain)-1])
	if padding == 0 || padding > aes.BlockSize {
		return "", fmt.Errorf("invalid padding value: %d", padding)
	}
	for _, b := range plain[len(plain)-padding:] {
		if int(b) != padding {
			return "", fmt.Errorf("invalid padding bytes")
		}
	}
	return string(plain[:len(plain)-padding]), nil
}

package xeccrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

const (
	pbkdf2Iterations = 10_000
	pbkdf2KeyLen     = 32 // 256 bits
	saltLen          = 32 // 256 bits
	ivLen            = 16 // 128 bits
)

// Envelope is the self-describing encrypted-mnemonic structure: a random
// salt and IV plus the AES-256-CBC ciphertext of the UTF-8 mnemonic, keyed
// by PBKDF2-SHA256(password, salt, 10000, 32).
type Envelope struct {
	Salt      string `json:"salt"`
	IV        string `json:"iv"`
	Encrypted string `json:"encrypted"`
}

// legacyOpenSSLMagic is the prefix CryptoJS writes on its "OpenSSL-style"
// salted ciphertext format, kept around so old wallets still decrypt.
const legacyOpenSSLMagic = "Salted__"
const legacyOpenSSLBase64Prefix = "U2FsdGVkX1"

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	padLen := blockSize - len(b)%blockSize
	pad := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(b, pad...)
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("pkcs7 unpad: %w: empty input", walleterrors.ErrWrongPassword)
	}
	padLen := int(b[len(b)-1])
	if padLen == 0 || padLen > len(b) || padLen > aes.BlockSize {
		return nil, fmt.Errorf("pkcs7 unpad: %w: bad padding", walleterrors.ErrWrongPassword)
	}
	for _, p := range b[len(b)-padLen:] {
		if int(p) != padLen {
			return nil, fmt.Errorf("pkcs7 unpad: %w: bad padding", walleterrors.ErrWrongPassword)
		}
	}
	return b[:len(b)-padLen], nil
}

// EncryptMnemonic encrypts mnemonic with password using the new JSON
// envelope format.
func EncryptMnemonic(mnemonic, password string) (*Envelope, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("encrypt mnemonic: generate salt: %w", err)
	}
	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("encrypt mnemonic: generate iv: %w", err)
	}

	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encrypt mnemonic: new cipher: %w", err)
	}

	plaintext := pkcs7Pad([]byte(mnemonic), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return &Envelope{
		Salt:      hex.EncodeToString(salt),
		IV:        hex.EncodeToString(iv),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// DecryptMnemonic decrypts an Envelope with password, returning the
// original mnemonic text. Returns ErrWrongPassword on any failure, since a
// bad password and corrupt ciphertext are indistinguishable by design.
func DecryptMnemonic(env *Envelope, password string) (string, error) {
	salt, err := hex.DecodeString(env.Salt)
	if err != nil {
		return "", fmt.Errorf("decrypt mnemonic: %w: bad salt", walleterrors.ErrWrongPassword)
	}
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return "", fmt.Errorf("decrypt mnemonic: %w: bad iv", walleterrors.ErrWrongPassword)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt mnemonic: %w: bad ciphertext encoding", walleterrors.ErrWrongPassword)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("decrypt mnemonic: %w: malformed ciphertext", walleterrors.ErrWrongPassword)
	}

	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("decrypt mnemonic: %w", walleterrors.ErrWrongPassword)
	}

	plaintext := make([]byte, len(ciphertext))
	func() {
		defer func() { recover() }() // CBC panics on malformed IV length; treat as wrong password
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	}()

	unpadded, err := pkcs7Unpad(plaintext)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// IsLegacyEnvelope reports whether raw is a legacy CryptoJS
// "OpenSSL-kdf" encrypted blob (base64-encoded, "Salted__" magic prefix).
func IsLegacyEnvelope(raw string) bool {
	if len(raw) >= len(legacyOpenSSLBase64Prefix) && raw[:len(legacyOpenSSLBase64Prefix)] == legacyOpenSSLBase64Prefix {
		return true
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return false
	}
	return bytes.HasPrefix(decoded, []byte(legacyOpenSSLMagic))
}

// DecryptLegacyEnvelope decrypts a legacy CryptoJS OpenSSL-format blob:
// base64("Salted__" + 8-byte salt + ciphertext), key+iv derived via
// CryptoJS's EVP_BytesToKey (repeated MD5) with AES-256-CBC.
func DecryptLegacyEnvelope(raw, password string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decrypt legacy mnemonic: %w: bad base64", walleterrors.ErrWrongPassword)
	}
	if len(decoded) < 16 || !bytes.HasPrefix(decoded, []byte(legacyOpenSSLMagic)) {
		return "", fmt.Errorf("decrypt legacy mnemonic: %w: missing Salted__ magic", walleterrors.ErrWrongPassword)
	}

	salt := decoded[8:16]
	ciphertext := decoded[16:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("decrypt legacy mnemonic: %w: malformed ciphertext", walleterrors.ErrWrongPassword)
	}

	key, iv := evpBytesToKey([]byte(password), salt, 32, 16)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("decrypt legacy mnemonic: %w", walleterrors.ErrWrongPassword)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// evpBytesToKey reproduces OpenSSL's (and CryptoJS's) legacy EVP_BytesToKey
// derivation: repeated MD5 of (prevDigest || password || salt) until enough
// key+IV bytes are produced.
func evpBytesToKey(password, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var (
		concatenated []byte
		prevDigest   []byte
	)
	for len(concatenated) < keyLen+ivLen {
		h := md5.New()
		h.Write(prevDigest)
		h.Write(password)
		h.Write(salt)
		digest := h.Sum(nil)
		concatenated = append(concatenated, digest...)
		prevDigest = digest
	}
	return concatenated[:keyLen], concatenated[keyLen : keyLen+ivLen]
}

// MarshalEnvelope/UnmarshalEnvelope round-trip the JSON wire format from §6.
func MarshalEnvelope(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func UnmarshalEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w: %v", walleterrors.ErrInvalidInput, err)
	}
	return &env, nil
}

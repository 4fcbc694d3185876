package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Ciphertext layout:
//
//	[0..1]   uint16 key id
//	[2..13]  GCM nonce
//	[14..]   sealed plaintext + tag
const (
	headerSize = 2
	nonceSize  = 12
	keySize    = 32
)

var (
	ErrEncryptorNotConfigured = errors.New("mfa: encryptor not configured")
	ErrPlaintextEmpty         = errors.New("mfa: plaintext is empty")
	ErrInvalidKeyLength       = errors.New("mfa: key must be 32 bytes")
	ErrCiphertextTooShort     = errors.New("mfa: ciphertext too short")
	ErrUnknownKey             = errors.New("mfa: unknown key id")
	ErrDecryptFailed          = errors.New("mfa: decrypt failed")
)

// AESGCMEncryptor implements Encryptor with AES-256-GCM.
type AESGCMEncryptor struct {
	keys KeyProvider
}

func NewAESGCMEncryptor(keys KeyProvider) *AESGCMEncryptor {
	return &AESGCMEncryptor{keys: keys}
}

func (e *AESGCMEncryptor) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEncryptorNotConfigured
	}
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	id, key, err := e.keys.Current()
	if err != nil {
		return nil, fmt.Errorf("mfa: current key: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize+nonceSize, headerSize+nonceSize+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out[:headerSize], id)
	if _, err := io.ReadFull(rand.Reader, out[headerSize:]); err != nil {
		return nil, fmt.Errorf("mfa: nonce: %w", err)
	}

	return gcm.Seal(out, out[headerSize:], plaintext, scopeAAD(scope)), nil
}

func (e *AESGCMEncryptor) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEncryptorNotConfigured
	}
	if len(ciphertext) <= headerSize+nonceSize {
		return nil, ErrCiphertextTooShort
	}

	key, err := e.keys.Key(binary.BigEndian.Uint16(ciphertext[:headerSize]))
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := ciphertext[headerSize : headerSize+nonceSize]
	plain, err := gcm.Open(nil, nonce, ciphertext[headerSize+nonceSize:], scopeAAD(scope))
	if err != nil {
		// wrong scope, wrong key and tampering all look the same
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("mfa: aes: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

func scopeAAD(s Scope) []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "account=%d\npurpose=%s\n", s.AccountID, s.Purpose))
	return sum[:]
}

// Keyring is a static KeyProvider loaded from configuration.
type Keyring struct {
	current uint16
	keys    map[uint16][]byte
}

// NewKeyring returns a keyring sealing with keys[current].
func NewKeyring(current uint16, keys map[uint16][]byte) (*Keyring, error) {
	if _, ok := keys[current]; !ok {
		return nil, ErrUnknownKey
	}

	kr := &Keyring{current: current, keys: make(map[uint16][]byte, len(keys))}
	for id, k := range keys {
		if len(k) != keySize {
			return nil, fmt.Errorf("key %d: %w", id, ErrInvalidKeyLength)
		}
		kr.keys[id] = append([]byte(nil), k...)
	}
	return kr, nil
}

func (k *Keyring) Current() (uint16, []byte, error) {
	return k.current, k.keys[k.current], nil
}

func (k *Keyring) Key(id uint16) ([]byte, error) {
	key, ok := k.keys[id]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

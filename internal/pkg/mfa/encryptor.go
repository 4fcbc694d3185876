package mfa

// Encryptor seals second-factor secrets at rest.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider resolves AES-256 keys by id. The current key seals new data;
// older ids stay readable until every record has been resealed.
type KeyProvider interface {
	Current() (id uint16, key []byte, err error)
	Key(id uint16) ([]byte, error)
}

package hash

// Hash produces and checks one-way digests of plaintext secrets.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

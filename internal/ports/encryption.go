package ports

// EncryptionService defines the interface for at-rest encryption of
// credential blobs
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

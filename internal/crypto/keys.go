// keys.go - signing key generation and JWK file storage
//
// session token signing keys are stored as a JWK set containing a single private key.
// File access is scoped to a base directory with os.OpenRoot.
package crypto

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// GenerateEd25519KeyPair generates a new ED25519 private key
func GenerateEd25519KeyPair() (ed25519.PrivateKey, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to generate key pair")
	}

	return privateKey, nil
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size
// minimum key size is 2048 bits (4096 is recommended) - key size must be a multiple of 256
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, NewValidationError("key size must be at least 2048 bits")
	}

	if bits%256 != 0 {
		return nil, NewValidationError("key size should be a multiple of 256")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to generate key pair")
	}

	return privateKey, nil
}

// SavePrivateKeyToJWKFile saves an Ed25519 or RSA private key to a JWK file
// note the key is not encrypted
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.jwk")
func SavePrivateKeyToJWKFile(privateKey crypto.Signer, keyID, baseDir, filename string) error {
	jwkKey, err := PrivateKeyToJWK(privateKey, keyID)
	if err != nil {
		return err
	}
	return writeJWKFile(jwkKey, baseDir, filename, 0600)
}

// SavePublicKeyToJWKFile saves an Ed25519 or RSA public key to a JWK file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.jwk")
func SavePublicKeyToJWKFile(publicKey crypto.PublicKey, keyID, baseDir, filename string) error {
	jwkKey, err := PublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return err
	}
	return writeJWKFile(jwkKey, baseDir, filename, 0644)
}

func writeJWKFile(key jwk.Key, baseDir, filename string, perm os.FileMode) error {
	jwkSet, err := NewJWKSet(key)
	if err != nil {
		return err
	}

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return WrapInternalError(err, "failed to marshal JWK set")
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return WrapKeyManagementError(err, "failed to open root directory "+baseDir)
	}
	defer root.Close()

	if err := root.WriteFile(filename, jsonBytes, perm); err != nil {
		return WrapKeyManagementError(err, "failed to write file")
	}

	return nil
}

// ReadPrivateKeyFromJWKFile loads an Ed25519 or RSA private key and its key ID from a JWK file.
// When the JWK has no kid one is derived from the public key thumbprint.
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.jwk")
func ReadPrivateKeyFromJWKFile(baseDir, filename string) (crypto.Signer, string, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, "", WrapKeyManagementError(err, "failed to open root directory "+baseDir)
	}
	defer root.Close()

	jsonBytes, err := root.ReadFile(filename)
	if err != nil {
		return nil, "", WrapKeyManagementError(err, "failed to read file")
	}

	jwkSet, err := jwk.Parse(jsonBytes)
	if err != nil {
		return nil, "", WrapKeyManagementError(err, "failed to parse JWK set")
	}

	if jwkSet.Len() == 0 {
		return nil, "", NewKeyManagementError("JWK set is empty")
	}

	jwkKey, ok := jwkSet.Key(0)
	if !ok {
		return nil, "", NewKeyManagementError("failed to get key from JWK set")
	}

	var raw any
	if err := jwk.Export(jwkKey, &raw); err != nil {
		return nil, "", WrapKeyManagementError(err, "failed to export key")
	}

	var signer crypto.Signer
	switch k := raw.(type) {
	case ed25519.PrivateKey:
		signer = k
	case *rsa.PrivateKey:
		signer = k
	default:
		return nil, "", NewKeyManagementError("key is not an Ed25519 or RSA private key")
	}

	keyID, ok := jwkKey.KeyID()
	if !ok || keyID == "" {
		keyID, err = GenerateKeyID(signer.Public())
		if err != nil {
			return nil, "", err
		}
	}

	return signer, keyID, nil
}

// ReadPrivateKeyFromJWKPath is ReadPrivateKeyFromJWKFile for a single path.
func ReadPrivateKeyFromJWKPath(path string) (crypto.Signer, string, error) {
	return ReadPrivateKeyFromJWKFile(filepath.Dir(path), filepath.Base(path))
}

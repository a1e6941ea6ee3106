// Package pqc wraps the post-quantum primitives used to seal a
// KeyTuple payload in flight: Kyber-768 for key encapsulation and
// Dilithium-3 for signing the resulting ciphertext. It has no notion
// of a key store, key rotation, or persisted key material -- a
// PQCKeyPair lives for the lifetime of the PayloadCipher that holds
// it.
package pqc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
)

// GenerateKyberKeyPair generates a new Kyber-768 key pair.
func GenerateKyberKeyPair() (kem.PublicKey, kem.PrivateKey, error) {
	scheme := kyber768.Scheme()
	publicKey, privateKey, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, fmt.Errorf("pqc: generate kyber key pair: %w", err)
	}
	return publicKey, privateKey, nil
}

// KyberEncrypt seals plaintext under publicKey: a Kyber-768
// encapsulation produces a shared secret, which then keys an
// AES-256-GCM seal of plaintext. The result is the KEM ciphertext
// followed by the AES-GCM blob.
func KyberEncrypt(publicKey kem.PublicKey, plaintext []byte) ([]byte, error) {
	scheme := kyber768.Scheme()

	ciphertext, sharedSecret, err := scheme.Encapsulate(publicKey)
	if err != nil {
		return nil, fmt.Errorf("pqc: encapsulate: %w", err)
	}

	encryptedData, err := aesSeal(sharedSecret, plaintext)
	if err != nil {
		return nil, fmt.Errorf("pqc: aes seal: %w", err)
	}

	result := make([]byte, scheme.CiphertextSize()+len(encryptedData))
	copy(result[:scheme.CiphertextSize()], ciphertext)
	copy(result[scheme.CiphertextSize():], encryptedData)
	return result, nil
}

// KyberDecrypt is the inverse of KyberEncrypt.
func KyberDecrypt(privateKey kem.PrivateKey, ciphertext []byte) ([]byte, error) {
	scheme := kyber768.Scheme()

	if len(ciphertext) < scheme.CiphertextSize() {
		return nil, errors.New("pqc: ciphertext too short")
	}

	kyberCiphertext := ciphertext[:scheme.CiphertextSize()]
	encryptedData := ciphertext[scheme.CiphertextSize():]

	sharedSecret, err := scheme.Decapsulate(privateKey, kyberCiphertext)
	if err != nil {
		return nil, fmt.Errorf("pqc: decapsulate: %w", err)
	}

	plaintext, err := aesOpen(sharedSecret, encryptedData)
	if err != nil {
		return nil, fmt.Errorf("pqc: aes open: %w", err)
	}
	return plaintext, nil
}

// aesSeal encrypts plaintext under key with AES-256-GCM, hashing key
// down to 32 bytes first if it isn't already (a Kyber-768 shared secret
// already is, and is used as is).
func aesSeal(key []byte, plaintext []byte) ([]byte, error) {
	gcm, err := gcmFor(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func aesOpen(key []byte, ciphertext []byte) ([]byte, error) {
	gcm, err := gcmFor(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func gcmFor(key []byte) (cipher.AEAD, error) {
	aesKey := key
	if len(aesKey) != 32 {
		hash := sha256.Sum256(key)
		aesKey = hash[:]
	}
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

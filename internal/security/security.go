// Package security provides optional confidentiality and integrity
// protection for KeyTuple payloads in flight between the façade and
// the worker tier; PayloadCipher is exercised only when anna.Config
// supplies one. Two modes are supported: a symmetric AES-256-GCM path
// keyed by a PBKDF2-derived secret, and an optional post-quantum path
// layering Kyber-768 KEM encryption with Dilithium-3 signing.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/hydro-project/anna-go/internal/crypto/pqc"
)

const (
	pbkdf2Iterations = 100000
	aesKeyLength     = 32
	saltLength       = 16
)

// ErrSignatureInvalid is returned by Open when a PQC-sealed payload's
// Dilithium signature does not verify against the configured public
// key.
var ErrSignatureInvalid = errors.New("security: payload signature verification failed")

// PayloadCipher seals and opens KeyTuple payloads, either with a
// symmetric key or with a PQC key pair. The zero value is not usable;
// construct with NewSymmetricCipher or NewPQCCipher.
type PayloadCipher struct {
	symmetricKey []byte
	pqcKeys      *pqc.PQCKeyPair
}

// NewSymmetricCipher derives an AES-256 key from secret and salt via
// PBKDF2-SHA256 and returns a cipher that seals payloads with
// AES-256-GCM. The same secret and salt must be supplied to the peer
// opening the payload.
func NewSymmetricCipher(secret string, salt []byte) *PayloadCipher {
	key := pbkdf2.Key([]byte(secret), salt, pbkdf2Iterations, aesKeyLength, sha256.New)
	return &PayloadCipher{symmetricKey: key}
}

// NewPQCCipher returns a cipher that seals payloads by Kyber-768 KEM
// encryption under keys.KyberPublicKey, signed with
// keys.DilithiumPrivateKey, and opens them by verifying against
// keys.DilithiumPublicKey and decapsulating with
// keys.KyberPrivateKey. A cipher used only for sealing needs no
// Dilithium private key set on the peer's copy, and vice versa for a
// cipher used only for opening.
func NewPQCCipher(keys *pqc.PQCKeyPair) *PayloadCipher {
	return &PayloadCipher{pqcKeys: keys}
}

// Seal encrypts plaintext, returning a wire-ready ciphertext.
func (c *PayloadCipher) Seal(plaintext []byte) ([]byte, error) {
	if c.pqcKeys != nil {
		return c.sealPQC(plaintext)
	}
	return c.sealSymmetric(plaintext)
}

// Open decrypts a ciphertext produced by Seal.
func (c *PayloadCipher) Open(ciphertext []byte) ([]byte, error) {
	if c.pqcKeys != nil {
		return c.openPQC(ciphertext)
	}
	return c.openSymmetric(ciphertext)
}

func (c *PayloadCipher) sealSymmetric(plaintext []byte) ([]byte, error) {
	gcm, err := c.symmetricGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *PayloadCipher) openSymmetric(ciphertext []byte) ([]byte, error) {
	gcm, err := c.symmetricGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("security: ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt: %w", err)
	}
	return plaintext, nil
}

func (c *PayloadCipher) symmetricGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("security: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: new gcm: %w", err)
	}
	return gcm, nil
}

// sealPQC lays out [4-byte big-endian signature length][signature]
// [Kyber ciphertext + AES-GCM blob, as returned by pqc.KyberEncrypt].
func (c *PayloadCipher) sealPQC(plaintext []byte) ([]byte, error) {
	encrypted, err := pqc.KyberEncrypt(c.pqcKeys.KyberPublicKey, plaintext)
	if err != nil {
		return nil, fmt.Errorf("security: kyber encrypt: %w", err)
	}
	signature, err := pqc.DilithiumSign(c.pqcKeys.DilithiumPrivateKey, encrypted)
	if err != nil {
		return nil, fmt.Errorf("security: dilithium sign: %w", err)
	}

	out := make([]byte, 4+len(signature)+len(encrypted))
	binary.BigEndian.PutUint32(out[:4], uint32(len(signature)))
	copy(out[4:4+len(signature)], signature)
	copy(out[4+len(signature):], encrypted)
	return out, nil
}

func (c *PayloadCipher) openPQC(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 4 {
		return nil, fmt.Errorf("security: ciphertext too short")
	}
	sigLen := binary.BigEndian.Uint32(ciphertext[:4])
	if uint32(len(ciphertext)-4) < sigLen {
		return nil, fmt.Errorf("security: ciphertext too short for signature")
	}
	signature := ciphertext[4 : 4+sigLen]
	encrypted := ciphertext[4+sigLen:]

	if !pqc.DilithiumVerify(c.pqcKeys.DilithiumPublicKey, encrypted, signature) {
		return nil, ErrSignatureInvalid
	}
	plaintext, err := pqc.KyberDecrypt(c.pqcKeys.KyberPrivateKey, encrypted)
	if err != nil {
		return nil, fmt.Errorf("security: kyber decrypt: %w", err)
	}
	return plaintext, nil
}

// GenerateSalt returns a fresh random salt suitable for
// NewSymmetricCipher.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("security: generate salt: %w", err)
	}
	return salt, nil
}

// GeneratePQCKeyPair generates a fresh Kyber-768/Dilithium-3 key pair
// suitable for NewPQCCipher.
func GeneratePQCKeyPair() (*pqc.PQCKeyPair, error) {
	return pqc.GeneratePQCKeyPair()
}

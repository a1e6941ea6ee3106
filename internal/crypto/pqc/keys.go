package pqc

import (
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/sign"
)

// PQCKeyPair bundles the Kyber-768 encryption keys and Dilithium-3
// signing keys a PayloadCipher needs to seal and open KeyTuple
// payloads. It carries no identity, expiry, or persistence metadata:
// generate one per PayloadCipher and hold it in memory for that
// cipher's lifetime.
type PQCKeyPair struct {
	KyberPublicKey  kem.PublicKey
	KyberPrivateKey kem.PrivateKey

	DilithiumPublicKey  sign.PublicKey
	DilithiumPrivateKey sign.PrivateKey
}

// GeneratePQCKeyPair generates a fresh Kyber-768 + Dilithium-3 key
// pair.
func GeneratePQCKeyPair() (*PQCKeyPair, error) {
	kyberPub, kyberPriv, err := GenerateKyberKeyPair()
	if err != nil {
		return nil, fmt.Errorf("pqc: generate kyber keys: %w", err)
	}

	dilithiumPub, dilithiumPriv, err := GenerateDilithiumKeyPair()
	if err != nil {
		return nil, fmt.Errorf("pqc: generate dilithium keys: %w", err)
	}

	return &PQCKeyPair{
		KyberPublicKey:      kyberPub,
		KyberPrivateKey:     kyberPriv,
		DilithiumPublicKey:  dilithiumPub,
		DilithiumPrivateKey: dilithiumPriv,
	}, nil
}

package pqc

import (
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// GenerateDilithiumKeyPair generates a new Dilithium-3 key pair.
func GenerateDilithiumKeyPair() (sign.PublicKey, sign.PrivateKey, error) {
	scheme := mode3.Scheme()
	publicKey, privateKey, err := scheme.GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("pqc: generate dilithium key pair: %w", err)
	}
	return publicKey, privateKey, nil
}

// DilithiumSign signs message with a Dilithium-3 private key. Used to
// authenticate a Kyber-sealed payload before it goes on the wire.
func DilithiumSign(privateKey sign.PrivateKey, message []byte) ([]byte, error) {
	return mode3.Scheme().Sign(privateKey, message, nil), nil
}

// DilithiumVerify verifies a signature produced by DilithiumSign.
func DilithiumVerify(publicKey sign.PublicKey, message []byte, signature []byte) bool {
	return mode3.Scheme().Verify(publicKey, message, signature, nil)
}

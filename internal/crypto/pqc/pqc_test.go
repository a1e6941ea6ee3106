package pqc_test

import (
	"testing"

	"github.com/hydro-project/anna-go/internal/crypto/pqc"
)

func TestKyberEncryptDecryptRoundTrips(t *testing.T) {
	pubKey, privKey, err := pqc.GenerateKyberKeyPair()
	if err != nil {
		t.Fatalf("GenerateKyberKeyPair: %v", err)
	}

	plaintext := []byte("a KeyTuple payload worth sealing")

	ciphertext, err := pqc.KyberEncrypt(pubKey, plaintext)
	if err != nil {
		t.Fatalf("KyberEncrypt: %v", err)
	}

	decrypted, err := pqc.KyberDecrypt(privKey, ciphertext)
	if err != nil {
		t.Fatalf("KyberDecrypt: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("got %q, want %q", decrypted, plaintext)
	}
}

func TestKyberDecryptRejectsTruncatedCiphertext(t *testing.T) {
	_, privKey, err := pqc.GenerateKyberKeyPair()
	if err != nil {
		t.Fatalf("GenerateKyberKeyPair: %v", err)
	}
	if _, err := pqc.KyberDecrypt(privKey, []byte("too short")); err == nil {
		t.Error("expected an error for a ciphertext shorter than the KEM ciphertext size")
	}
}

func TestDilithiumSignVerify(t *testing.T) {
	pubKey, privKey, err := pqc.GenerateDilithiumKeyPair()
	if err != nil {
		t.Fatalf("GenerateDilithiumKeyPair: %v", err)
	}

	message := []byte("sealed payload bytes")
	signature, err := pqc.DilithiumSign(privKey, message)
	if err != nil {
		t.Fatalf("DilithiumSign: %v", err)
	}

	if !pqc.DilithiumVerify(pubKey, message, signature) {
		t.Error("expected signature to verify against the signed message")
	}
	if pqc.DilithiumVerify(pubKey, []byte("different message"), signature) {
		t.Error("expected signature to fail verification against a different message")
	}
}

func TestGeneratePQCKeyPairProducesUsableKyberAndDilithiumKeys(t *testing.T) {
	keyPair, err := pqc.GeneratePQCKeyPair()
	if err != nil {
		t.Fatalf("GeneratePQCKeyPair: %v", err)
	}

	plaintext := []byte("sealed via the generated kyber keys")
	ciphertext, err := pqc.KyberEncrypt(keyPair.KyberPublicKey, plaintext)
	if err != nil {
		t.Fatalf("KyberEncrypt: %v", err)
	}
	decrypted, err := pqc.KyberDecrypt(keyPair.KyberPrivateKey, ciphertext)
	if err != nil {
		t.Fatalf("KyberDecrypt: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("got %q, want %q", decrypted, plaintext)
	}

	signature, err := pqc.DilithiumSign(keyPair.DilithiumPrivateKey, ciphertext)
	if err != nil {
		t.Fatalf("DilithiumSign: %v", err)
	}
	if !pqc.DilithiumVerify(keyPair.DilithiumPublicKey, ciphertext, signature) {
		t.Error("expected signature over the sealed ciphertext to verify")
	}
}

func BenchmarkKyberEncrypt(b *testing.B) {
	pubKey, _, _ := pqc.GenerateKyberKeyPair()
	plaintext := []byte("benchmark payload")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pqc.KyberEncrypt(pubKey, plaintext); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKyberDecrypt(b *testing.B) {
	pubKey, privKey, _ := pqc.GenerateKyberKeyPair()
	plaintext := []byte("benchmark payload")
	ciphertext, _ := pqc.KyberEncrypt(pubKey, plaintext)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pqc.KyberDecrypt(privKey, ciphertext); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDilithiumSign(b *testing.B) {
	_, privKey, _ := pqc.GenerateDilithiumKeyPair()
	message := []byte("benchmark message")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pqc.DilithiumSign(privKey, message); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDilithiumVerify(b *testing.B) {
	pubKey, privKey, _ := pqc.GenerateDilithiumKeyPair()
	message := []byte("benchmark message")
	signature, _ := pqc.DilithiumSign(privKey, message)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !pqc.DilithiumVerify(pubKey, message, signature) {
			b.Fatal("verification failed")
		}
	}
}

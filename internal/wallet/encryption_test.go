package wallet

import (
	"bytes"
	"errors"
	"testing"
)

// fastParams keeps Argon2 cheap in tests.
func fastParams() EncryptionParams {
	return EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1}
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	for _, secret := range [][]byte{[]byte("owner seed"), {}, bytes.Repeat([]byte{0xab}, 4096)} {
		sealed, err := Encrypt(secret, []byte("pw"), fastParams())
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}
		got, err := Decrypt(sealed, []byte("pw"))
		if err != nil {
			t.Fatalf("Decrypt() error: %v", err)
		}
		if !bytes.Equal(got, secret) {
			t.Errorf("roundtrip mismatch for %d-byte secret", len(secret))
		}
	}
}

func TestEncrypt_FreshSaltAndNonce(t *testing.T) {
	a, _ := Encrypt([]byte("x"), []byte("pw"), fastParams())
	b, _ := Encrypt([]byte("x"), []byte("pw"), fastParams())
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same secret should differ")
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	sealed, _ := Encrypt([]byte("secret"), []byte("right"), fastParams())
	if _, err := Decrypt(sealed, []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("err = %v, want ErrWrongPassword", err)
	}
}

func TestDecrypt_TamperedHeader(t *testing.T) {
	sealed, _ := Encrypt([]byte("secret"), []byte("pw"), fastParams())
	// Flip a salt bit; the header is authenticated data.
	sealed[0] ^= 0x01
	if _, err := Decrypt(sealed, []byte("pw")); err == nil {
		t.Error("tampered header should fail")
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	sealed, _ := Encrypt([]byte("secret"), []byte("pw"), fastParams())
	sealed[len(sealed)-1] ^= 0x01
	if _, err := Decrypt(sealed, []byte("pw")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("err = %v, want ErrWrongPassword", err)
	}
}

func TestDecrypt_TooShort(t *testing.T) {
	if _, err := Decrypt(make([]byte, 10), []byte("pw")); err == nil {
		t.Error("expected error for short input")
	}
}

func TestEncrypt_ZeroParams(t *testing.T) {
	if _, err := Encrypt([]byte("x"), []byte("pw"), EncryptionParams{}); err == nil {
		t.Error("zero params should be rejected")
	}
}

package aesutil

import (
	"bytes"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := testKey()
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	sealed, err := Seal(key, plaintext, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Fatal("sealed output should not contain the plaintext verbatim")
	}

	got, err := Open(key, sealed, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Open = %q, want %q", got, plaintext)
	}
}

func TestSealOpen_RoundTripWithAAD(t *testing.T) {
	key := testKey()
	plaintext := []byte("payload")
	aad := []byte("request-id-42")

	sealed, err := Seal(key, plaintext, aad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	got, err := Open(key, sealed, aad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Open = %q, want %q", got, plaintext)
	}

	if _, err := Open(key, sealed, []byte("wrong-aad")); err == nil {
		t.Fatal("want an error when aad does not match what was sealed")
	}
}

func TestSeal_ProducesDistinctNoncesAcrossCalls(t *testing.T) {
	key := testKey()
	plaintext := []byte("same plaintext every time")

	a, err := Seal(key, plaintext, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, err := Seal(key, plaintext, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two Seal calls with the same plaintext should not produce identical output")
	}
}

func TestOpen_RejectsTamperedCiphertext(t *testing.T) {
	key := testKey()
	sealed, err := Seal(key, []byte("integrity matters"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xFF

	if _, err := Open(key, tampered, nil); err == nil {
		t.Fatal("want an error when the sealed buffer has been tampered with")
	}
}

func TestOpen_RejectsWrongKey(t *testing.T) {
	key := testKey()
	sealed, err := Seal(key, []byte("secret"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	wrongKey := testKey()
	wrongKey[0] ^= 0xFF

	if _, err := Open(wrongKey, sealed, nil); err == nil {
		t.Fatal("want an error when opening with the wrong key")
	}
}

func TestSeal_RejectsWrongKeySize(t *testing.T) {
	if _, err := Seal([]byte("too-short"), []byte("data"), nil); err != ErrInvalidKeySize {
		t.Fatalf("err = %v, want ErrInvalidKeySize", err)
	}
}

func TestOpen_RejectsSealedDataShorterThanNonce(t *testing.T) {
	key := testKey()
	if _, err := Open(key, []byte("short"), nil); err == nil {
		t.Fatal("want an error when sealed data is too short to contain a nonce")
	}
}

package cfb

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"testing"
)

func testBlock(t *testing.T) cipher.Block {
	t.Helper()
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	b, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestResyncRoundTrip(t *testing.T) {
	block := testBlock(t)
	plain := []byte("the quick brown fox jumps over the lazy dog")
	ct, err := EncryptResync(block, plain)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := DecryptResync(block, ct)
	if err != nil {
		t.Fatalf("unexpected quick check failure: %v", err)
	}
	if !bytes.Equal(pt, plain) {
		t.Fatalf("round trip mismatch: got %q want %q", pt, plain)
	}
}

func TestResyncQuickCheckFailsOnTamperedPrefix(t *testing.T) {
	block := testBlock(t)
	plain := []byte("hello, world")
	ct, err := EncryptResync(block, plain)
	if err != nil {
		t.Fatal(err)
	}
	ct[0] ^= 0xff
	_, err = DecryptResync(block, ct)
	if err == nil {
		t.Fatal("expected quick check failure after tampering with prefix")
	}
}

func TestSEIPDRoundTrip(t *testing.T) {
	block := testBlock(t)
	plain := []byte("session contents protected by an MDC")
	ct, err := EncryptSEIPD(block, plain)
	if err != nil {
		t.Fatal(err)
	}
	pt, warn, fatal := DecryptSEIPD(block, ct)
	if warn != nil {
		t.Fatalf("unexpected quick check warning: %v", warn)
	}
	if fatal != nil {
		t.Fatalf("unexpected MDC failure: %v", fatal)
	}
	if !bytes.Equal(pt, plain) {
		t.Fatalf("round trip mismatch: got %q want %q", pt, plain)
	}
}

func TestSEIPDDetectsTamperedCiphertext(t *testing.T) {
	block := testBlock(t)
	plain := []byte("session contents protected by an MDC")
	ct, err := EncryptSEIPD(block, plain)
	if err != nil {
		t.Fatal(err)
	}
	ct[len(ct)-1] ^= 0xff
	_, _, fatal := DecryptSEIPD(block, ct)
	if fatal == nil {
		t.Fatal("expected MDC mismatch after tampering with ciphertext")
	}
}

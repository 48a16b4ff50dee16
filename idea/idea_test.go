package idea

import (
	"bytes"
	"testing"
)

func roundTrip(key, plain []byte) []byte {
	c, err := New(key)
	if err != nil {
		panic(err)
	}
	ct := make([]byte, BlockSize)
	c.Encrypt(ct, plain)
	pt := make([]byte, BlockSize)
	c.Decrypt(pt, ct)
	return pt
}

func TestRoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	plain := []byte("ABCDEFGH")
	got := roundTrip(key, plain)
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip mismatch: got %x want %x", got, plain)
	}
}

func TestRoundTripZeroKey(t *testing.T) {
	key := make([]byte, KeySize)
	plain := make([]byte, BlockSize)
	got := roundTrip(key, plain)
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip mismatch with zero key/plaintext: got %x", got)
	}
}

package packet

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"nullprogram.com/x/openpgp/s2k"
)

func samplePublicKey() *PublicKey {
	return &PublicKey{
		Version:      4,
		CreationTime: 0x5f000000,
		Algorithm:    PKARSAEncryptSign,
		Fields: PublicKeyFields{
			N: []byte{0x01, 0x02, 0x03, 0x04, 0xff},
			E: []byte{0x01, 0x00, 0x01},
		},
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	k := samplePublicKey()
	body := k.Body()
	got, err := ParsePublicKey(body, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.CreationTime != k.CreationTime || got.Algorithm != k.Algorithm {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if !bytes.Equal(got.Fields.N, k.Fields.N) || !bytes.Equal(got.Fields.E, k.Fields.E) {
		t.Fatalf("fields mismatch: got %+v", got.Fields)
	}
}

func TestFingerprintAndKeyID(t *testing.T) {
	k := samplePublicKey()
	fp := k.Fingerprint()
	if len(fp) != 20 {
		t.Fatalf("fingerprint length: got %d want 20", len(fp))
	}
	id := k.KeyID()
	if !bytes.Equal(id[:], fp[12:]) {
		t.Fatalf("key id should be the low 8 bytes of the fingerprint")
	}
}

func TestSecretKeyClearRoundTrip(t *testing.T) {
	pub := samplePublicKey()
	sk := &SecretKey{
		Public: pub,
		Usage:  S2KUsageClear,
		Cleartext: &SecretKeyFields{
			D: []byte{0x11, 0x22},
			P: []byte{0x33},
			Q: []byte{0x44},
			U: []byte{0x55},
		},
	}
	body := sk.Body()
	got, err := ParseSecretKey(body, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Usage != S2KUsageClear || got.Cleartext == nil {
		t.Fatalf("expected cleartext secret key, got %+v", got)
	}
	if !bytes.Equal(got.Cleartext.D, sk.Cleartext.D) {
		t.Fatalf("D mismatch: got %x want %x", got.Cleartext.D, sk.Cleartext.D)
	}
}

func TestSecretKeyLockUnlockRoundTrip(t *testing.T) {
	pub := samplePublicKey()
	sk := &SecretKey{
		Public: pub,
		Usage:  S2KUsageEncryptedSHA1,
		S2K: s2k.Spec{
			Mode: s2k.Salted,
			Salt: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		},
		Cleartext: &SecretKeyFields{
			D: []byte{0xaa, 0xbb, 0xcc},
			P: []byte{0xdd},
			Q: []byte{0xee},
			U: []byte{0xff},
		},
	}
	sk.S2K.Hash = sha1.New
	passphrase := []byte("correct horse battery staple")

	if err := sk.Lock(passphrase, 7 /* AES128 */); err != nil {
		t.Fatal(err)
	}
	if sk.Ciphertext == nil || sk.Cleartext != nil {
		t.Fatalf("expected sk to be locked")
	}

	if err := sk.Unlock(passphrase, 0); err != nil {
		t.Fatalf("unlock with correct passphrase: %v", err)
	}
	if sk.Cleartext == nil || !bytes.Equal(sk.Cleartext.D, []byte{0xaa, 0xbb, 0xcc}) {
		t.Fatalf("unlocked fields mismatch: got %+v", sk.Cleartext)
	}
}

func TestSecretKeyUnlockWrongPassphrase(t *testing.T) {
	pub := samplePublicKey()
	sk := &SecretKey{
		Public: pub,
		Usage:  S2KUsageEncryptedCksum,
		S2K: s2k.Spec{
			Mode: s2k.Salted,
			Salt: []byte{1, 2, 3, 4, 5, 6, 7, 8},
			Hash: sha1.New,
		},
		Cleartext: &SecretKeyFields{
			D: []byte{0x01}, P: []byte{0x02}, Q: []byte{0x03}, U: []byte{0x04},
		},
	}
	if err := sk.Lock([]byte("right"), 7); err != nil {
		t.Fatal(err)
	}
	err := sk.Unlock([]byte("wrong"), 0)
	if err == nil {
		t.Fatal("expected WrongPassphrase error")
	}
}

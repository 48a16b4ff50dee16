package openpgp

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"nullprogram.com/x/openpgp/packet"
)

func testRSASecretKey(t *testing.T, bits int) *packet.SecretKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatal(err)
	}
	return newRSASecretKey(priv, packet.PKARSAEncryptSign, 0x5f000000, false)
}

func TestEncryptPKDecryptRoundTrip(t *testing.T) {
	sk := testRSASecretKey(t, 2048)
	plaintext := []byte("hello\n")

	msg, err := EncryptPK([]*packet.PublicKey{sk.Public}, plaintext, EncryptOptions{})
	if err != nil {
		t.Fatalf("EncryptPK: %v", err)
	}

	got, warnings, err := Decrypt(msg, DecryptOptions{Secrets: []*packet.SecretKey{sk}})
	if err != nil {
		t.Fatalf("Decrypt: %v (warnings: %v)", err, warnings)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncryptPKDecryptWrongKeyFails(t *testing.T) {
	sk := testRSASecretKey(t, 2048)
	other := testRSASecretKey(t, 2048)
	plaintext := []byte("hello\n")

	msg, err := EncryptPK([]*packet.PublicKey{sk.Public}, plaintext, EncryptOptions{})
	if err != nil {
		t.Fatalf("EncryptPK: %v", err)
	}

	_, _, err = Decrypt(msg, DecryptOptions{Secrets: []*packet.SecretKey{other}})
	if err == nil {
		t.Fatal("expected Decrypt to fail when no PKESK matches the key id")
	}
}

func TestEncryptSymmetricDecryptRoundTrip(t *testing.T) {
	passphrase := []byte("correct horse battery staple")
	plaintext := []byte("hello\n")

	msg, err := EncryptSymmetric(passphrase, plaintext, EncryptOptions{})
	if err != nil {
		t.Fatalf("EncryptSymmetric: %v", err)
	}

	got, _, err := Decrypt(msg, DecryptOptions{Passphrase: passphrase})
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncryptSymmetricWrongPassphraseFails(t *testing.T) {
	plaintext := []byte("hello\n")
	msg, err := EncryptSymmetric([]byte("right"), plaintext, EncryptOptions{})
	if err != nil {
		t.Fatal(err)
	}

	got, _, err := Decrypt(msg, DecryptOptions{Passphrase: []byte("wrong")})
	if err == nil && bytes.Equal(got, plaintext) {
		t.Fatal("expected a wrong passphrase to fail to recover the plaintext")
	}
}

func TestEncryptPKDetectsMDCTamper(t *testing.T) {
	sk := testRSASecretKey(t, 2048)
	plaintext := []byte("hello, world\n")

	msg, err := EncryptPK([]*packet.PublicKey{sk.Public}, plaintext, EncryptOptions{})
	if err != nil {
		t.Fatal(err)
	}

	dataPkt := msg.Packets[len(msg.Packets)-1]
	if dataPkt.Tag != packet.TagSEIPD {
		t.Fatalf("expected last packet to be SEIPD, got tag %d", dataPkt.Tag)
	}
	tampered := append([]byte{}, dataPkt.Body...)
	tampered[len(tampered)-1] ^= 0xff
	dataPkt.Body = tampered

	_, _, err = Decrypt(msg, DecryptOptions{Secrets: []*packet.SecretKey{sk}})
	if err == nil {
		t.Fatal("expected a tampered SEIPD ciphertext to fail MDC verification")
	}
}

func TestEncryptPKWithCompression(t *testing.T) {
	sk := testRSASecretKey(t, 2048)
	plaintext := bytes.Repeat([]byte("compress me please\n"), 20)

	msg, err := EncryptPK([]*packet.PublicKey{sk.Public}, plaintext, EncryptOptions{Compression: packet.CompressionZIP})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := Decrypt(msg, DecryptOptions{Secrets: []*packet.SecretKey{sk}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip with compression mismatch")
	}
}

func TestEncryptPKNoRecipientsFails(t *testing.T) {
	if _, err := EncryptPK(nil, []byte("x"), EncryptOptions{}); err == nil {
		t.Fatal("expected EncryptPK with no recipients to fail")
	}
}

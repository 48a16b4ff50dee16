package openpgp

import (
	"testing"

	"nullprogram.com/x/openpgp/hashalg"
	"nullprogram.com/x/openpgp/packet"
)

func testDSASigningKey(t *testing.T) *SigningKey {
	t.Helper()
	priv, err := generateDSAKey(1024)
	if err != nil {
		t.Fatal(err)
	}
	sk := newDSASecretKey(priv, 0x5f000000)
	signer, err := NewSigningKey(sk, hashalg.SHA256)
	if err != nil {
		t.Fatal(err)
	}
	return signer
}

func TestSignVerifyDetachedRoundTrip(t *testing.T) {
	signer := testDSASigningKey(t)
	data := []byte("hello")

	detached, err := SignDetached(signer, data, 0x5f000001)
	if err != nil {
		t.Fatalf("SignDetached: %v", err)
	}

	result, err := Verify(detached.Signature, signer.Secret.Public, PreimageInput{Data: data})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result != VerifyValid {
		t.Fatalf("expected VerifyValid, got %v", result)
	}
}

func TestVerifyRejectsAlteredData(t *testing.T) {
	signer := testDSASigningKey(t)
	data := []byte("hello")

	detached, err := SignDetached(signer, data, 0x5f000001)
	if err != nil {
		t.Fatal(err)
	}

	altered := []byte("hellp")
	result, err := Verify(detached.Signature, signer.Secret.Public, PreimageInput{Data: altered})
	if result != VerifyInvalid {
		t.Fatalf("expected VerifyInvalid over altered data, got %v (err=%v)", result, err)
	}
}

func TestVerifyUndeterminedWithNoKey(t *testing.T) {
	signer := testDSASigningKey(t)
	data := []byte("hello")

	detached, err := SignDetached(signer, data, 0x5f000001)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Verify(detached.Signature, nil, PreimageInput{Data: data})
	if err != nil {
		t.Fatalf("Verify with nil key should not error: %v", err)
	}
	if result != VerifyUndetermined {
		t.Fatalf("expected VerifyUndetermined, got %v", result)
	}
}

func TestVerifyStillValidAfterUnhashedSubpacketTamper(t *testing.T) {
	// The Issuer subpacket lives in the unhashed area (sign.go's sign()),
	// so altering it must not change the digest the signature commits to.
	signer := testDSASigningKey(t)
	data := []byte("hello")

	detached, err := SignDetached(signer, data, 0x5f000001)
	if err != nil {
		t.Fatal(err)
	}

	sig := detached.Signature
	if len(sig.UnhashedSubpackets) == 0 {
		t.Fatal("expected at least one unhashed subpacket (Issuer)")
	}
	tampered := make([]byte, len(sig.UnhashedSubpackets[0].Data))
	copy(tampered, sig.UnhashedSubpackets[0].Data)
	for i := range tampered {
		tampered[i] ^= 0xff
	}
	sig.UnhashedSubpackets[0].Data = tampered

	result, err := Verify(sig, signer.Secret.Public, PreimageInput{Data: data})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result != VerifyValid {
		t.Fatalf("tampering with the unhashed area must not invalidate the signature, got %v", result)
	}
}

func TestSelfSignAndCertifyVerify(t *testing.T) {
	signer := testDSASigningKey(t)
	uid := &packet.UserID{ID: "Alice <alice@example.com>"}

	sig, err := SelfSign(signer, uid, 0x5f000002, 0x03)
	if err != nil {
		t.Fatalf("SelfSign: %v", err)
	}

	in := PreimageInput{PrimaryKeyBody: signer.Secret.Public.Body(), UserIDBytes: []byte(uid.ID)}
	result, err := Verify(sig, signer.Secret.Public, in)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result != VerifyValid {
		t.Fatalf("expected self-signature to verify, got %v", result)
	}
}

func TestClearsignRoundTrip(t *testing.T) {
	signer := testDSASigningKey(t)
	text := []byte("line one\nline two\n")

	cs, err := Clearsign(signer, text, 0x5f000003)
	if err != nil {
		t.Fatalf("Clearsign: %v", err)
	}

	result, err := Verify(cs.Signature, signer.Secret.Public, PreimageInput{Data: cs.Text})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result != VerifyValid {
		t.Fatalf("expected clearsigned text to verify, got %v", result)
	}
}

package openpgp

import (
	"bytes"
	"testing"

	"nullprogram.com/x/openpgp/packet"
)

func TestParseDetachedSignatureRoundTrip(t *testing.T) {
	signer := testDSASigningKey(t)
	detached, err := SignDetached(signer, []byte("hello"), 0x5f000005)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := packet.Write(&buf, detached.Signature.Packet(), packet.WriteOptions{}); err != nil {
		t.Fatal(err)
	}

	got, err := ParseDetachedSignature(&buf)
	if err != nil {
		t.Fatalf("ParseDetachedSignature: %v", err)
	}
	result, err := Verify(got.Signature, signer.Secret.Public, PreimageInput{Data: []byte("hello")})
	if err != nil {
		t.Fatal(err)
	}
	if result != VerifyValid {
		t.Fatalf("expected parsed detached signature to verify, got %v", result)
	}
}

func TestParseDetachedSignatureRejectsWrongShape(t *testing.T) {
	if _, err := ParseDetachedSignature(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected an empty stream to be rejected as a detached signature")
	}

	signer := testDSASigningKey(t)
	sig1, err := SignDetached(signer, []byte("a"), 0)
	if err != nil {
		t.Fatal(err)
	}
	sig2, err := SignDetached(signer, []byte("b"), 0)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	packet.Write(&buf, sig1.Signature.Packet(), packet.WriteOptions{})
	packet.Write(&buf, sig2.Signature.Packet(), packet.WriteOptions{})
	if _, err := ParseDetachedSignature(&buf); err == nil {
		t.Fatal("expected two signature packets to violate the detached signature container shape")
	}
}

func TestParseSecretKeyContainerRejectsWrongLeadingTag(t *testing.T) {
	sk := testRSASecretKey(t, 2048)
	var buf bytes.Buffer
	if err := packet.Write(&buf, sk.Public.Packet(), packet.WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseSecretKeyContainer(&buf); err == nil {
		t.Fatal("expected a public key packet to be rejected as a secret key container")
	}
}

func TestSecretKeyContainerRoundTripWithSubkey(t *testing.T) {
	sk, err := GenerateKey(KeyGenOptions{
		UserID:    "Round Trip <rt@example.com>",
		SubkeyPKA: packet.PKARSAEncryptSign,
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := sk.Write(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := ParseSecretKeyContainer(&buf)
	if err != nil {
		t.Fatalf("ParseSecretKeyContainer: %v", err)
	}
	if len(got.Identities) != 1 || len(got.Subkeys) != 1 {
		t.Fatalf("round-tripped secret container shape mismatch: %+v", got)
	}
	if got.Subkeys[0].Secret == nil {
		t.Fatal("expected the round-tripped subkey to carry secret material")
	}
}

func TestParseMessagePassesThroughPackets(t *testing.T) {
	sk := testRSASecretKey(t, 2048)
	msg, err := EncryptPK([]*packet.PublicKey{sk.Public}, []byte("hello\n"), EncryptOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeAll(&buf, msg.Packets); err != nil {
		t.Fatal(err)
	}

	got, err := ParseMessage(&buf)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if len(got.Packets) != len(msg.Packets) {
		t.Fatalf("expected %d packets, got %d", len(msg.Packets), len(got.Packets))
	}
}

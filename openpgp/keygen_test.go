package openpgp

import (
	"bytes"
	"testing"

	"nullprogram.com/x/openpgp/hashalg"
	"nullprogram.com/x/openpgp/packet"
)

func TestGenerateKeyRequiresUserID(t *testing.T) {
	if _, err := GenerateKey(KeyGenOptions{}); err == nil {
		t.Fatal("expected GenerateKey to require a user id")
	}
}

func TestGenerateKeyRSAWithSubkeySignAndEncrypt(t *testing.T) {
	sk, err := GenerateKey(KeyGenOptions{
		PrimaryPKA:  packet.PKARSAEncryptSign,
		PrimaryBits: 2048,
		SubkeyPKA:   packet.PKARSAEncryptSign,
		SubkeyBits:  2048,
		UserID:      "Test User <test@example.com>",
	})
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if len(sk.Identities) != 1 {
		t.Fatalf("expected exactly one identity, got %d", len(sk.Identities))
	}
	if len(sk.Subkeys) != 1 {
		t.Fatalf("expected exactly one subkey, got %d", len(sk.Subkeys))
	}

	selfSig := sk.Identities[0].Signatures[0]
	in := PreimageInput{PrimaryKeyBody: sk.Primary.Public.Body(), UserIDBytes: []byte(sk.Identities[0].UserID.ID)}
	result, err := Verify(selfSig, sk.Primary.Public, in)
	if err != nil {
		t.Fatalf("Verify self-signature: %v", err)
	}
	if result != VerifyValid {
		t.Fatalf("expected self-signature to verify, got %v", result)
	}

	sub := sk.Subkeys[0]
	bindIn := PreimageInput{PrimaryKeyBody: sk.Primary.Public.Body(), SubkeyBody: sub.Public.Body()}
	result, err = Verify(sub.BindingSig, sk.Primary.Public, bindIn)
	if err != nil {
		t.Fatalf("Verify binding signature: %v", err)
	}
	if result != VerifyValid {
		t.Fatalf("expected subkey binding signature to verify, got %v", result)
	}

	signer, err := NewSigningKey(sk.Primary, hashalg.SHA256)
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	detached, err := SignDetached(signer, []byte("hello\n"), 0)
	if err != nil {
		t.Fatalf("SignDetached with generated key: %v", err)
	}
	if result, _ := Verify(detached.Signature, sk.Primary.Public, PreimageInput{Data: []byte("hello\n")}); result != VerifyValid {
		t.Fatalf("expected freshly-generated primary key to produce a valid signature")
	}
}

func TestGenerateKeyElGamalSubkeyUnsupported(t *testing.T) {
	_, err := GenerateKey(KeyGenOptions{
		UserID:    "Test User <test@example.com>",
		SubkeyPKA: packet.PKAElGamal,
	})
	if err == nil {
		t.Fatal("expected ElGamal subkey generation to report UnsupportedAlgorithm")
	}
}

func TestGenerateKeyDSAPrimary(t *testing.T) {
	sk, err := GenerateKey(KeyGenOptions{
		PrimaryPKA:  packet.PKADSA,
		PrimaryBits: 1024,
		UserID:      "DSA User <dsa@example.com>",
	})
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if sk.Primary.Public.Algorithm != packet.PKADSA {
		t.Fatalf("expected a DSA primary key, got algorithm %d", sk.Primary.Public.Algorithm)
	}
}

func TestGenerateKeyLocksSecretMaterial(t *testing.T) {
	passphrase := []byte("correct horse battery staple")
	sk, err := GenerateKey(KeyGenOptions{UserID: "Locked <locked@example.com>", Passphrase: passphrase})
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if sk.Primary.Cleartext != nil || sk.Primary.Ciphertext == nil {
		t.Fatal("expected the generated primary key to be locked")
	}

	if err := sk.Primary.Unlock(passphrase, 0); err != nil {
		t.Fatalf("Unlock with correct passphrase: %v", err)
	}
	if sk.Primary.Cleartext == nil {
		t.Fatal("expected unlock to recover the cleartext secret material")
	}
}

func TestSecretKeyContainerPublicDerivation(t *testing.T) {
	sk, err := GenerateKey(KeyGenOptions{
		UserID:    "Test User <test@example.com>",
		SubkeyPKA: packet.PKARSAEncryptSign,
	})
	if err != nil {
		t.Fatal(err)
	}
	pub := sk.Public()
	if pub.Primary != sk.Primary.Public {
		t.Fatal("expected Public() to reuse the primary public key value")
	}
	if len(pub.Subkeys) != 1 || pub.Subkeys[0].Secret != nil {
		t.Fatal("expected Public() subkeys to carry no secret material")
	}

	var buf bytes.Buffer
	if err := pub.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	roundTripped, err := ParsePublicKeyContainer(&buf)
	if err != nil {
		t.Fatalf("ParsePublicKeyContainer: %v", err)
	}
	if len(roundTripped.Identities) != 1 || len(roundTripped.Subkeys) != 1 {
		t.Fatalf("round-tripped public container shape mismatch: %+v", roundTripped)
	}
}

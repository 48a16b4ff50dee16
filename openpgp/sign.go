// Signature pipeline (spec 4.6): sign/verify/certify/bind/revoke entry
// points built on openpgp.Preimage and the PKA primitives in pka.go.
//
// Grounded on signkey.go's Sign/Clearsign/Bind/SelfSign/Certify, which
// already split "build the preimage hash, then PKA-sign it" into a
// sigInput struct plus a single sign() method; generalized here from its
// fixed Ed25519/SHA-256 case to the RSA/DSA + closed hash registry spec
// §4.6 names, and widened with a three-valued Verify and a CheckRevoked
// pass per spec's Open Question decisions (see DESIGN.md).
package openpgp

import (
	"bytes"

	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/hashalg"
	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/pgperror"
	"nullprogram.com/x/openpgp/pkcs1"
)

// SigningKey pairs an unlocked secret key with the hash algorithm its
// signatures use.
type SigningKey struct {
	Secret  *packet.SecretKey
	HashAlg byte
}

// NewSigningKey wraps an already-unlocked secret key for signing.
func NewSigningKey(secret *packet.SecretKey, hashAlg byte) (*SigningKey, error) {
	if secret.Cleartext == nil {
		return nil, pgperror.New(pgperror.MalformedKey, "openpgp: secret key must be unlocked before signing")
	}
	if !secret.Public.Algorithm.CanSign() {
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: key algorithm cannot produce signatures")
	}
	return &SigningKey{Secret: secret, HashAlg: hashAlg}, nil
}

// sign builds the hashed/unhashed subpacket areas, the digest preimage,
// and the PKA signature MPIs for one signature of the given type.
func (sk *SigningKey) sign(sigType byte, in PreimageInput, extraHashed []packet.Subpacket, creationTime uint32) (*packet.Signature, error) {
	pub := sk.Secret.Public
	hashCtor, err := hashalg.New(sk.HashAlg)
	if err != nil {
		return nil, err
	}

	keyID := pub.KeyID()
	hashed := append([]packet.Subpacket{
		{Type: packet.SubpacketSignatureCreationTime, Data: bignum.PutUint32(creationTime)},
	}, extraHashed...)

	sig := &packet.Signature{
		Version:            4,
		SigType:             sigType,
		PKA:                 pub.Algorithm,
		HashAlg:             sk.HashAlg,
		HashedSubpackets:    hashed,
		UnhashedSubpackets:  []packet.Subpacket{{Type: packet.SubpacketIssuer, Data: keyID[:]}},
	}

	in.SigType = sigType
	preimage, err := Preimage(sig, in)
	if err != nil {
		return nil, err
	}
	h := hashCtor()
	h.Write(preimage)
	digest := h.Sum(nil)
	sig.Left16 = uint16(digest[0])<<8 | uint16(digest[1])

	switch {
	case pub.Algorithm.IsRSA():
		n, d, err := rsaPrivateKey(sk.Secret)
		if err != nil {
			return nil, err
		}
		k := RSAModulusLen(n)
		em, err := pkcs1.EMSAEncode(sk.HashAlg, digest, k)
		if err != nil {
			return nil, err
		}
		sig.MPIs = [][]byte{rsaApply(RSAKey{N: n, Exponent: d}, em)}

	case pub.Algorithm == packet.PKADSA:
		priv, err := dsaPrivateKey(sk.Secret)
		if err != nil {
			return nil, err
		}
		r, s, err := DSASign(priv, digest)
		if err != nil {
			return nil, err
		}
		sig.MPIs = [][]byte{r.Bytes(), s.Bytes()}

	default:
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: signing with this public-key algorithm is not supported")
	}

	return sig, nil
}

// SignBinary produces a type 0x00 signature over data.
func SignBinary(sk *SigningKey, data []byte, creationTime uint32) (*packet.Signature, error) {
	return sk.sign(packet.SigBinaryDocument, PreimageInput{Data: data}, nil, creationTime)
}

// SignText produces a type 0x01 signature over CRLF-canonicalized text.
func SignText(sk *SigningKey, data []byte, creationTime uint32) (*packet.Signature, error) {
	return sk.sign(packet.SigCanonicalText, PreimageInput{Data: data}, nil, creationTime)
}

// SignStandalone produces a type 0x02 signature with no content bytes.
func SignStandalone(sk *SigningKey, creationTime uint32) (*packet.Signature, error) {
	return sk.sign(packet.SigStandalone, PreimageInput{}, nil, creationTime)
}

// SignDetached produces a detached (type 0x00) signature container.
func SignDetached(sk *SigningKey, data []byte, creationTime uint32) (*DetachedSignature, error) {
	sig, err := SignBinary(sk, data, creationTime)
	if err != nil {
		return nil, err
	}
	return &DetachedSignature{Signature: sig}, nil
}

// Clearsign produces a type 0x01 signature over text and bundles it with
// the (uncanonicalized) original text as a CleartextSignature container;
// EncodeCleartext in armor.go handles the RFC 4880 section 7 dash-escaped
// text framing.
func Clearsign(sk *SigningKey, text []byte, creationTime uint32) (*CleartextSignature, error) {
	sig, err := SignText(sk, text, creationTime)
	if err != nil {
		return nil, err
	}
	return &CleartextSignature{Text: text, Signature: sig}, nil
}

// Certify produces a certification signature (type 0x10-0x13) binding uid
// to primary.
func Certify(sk *SigningKey, sigType byte, primary *packet.PublicKey, uid *packet.UserID, creationTime uint32, extraHashed []packet.Subpacket) (*packet.Signature, error) {
	switch sigType {
	case packet.SigCertGeneric, packet.SigCertPersona, packet.SigCertCasual, packet.SigCertPositive:
	default:
		return nil, pgperror.New(pgperror.ContainerShapeViolation, "openpgp: not a certification signature type")
	}
	in := PreimageInput{PrimaryKeyBody: primary.Body(), UserIDBytes: []byte(uid.ID)}
	return sk.sign(sigType, in, extraHashed, creationTime)
}

// SelfSign produces sk's own positive-certification self-signature over
// uid, with a Key Flags subpacket carrying flags (spec 4.8: sign+certify
// on the primary, encrypt on a subkey).
func SelfSign(sk *SigningKey, uid *packet.UserID, creationTime uint32, flags byte) (*packet.Signature, error) {
	extra := []packet.Subpacket{{Type: packet.SubpacketKeyFlags, Data: []byte{flags}}}
	return Certify(sk, packet.SigCertPositive, sk.Secret.Public, uid, creationTime, extra)
}

// Bind produces a type 0x18 subkey binding signature from sk's primary
// key to subkey, with a Key Flags subpacket carrying flags.
func Bind(sk *SigningKey, subkey *packet.PublicKey, creationTime uint32, flags byte) (*packet.Signature, error) {
	in := PreimageInput{PrimaryKeyBody: sk.Secret.Public.Body(), SubkeyBody: subkey.Body()}
	extra := []packet.Subpacket{{Type: packet.SubpacketKeyFlags, Data: []byte{flags}}}
	return sk.sign(packet.SigSubkeyBinding, in, extra, creationTime)
}

// Revoke produces a standalone type 0x20 Key Revocation Signature over
// sk's own primary key (spec 4.9), carrying a Revocation Reason subpacket.
func Revoke(sk *SigningKey, creationTime uint32, reasonCode byte, reasonText string) (*packet.Signature, error) {
	in := PreimageInput{PrimaryKeyBody: sk.Secret.Public.Body()}
	extra := []packet.Subpacket{{Type: packet.SubpacketRevocationReason, Data: append([]byte{reasonCode}, []byte(reasonText)...)}}
	return sk.sign(packet.SigKeyRevocation, in, extra, creationTime)
}

// VerifyResult is the three-valued outcome spec 4.6 requires: a verifier
// with no key for the claimed signer can't say more than "undetermined".
type VerifyResult int

const (
	VerifyUndetermined VerifyResult = iota
	VerifyValid
	VerifyInvalid
)

// Verify reconstructs sig's digest preimage from in and pub's public key
// and checks it. pub == nil reports VerifyUndetermined (signer unknown).
func Verify(sig *packet.Signature, pub *packet.PublicKey, in PreimageInput) (VerifyResult, error) {
	if pub == nil {
		return VerifyUndetermined, nil
	}
	hashCtor, err := hashalg.New(sig.HashAlg)
	if err != nil {
		return VerifyUndetermined, err
	}
	in.SigType = sig.SigType
	preimage, err := Preimage(sig, in)
	if err != nil {
		return VerifyInvalid, err
	}
	h := hashCtor()
	h.Write(preimage)
	digest := h.Sum(nil)

	switch {
	case pub.Algorithm.IsRSA():
		if len(sig.MPIs) != 1 {
			return VerifyInvalid, pgperror.New(pgperror.BadSignature, "openpgp: malformed RSA signature")
		}
		n, e, err := rsaPublicKey(pub)
		if err != nil {
			return VerifyUndetermined, err
		}
		k := RSAModulusLen(n)
		raw := sig.MPIs[0]
		if len(raw) > k {
			return VerifyInvalid, pgperror.New(pgperror.BadSignature, "openpgp: RSA signature longer than modulus")
		}
		padded := make([]byte, k)
		copy(padded[k-len(raw):], raw)
		em := rsaApply(RSAKey{N: n, Exponent: e}, padded)
		want, err := pkcs1.EMSAEncode(sig.HashAlg, digest, k)
		if err != nil {
			return VerifyUndetermined, err
		}
		if !bytes.Equal(em, want) {
			return VerifyInvalid, pgperror.New(pgperror.BadSignature, "openpgp: RSA signature mismatch")
		}
		return VerifyValid, nil

	case pub.Algorithm == packet.PKADSA:
		if len(sig.MPIs) != 2 {
			return VerifyInvalid, pgperror.New(pgperror.BadSignature, "openpgp: malformed DSA signature")
		}
		dpub, err := dsaPublicKey(pub)
		if err != nil {
			return VerifyUndetermined, err
		}
		if !DSAVerify(dpub, digest, bi(sig.MPIs[0]), bi(sig.MPIs[1])) {
			return VerifyInvalid, pgperror.New(pgperror.BadSignature, "openpgp: DSA signature mismatch")
		}
		return VerifyValid, nil

	default:
		return VerifyUndetermined, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: verifying this public-key algorithm is not supported")
	}
}

// CheckRevoked scans sigs for a verified key (0x20) or subkey (0x28)
// revocation signature over the key whose public body is keyBody
// (subkeyBody non-nil for a subkey-binding-shaped revocation), issued by
// signer. Certification revocations (0x30) are skipped and never affect
// the result. It reports
// VerifyValid on the first one that verifies, VerifyUndetermined if every
// candidate's signer is unknown or none verify either way, and never
// VerifyInvalid -- a revocation signature that merely fails to verify
// isn't evidence of anything, per spec 4.6's revocation-check description.
func CheckRevoked(keyBody, subkeyBody []byte, sigs []*packet.Signature, signer *packet.PublicKey) (VerifyResult, error) {
	result := VerifyUndetermined
	for _, sig := range sigs {
		var in PreimageInput
		switch sig.SigType {
		case packet.SigKeyRevocation:
			if subkeyBody != nil {
				continue
			}
			in = PreimageInput{PrimaryKeyBody: keyBody}
		case packet.SigSubkeyRevocation:
			if subkeyBody == nil {
				continue
			}
			in = PreimageInput{PrimaryKeyBody: keyBody, SubkeyBody: subkeyBody}
		case packet.SigCertRevocation:
			continue // certification revocations need a UserID, which this function does not take
		default:
			continue
		}
		res, err := Verify(sig, signer, in)
		if err != nil && res != VerifyInvalid {
			continue
		}
		if res == VerifyValid {
			return VerifyValid, nil
		}
	}
	return result, nil
}

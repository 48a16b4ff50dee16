// Digest preimage construction per signature type (spec 4.6 item 1),
// shared by both the signing and verification paths so the two can never
// drift apart.
//
// Grounded on original_source/sign.cpp's per-type preimage assembly and
// nullprogram.com/x/passphrase2pgp's signkey.go sign()/certify()/bind(),
// generalized from its three hardcoded cases (binary doc, cert, subkey
// binding) to the full set spec 4.6 names, including the 0x20/0x28/0x30
// revocation content-byte rules SPEC_FULL.md's expansion adds.
package openpgp

import (
	"bytes"

	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/pgperror"
)

// PreimageInput supplies the content material a signature type's preimage
// needs; only the fields relevant to SigType must be populated.
type PreimageInput struct {
	SigType byte

	// 0x00/0x01
	Data []byte

	// 0x10-0x13, 0x18, 0x19, 0x20, 0x28, 0x30
	PrimaryKeyBody []byte
	SubkeyBody     []byte // 0x18, 0x19, 0x28
	UserIDBytes    []byte // 0x10-0x13, 0x30 (mutually exclusive with UserAttrBytes)
	UserAttrBytes  []byte
}

// canonicalizeText normalizes text to CRLF line endings for signature
// type 0x01 (spec 4.6 item 1).
func canonicalizeText(data []byte) []byte {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(normalized, []byte("\n"), []byte("\r\n"))
}

func len16(b []byte) []byte { return bignum.PutUint16(uint16(len(b))) }
func len32(b []byte) []byte {
	out := make([]byte, 4)
	n := uint32(len(b))
	out[0], out[1], out[2], out[3] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	return out
}

func certificationContent(primary, uid, userAttr []byte) []byte {
	var out []byte
	out = append(out, 0x99)
	out = append(out, len16(primary)...)
	out = append(out, primary...)
	if userAttr != nil {
		out = append(out, 0xd1)
		out = append(out, len32(userAttr)...)
		out = append(out, userAttr...)
	} else {
		out = append(out, 0xb4)
		out = append(out, len32(uid)...)
		out = append(out, uid...)
	}
	return out
}

func bindingContent(primary, sub []byte) []byte {
	var out []byte
	out = append(out, 0x99)
	out = append(out, len16(primary)...)
	out = append(out, primary...)
	out = append(out, 0x99)
	out = append(out, len16(sub)...)
	out = append(out, sub...)
	return out
}

// contentBytes returns the signature-type-specific content bytes (spec 4.6
// item 1), or an error if in lacks what SigType needs.
func contentBytes(in PreimageInput) ([]byte, error) {
	switch in.SigType {
	case packet.SigBinaryDocument:
		return in.Data, nil
	case packet.SigCanonicalText:
		return canonicalizeText(in.Data), nil

	case packet.SigCertGeneric, packet.SigCertPersona, packet.SigCertCasual, packet.SigCertPositive:
		if in.PrimaryKeyBody == nil || (in.UserIDBytes == nil && in.UserAttrBytes == nil) {
			return nil, pgperror.New(pgperror.ContainerShapeViolation, "digest: certification signature missing key or identity bytes")
		}
		return certificationContent(in.PrimaryKeyBody, in.UserIDBytes, in.UserAttrBytes), nil

	case packet.SigSubkeyBinding, packet.SigPrimaryKeyBinding:
		if in.PrimaryKeyBody == nil || in.SubkeyBody == nil {
			return nil, pgperror.New(pgperror.ContainerShapeViolation, "digest: binding signature missing key bytes")
		}
		return bindingContent(in.PrimaryKeyBody, in.SubkeyBody), nil

	case packet.SigKeyRevocation:
		if in.PrimaryKeyBody == nil {
			return nil, pgperror.New(pgperror.ContainerShapeViolation, "digest: key revocation missing key bytes")
		}
		out := append([]byte{0x99}, len16(in.PrimaryKeyBody)...)
		return append(out, in.PrimaryKeyBody...), nil

	case packet.SigCertRevocation:
		if in.PrimaryKeyBody == nil || (in.UserIDBytes == nil && in.UserAttrBytes == nil) {
			return nil, pgperror.New(pgperror.ContainerShapeViolation, "digest: certification revocation missing key or identity bytes")
		}
		return certificationContent(in.PrimaryKeyBody, in.UserIDBytes, in.UserAttrBytes), nil

	case packet.SigSubkeyRevocation:
		if in.PrimaryKeyBody == nil || in.SubkeyBody == nil {
			return nil, pgperror.New(pgperror.ContainerShapeViolation, "digest: subkey revocation missing key bytes")
		}
		return bindingContent(in.PrimaryKeyBody, in.SubkeyBody), nil

	case packet.SigStandalone, packet.SigTimestamp, packet.SigThirdPartyConfirmation:
		return nil, nil

	default:
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "digest: unsupported signature type")
	}
}

// Preimage builds the full digest preimage for sig: content bytes, then the
// signature trailer (spec 4.6 items 1-2).
func Preimage(sig *packet.Signature, in PreimageInput) ([]byte, error) {
	content, err := contentBytes(in)
	if err != nil {
		return nil, err
	}
	return append(content, sig.Trailer()...), nil
}

// Signature packet (Tag 2) parsing, serialization, and digest-preimage/
// trailer construction (spec 4.6).
//
// Grounded on nullprogram.com/x/passphrase2pgp's signkey.go sign(), which
// builds the v4 trailer (version, type, pka, hash, hashed-subpacket area,
// 0x04 0xFF, big-endian hashed-area length) and appends the unhashed area
// and signature MPIs after signing; generalized here from its fixed
// Ed25519 MPI layout to RSA/DSA per original_source/sign.cpp's
// create_sig_packet.
package packet

import (
	"encoding/binary"

	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/pgperror"
)

// Signature types, RFC 4880 section 5.2.1 (only the ones this module
// constructs or checks are named; others round-trip via SigType).
const (
	SigBinaryDocument         byte = 0x00
	SigCanonicalText          byte = 0x01
	SigStandalone             byte = 0x02
	SigCertGeneric            byte = 0x10
	SigCertPersona            byte = 0x11
	SigCertCasual             byte = 0x12
	SigCertPositive           byte = 0x13
	SigSubkeyBinding          byte = 0x18
	SigPrimaryKeyBinding      byte = 0x19
	SigKeyRevocation          byte = 0x20
	SigSubkeyRevocation       byte = 0x28
	SigCertRevocation         byte = 0x30
	SigTimestamp              byte = 0x40
	SigThirdPartyConfirmation byte = 0x50
)

// Signature is the decoded form of a Tag 2 packet.
type Signature struct {
	Version            byte // 3 or 4
	SigType            byte
	PKA                PKA
	HashAlg            byte
	HashedSubpackets   []Subpacket
	UnhashedSubpackets []Subpacket
	Left16             uint16
	MPIs               [][]byte // RSA: [s]; DSA: [r, s]

	// V3-only fields.
	CreationTime uint32
	KeyID        [8]byte
}

// ParseSignature decodes a Tag 2 packet body.
func ParseSignature(body []byte) (*Signature, error) {
	if len(body) < 1 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: empty signature body")
	}
	version := body[0]
	sig := &Signature{Version: version}

	switch version {
	case 3:
		if len(body) < 19 {
			return nil, pgperror.New(pgperror.MalformedHeader, "packet: truncated v3 signature")
		}
		if body[1] != 5 {
			return nil, pgperror.New(pgperror.MalformedHeader, "packet: v3 signature hashed-material length must be 5")
		}
		sig.SigType = body[2]
		sig.CreationTime = binary.BigEndian.Uint32(body[3:7])
		copy(sig.KeyID[:], body[7:15])
		sig.PKA = PKA(body[15])
		sig.HashAlg = body[16]
		sig.Left16 = binary.BigEndian.Uint16(body[17:19])
		mpis, err := parseSigMPIs(sig.PKA, body[19:])
		if err != nil {
			return nil, err
		}
		sig.MPIs = mpis
		return sig, nil

	case 4:
		if len(body) < 4 {
			return nil, pgperror.New(pgperror.MalformedHeader, "packet: truncated v4 signature header")
		}
		sig.SigType = body[1]
		sig.PKA = PKA(body[2])
		sig.HashAlg = body[3]
		rest := body[4:]

		hashedLen, rest2, err := readSubpacketAreaLen(rest)
		if err != nil {
			return nil, err
		}
		hashedArea := rest2[:hashedLen]
		rest2 = rest2[hashedLen:]
		sig.HashedSubpackets, err = parseSubpackets(hashedArea)
		if err != nil {
			return nil, err
		}

		unhashedLen, rest3, err := readSubpacketAreaLen(rest2)
		if err != nil {
			return nil, err
		}
		unhashedArea := rest3[:unhashedLen]
		rest3 = rest3[unhashedLen:]
		sig.UnhashedSubpackets, err = parseSubpackets(unhashedArea)
		if err != nil {
			return nil, err
		}

		if len(rest3) < 2 {
			return nil, pgperror.New(pgperror.MalformedHeader, "packet: truncated signature digest prefix")
		}
		sig.Left16 = binary.BigEndian.Uint16(rest3[:2])
		rest3 = rest3[2:]

		mpis, err := parseSigMPIs(sig.PKA, rest3)
		if err != nil {
			return nil, err
		}
		sig.MPIs = mpis
		return sig, nil

	default:
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: unsupported signature version")
	}
}

func readSubpacketAreaLen(buf []byte) (int, []byte, error) {
	if len(buf) < 2 {
		return 0, nil, pgperror.New(pgperror.MalformedHeader, "packet: truncated subpacket area length")
	}
	n := int(binary.BigEndian.Uint16(buf))
	if len(buf) < 2+n {
		return 0, nil, pgperror.New(pgperror.MalformedHeader, "packet: subpacket area truncated")
	}
	return n, buf[2:], nil
}

func parseSigMPIs(pka PKA, buf []byte) ([][]byte, error) {
	var n int
	switch {
	case pka.IsRSA():
		n = 1
	case pka == PKADSA || pka == PKAElGamal:
		n = 2
	default:
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "packet: unsupported signature PKA")
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		mpi, rest, err := bignum.DecodeMPI(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, mpi)
		buf = rest
	}
	return out, nil
}

func encodeSigMPIs(mpis [][]byte) []byte {
	var out []byte
	for _, m := range mpis {
		out = append(out, bignum.EncodeMPI(m)...)
	}
	return out
}

// hashedAreaBytes returns just the hashed subpacket area's encoded bytes
// (with its own 2-byte length prefix), used both when serializing the
// packet and when constructing the v4 trailer.
func (s *Signature) hashedAreaBytes() []byte {
	return encodeSubpackets(s.HashedSubpackets)
}

// Trailer returns the signature trailer bytes that are appended to the
// content bytes of the digest preimage, per spec 4.6 item 2.
func (s *Signature) Trailer() []byte {
	if s.Version == 3 {
		out := make([]byte, 5)
		out[0] = s.SigType
		binary.BigEndian.PutUint32(out[1:], s.CreationTime)
		return out
	}
	hashedArea := s.hashedAreaBytes()
	out := []byte{s.Version, s.SigType, byte(s.PKA), s.HashAlg}
	out = append(out, hashedArea...)
	lenIncludingHeader := uint32(len(out))
	out = append(out, 0x04, 0xff)
	out = append(out, byte(lenIncludingHeader>>24), byte(lenIncludingHeader>>16), byte(lenIncludingHeader>>8), byte(lenIncludingHeader))
	return out
}

// Body serializes s back to a Tag 2 packet body.
func (s *Signature) Body() []byte {
	if s.Version == 3 {
		out := make([]byte, 0, 19+32)
		out = append(out, 3, 5, s.SigType)
		out = append(out, byte(s.CreationTime>>24), byte(s.CreationTime>>16), byte(s.CreationTime>>8), byte(s.CreationTime))
		out = append(out, s.KeyID[:]...)
		out = append(out, byte(s.PKA), s.HashAlg)
		out = append(out, byte(s.Left16>>8), byte(s.Left16))
		out = append(out, encodeSigMPIs(s.MPIs)...)
		return out
	}

	out := []byte{4, s.SigType, byte(s.PKA), s.HashAlg}
	out = append(out, s.hashedAreaBytes()...)
	out = append(out, encodeSubpackets(s.UnhashedSubpackets)...)
	out = append(out, byte(s.Left16>>8), byte(s.Left16))
	out = append(out, encodeSigMPIs(s.MPIs)...)
	return out
}

// Packet wraps s as a Tag 2 Packet.
func (s *Signature) Packet() *Packet {
	return &Packet{Tag: TagSignature, Format: NewFormat, Body: s.Body()}
}

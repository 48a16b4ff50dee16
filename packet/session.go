// Session-key packets: Tag 1 (Public-Key Encrypted Session Key) and Tag 3
// (Symmetric-Key Encrypted Session Key).
//
// Grounded on original_source/Packets/Tag1.cpp's field layout (key id, PKA,
// one encrypted MPI for RSA or two for ElGamal) and Tag3's S2K-plus-
// optional-encrypted-key layout, cross-checked against
// a8a4ecf1_perkeep-perkeep__...packet.go's encryptedKey reader.
package packet

import (
	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/pgperror"
	"nullprogram.com/x/openpgp/s2k"
)

// PKESK is the decoded form of a Tag 1 packet.
type PKESK struct {
	Version int // always 3
	KeyID   [8]byte
	PKA     PKA
	EncMPIs [][]byte // RSA: one MPI; ElGamal: two MPIs (g^k mod p, m*y^k mod p)
}

// ParsePKESK decodes a Tag 1 packet body.
func ParsePKESK(body []byte) (*PKESK, error) {
	if len(body) < 10 || body[0] != 3 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: only v3 PKESK packets are supported")
	}
	p := &PKESK{Version: 3, PKA: PKA(body[9])}
	copy(p.KeyID[:], body[1:9])

	buf := body[10:]
	var n int
	switch {
	case p.PKA.IsRSA():
		n = 1
	case p.PKA == PKAElGamal:
		n = 2
	default:
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "packet: unsupported PKESK algorithm")
	}
	for i := 0; i < n; i++ {
		mpi, rest, err := bignum.DecodeMPI(buf)
		if err != nil {
			return nil, err
		}
		p.EncMPIs = append(p.EncMPIs, mpi)
		buf = rest
	}
	return p, nil
}

// Body serializes p back to a Tag 1 packet body.
func (p *PKESK) Body() []byte {
	out := []byte{3}
	out = append(out, p.KeyID[:]...)
	out = append(out, byte(p.PKA))
	for _, m := range p.EncMPIs {
		out = append(out, bignum.EncodeMPI(m)...)
	}
	return out
}

// Packet wraps p as a Tag 1 Packet.
func (p *PKESK) Packet() *Packet {
	return &Packet{Tag: TagPKESK, Format: NewFormat, Body: p.Body()}
}

// SKESK is the decoded form of a Tag 3 packet.
type SKESK struct {
	Version   int // always 4
	SymAlg    byte
	S2K       s2k.Spec
	S2KHashID byte
	EncKey    []byte // absent (nil) when the derived S2K key doubles as the session key
}

// ParseSKESK decodes a Tag 3 packet body.
func ParseSKESK(body []byte) (*SKESK, error) {
	if len(body) < 2 || body[0] != 4 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: only v4 SKESK packets are supported")
	}
	symAlg := body[1]
	spec, hashID, rest, err := parseS2K(body[2:])
	if err != nil {
		return nil, err
	}
	sk := &SKESK{Version: 4, SymAlg: symAlg, S2K: spec, S2KHashID: hashID}
	if len(rest) > 0 {
		sk.EncKey = rest
	}
	return sk, nil
}

// Body serializes sk back to a Tag 3 packet body.
func (sk *SKESK) Body() []byte {
	out := []byte{4, sk.SymAlg, byte(sk.S2K.Mode), sk.S2KHashID}
	switch sk.S2K.Mode {
	case s2k.Salted:
		out = append(out, sk.S2K.Salt...)
	case s2k.IteratedSalted:
		out = append(out, sk.S2K.Salt...)
		out = append(out, sk.S2K.Count)
	}
	out = append(out, sk.EncKey...)
	return out
}

// Packet wraps sk as a Tag 3 Packet.
func (sk *SKESK) Packet() *Packet {
	return &Packet{Tag: TagSKESK, Format: NewFormat, Body: sk.Body()}
}

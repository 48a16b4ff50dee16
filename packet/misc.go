// The remaining packet body types: One-Pass Signature (Tag 4), Compressed
// Data (Tag 8), Symmetrically Encrypted Data (Tag 9), Marker (Tag 10),
// Trust (Tag 12), User ID (Tag 13), User Attribute (Tag 17), SEIPD
// (Tag 18), MDC (Tag 19), and an opaque fallback for unrecognized tags
// (including 60-63).
//
// Grounded on original_source/Packets/Tag18.cpp and Tag19.cpp (SEIPD/MDC
// are opaque byte carriers at the packet layer; their cryptographic
// meaning lives one layer up in cfb.DecryptSEIPD) and Tag63.cpp's "opaque
// stream" packet for the unrecognized-tag fallback spec 4.1 requires
// ("UnknownTag is not fatal").
package packet

import (
	"nullprogram.com/x/openpgp/pgperror"
)

// OnePassSignature is the decoded form of a Tag 4 packet.
type OnePassSignature struct {
	Version byte // always 3
	SigType byte
	HashAlg byte
	PKA     PKA
	KeyID   [8]byte
	Nested  bool // 0 = another one-pass signature follows, 1 = this is the last
}

// ParseOnePassSignature decodes a Tag 4 packet body.
func ParseOnePassSignature(body []byte) (*OnePassSignature, error) {
	if len(body) != 13 || body[0] != 3 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: malformed one-pass signature body")
	}
	o := &OnePassSignature{Version: 3, SigType: body[1], HashAlg: body[2], PKA: PKA(body[3])}
	copy(o.KeyID[:], body[4:12])
	o.Nested = body[12] == 0
	return o, nil
}

// Body serializes o back to a Tag 4 packet body.
func (o *OnePassSignature) Body() []byte {
	last := byte(1)
	if o.Nested {
		last = 0
	}
	out := []byte{3, o.SigType, o.HashAlg, byte(o.PKA)}
	out = append(out, o.KeyID[:]...)
	out = append(out, last)
	return out
}

// Packet wraps o as a Tag 4 Packet.
func (o *OnePassSignature) Packet() *Packet {
	return &Packet{Tag: TagOnePassSignature, Format: NewFormat, Body: o.Body()}
}

// CompressionAlg is a compression algorithm id, RFC 4880 section 9.3.
type CompressionAlg byte

const (
	CompressionNone  CompressionAlg = 0
	CompressionZIP   CompressionAlg = 1
	CompressionZLIB  CompressionAlg = 2
	CompressionBZIP2 CompressionAlg = 3
)

// CompressedData is the decoded form of a Tag 8 packet: an algorithm id
// followed by compressed bytes. Compression/decompression themselves are
// an external collaborator (spec 1); see openpgp.Compressor/Decompressor.
type CompressedData struct {
	Algorithm CompressionAlg
	Data      []byte
}

// ParseCompressedData decodes a Tag 8 packet body.
func ParseCompressedData(body []byte) (*CompressedData, error) {
	if len(body) < 1 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: empty compressed data body")
	}
	return &CompressedData{Algorithm: CompressionAlg(body[0]), Data: body[1:]}, nil
}

// Body serializes c back to a Tag 8 packet body.
func (c *CompressedData) Body() []byte {
	return append([]byte{byte(c.Algorithm)}, c.Data...)
}

// Packet wraps c as a Tag 8 Packet, using partial-body chunking when
// chunkSize is nonzero (CompressedData is one of the four tags allowed to).
func (c *CompressedData) Packet(chunkSize int) (*Packet, WriteOptions) {
	return &Packet{Tag: TagCompressedData, Format: NewFormat, Body: c.Body()}, WriteOptions{PartialChunkSize: chunkSize}
}

// SymEncryptedData is the decoded (but not yet CFB-decrypted) form of a
// Tag 9 packet: the entire body is ciphertext under the legacy
// resynchronizing CFB variant (spec 4.3).
type SymEncryptedData struct {
	Ciphertext []byte
}

// ParseSymEncryptedData decodes a Tag 9 packet body.
func ParseSymEncryptedData(body []byte) *SymEncryptedData {
	return &SymEncryptedData{Ciphertext: body}
}

// Packet wraps s as a Tag 9 Packet.
func (s *SymEncryptedData) Packet() *Packet {
	return &Packet{Tag: TagSymEncrypted, Format: OldFormat, Body: s.Ciphertext}
}

// SEIPD is the decoded (but not yet CFB-decrypted) form of a Tag 18
// packet: a version octet followed by ciphertext under the non-resyncing
// CFB variant with an appended MDC (spec 4.3).
type SEIPD struct {
	Version    byte // always 1
	Ciphertext []byte
}

// ParseSEIPD decodes a Tag 18 packet body.
func ParseSEIPD(body []byte) (*SEIPD, error) {
	if len(body) < 1 || body[0] != 1 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: unsupported SEIPD version")
	}
	return &SEIPD{Version: 1, Ciphertext: body[1:]}, nil
}

// Body serializes s back to a Tag 18 packet body.
func (s *SEIPD) Body() []byte {
	return append([]byte{s.Version}, s.Ciphertext...)
}

// Packet wraps s as a Tag 18 Packet, using partial-body chunking when
// chunkSize is nonzero.
func (s *SEIPD) Packet(chunkSize int) (*Packet, WriteOptions) {
	return &Packet{Tag: TagSEIPD, Format: NewFormat, Body: s.Body()}, WriteOptions{PartialChunkSize: chunkSize}
}

// MDC is the decoded form of a Tag 19 packet: a 20-byte SHA-1 hash. Per
// spec 4.3, under SEIPD the MDC packet's own wire bytes (0xD3 0x14 plus the
// hash) are embedded directly in the CFB plaintext rather than framed as a
// standalone packet read from the stream; ParseMDC exists for the rare
// case a caller has an MDC packet's raw body in isolation (e.g. from a
// generic packet dispatch over already-decrypted bytes).
type MDC struct {
	Hash []byte // 20 bytes
}

// ParseMDC decodes a Tag 19 packet body.
func ParseMDC(body []byte) (*MDC, error) {
	if len(body) != 20 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: MDC body must be exactly 20 bytes")
	}
	return &MDC{Hash: body}, nil
}

// Body serializes m back to a Tag 19 packet body.
func (m *MDC) Body() []byte { return m.Hash }

// Packet wraps m as a Tag 19 Packet. Write ignores Format for tags above
// 15 and always emits a new-format header, so with the 20-byte hash the
// header is the 0xD3 0x14 of spec 4.3.
func (m *MDC) Packet() *Packet {
	return &Packet{Tag: TagMDC, Format: OldFormat, Body: m.Body()}
}

// Marker is the decoded form of a Tag 10 packet: always the three bytes
// "PGP", present for historical reasons and ignored by readers.
type Marker struct{}

// ParseMarker decodes (and validates) a Tag 10 packet body.
func ParseMarker(body []byte) (*Marker, error) {
	if string(body) != "PGP" {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: marker body must be \"PGP\"")
	}
	return &Marker{}, nil
}

// Packet wraps m as a Tag 10 Packet.
func (m *Marker) Packet() *Packet {
	return &Packet{Tag: TagMarker, Format: NewFormat, Body: []byte("PGP")}
}

// Trust is the decoded form of a Tag 12 packet: opaque, implementation-
// defined trust data. This module has no keyring/trust-database
// collaborator (spec 1's out-of-scope list), so Trust packets round-trip
// as raw bytes and are otherwise unexamined.
type Trust struct {
	Data []byte
}

// ParseTrust decodes a Tag 12 packet body.
func ParseTrust(body []byte) *Trust { return &Trust{Data: body} }

// Packet wraps t as a Tag 12 Packet.
func (t *Trust) Packet() *Packet {
	return &Packet{Tag: TagTrust, Format: OldFormat, Body: t.Data}
}

// UserID is the decoded form of a Tag 13 packet: a UTF-8 user id string.
type UserID struct {
	ID string
}

// ParseUserID decodes a Tag 13 packet body.
func ParseUserID(body []byte) *UserID { return &UserID{ID: string(body)} }

// Body serializes u back to a Tag 13 packet body.
func (u *UserID) Body() []byte { return []byte(u.ID) }

// Packet wraps u as a Tag 13 Packet.
func (u *UserID) Packet() *Packet {
	return &Packet{Tag: TagUserID, Format: NewFormat, Body: u.Body()}
}

// UserAttribute is the decoded form of a Tag 17 packet: one or more
// subpacket-framed attribute images (e.g. a JPEG photo). This module
// treats each entry as opaque bytes; it neither decodes nor renders image
// data.
type UserAttribute struct {
	Subpackets []Subpacket
}

// ParseUserAttribute decodes a Tag 17 packet body.
func ParseUserAttribute(body []byte) (*UserAttribute, error) {
	subs, err := parseSubpackets(body)
	if err != nil {
		return nil, err
	}
	return &UserAttribute{Subpackets: subs}, nil
}

// Body serializes u back to a Tag 17 packet body. Unlike a signature's
// subpacket areas, a User Attribute packet's subpacket stream has no
// leading 2-byte area-length prefix, so encodeSubpackets' prefix is
// stripped off here.
func (u *UserAttribute) Body() []byte {
	framed := encodeSubpackets(u.Subpackets)
	return framed[2:]
}

// Packet wraps u as a Tag 17 Packet.
func (u *UserAttribute) Packet() *Packet {
	return &Packet{Tag: TagUserAttribute, Format: NewFormat, Body: u.Body()}
}

// Opaque preserves an unrecognized tag's raw body unexamined, per spec
// 4.1's "UnknownTag is not fatal" rule.
type Opaque struct {
	Tag  Tag
	Body []byte
}

// AsOpaque wraps p's raw body as an Opaque value, regardless of its tag.
func AsOpaque(p *Packet) *Opaque {
	return &Opaque{Tag: p.Tag, Body: p.Body}
}

// Packet wraps o back into a generic Packet, preserving its original tag
// and body unchanged.
func (o *Opaque) Packet() *Packet {
	return &Packet{Tag: o.Tag, Format: NewFormat, Body: o.Body}
}

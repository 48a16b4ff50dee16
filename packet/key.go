// Key packet parsing and serialization (tags 5, 6, 7, 14), including the
// S2K-usage-byte dispatch for secret-key material (RFC 4880 section 5.5.3).
//
// Grounded on nullprogram.com/x/passphrase2pgp's signkey.go packet layout
// (version/creation-time/algorithm header, then algorithm-specific public
// MPIs, then for secret packets the usage byte + S2K + IV + MPI or
// ciphertext blob), generalized from its fixed Ed25519 case to the full
// RSA/DSA/ElGamal registry spec 4.7 names.
package packet

import (
	"encoding/binary"

	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/hashalg"
	"nullprogram.com/x/openpgp/pgperror"
	"nullprogram.com/x/openpgp/s2k"
)

// PKA is a public-key algorithm id, RFC 4880 section 9.1.
type PKA byte

const (
	PKARSAEncryptSign PKA = 1
	PKARSAEncryptOnly PKA = 2
	PKARSASignOnly    PKA = 3
	PKAElGamal        PKA = 16
	PKADSA            PKA = 17
	PKAECDH           PKA = 18
	PKAECDSA          PKA = 19
)

// IsRSA reports whether pka is any of the three RSA variants.
func (p PKA) IsRSA() bool {
	return p == PKARSAEncryptSign || p == PKARSAEncryptOnly || p == PKARSASignOnly
}

// CanSign reports whether pka is usable to produce signatures.
func (p PKA) CanSign() bool {
	return p == PKARSAEncryptSign || p == PKARSASignOnly || p == PKADSA
}

// CanEncrypt reports whether pka is usable to wrap a session key.
func (p PKA) CanEncrypt() bool {
	return p == PKARSAEncryptSign || p == PKARSAEncryptOnly || p == PKAElGamal
}

// PublicKeyFields holds the algorithm-specific public MPIs, keyed by name
// rather than position so callers don't need to remember registry order.
type PublicKeyFields struct {
	// RSA
	N, E []byte
	// DSA
	P, Q, G, Y []byte
	// ElGamal shares P, G, Y with DSA above (no Q).
}

// PublicKey is the decoded form of a v4 Tag 6/14 packet.
type PublicKey struct {
	Version      byte
	CreationTime uint32
	Algorithm    PKA
	Fields       PublicKeyFields
	Sub          bool // true for Tag 14 (subkey), false for Tag 6 (primary)
}

func parsePublicFields(algo PKA, buf []byte) (PublicKeyFields, []byte, error) {
	var f PublicKeyFields
	var err error
	switch {
	case algo.IsRSA():
		if f.N, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.E, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
	case algo == PKADSA:
		if f.P, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.Q, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.G, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.Y, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
	case algo == PKAElGamal:
		if f.P, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.G, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.Y, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
	default:
		return f, nil, pgperror.New(pgperror.UnsupportedAlgorithm, "packet: unsupported public key algorithm")
	}
	return f, buf, nil
}

func (f PublicKeyFields) raw(algo PKA) []byte {
	var out []byte
	switch {
	case algo.IsRSA():
		out = append(out, bignum.EncodeMPI(f.N)...)
		out = append(out, bignum.EncodeMPI(f.E)...)
	case algo == PKADSA:
		out = append(out, bignum.EncodeMPI(f.P)...)
		out = append(out, bignum.EncodeMPI(f.Q)...)
		out = append(out, bignum.EncodeMPI(f.G)...)
		out = append(out, bignum.EncodeMPI(f.Y)...)
	case algo == PKAElGamal:
		out = append(out, bignum.EncodeMPI(f.P)...)
		out = append(out, bignum.EncodeMPI(f.G)...)
		out = append(out, bignum.EncodeMPI(f.Y)...)
	}
	return out
}

// ParsePublicKey decodes a Tag 6 or Tag 14 packet body.
func ParsePublicKey(body []byte, sub bool) (*PublicKey, error) {
	if len(body) < 6 || body[0] != 4 {
		return nil, pgperror.New(pgperror.MalformedKey, "packet: only v4 public key packets are supported")
	}
	creation := binary.BigEndian.Uint32(body[1:5])
	algo := PKA(body[5])
	fields, _, err := parsePublicFields(algo, body[6:])
	if err != nil {
		return nil, err
	}
	return &PublicKey{Version: 4, CreationTime: creation, Algorithm: algo, Fields: fields, Sub: sub}, nil
}

// Body is the raw "public key body" used both as the packet payload and as
// the hash preimage for fingerprint/certification (spec 3, "Key ID and
// fingerprint"): version, creation time, algorithm, public MPIs.
func (k *PublicKey) Body() []byte {
	out := make([]byte, 0, 6+64)
	out = append(out, k.Version)
	out = append(out, byte(k.CreationTime>>24), byte(k.CreationTime>>16), byte(k.CreationTime>>8), byte(k.CreationTime))
	out = append(out, byte(k.Algorithm))
	out = append(out, k.Fields.raw(k.Algorithm)...)
	return out
}

// Packet wraps k as a Tag 6 (primary) or Tag 14 (subkey) Packet.
func (k *PublicKey) Packet() *Packet {
	tag := TagPublicKey
	if k.Sub {
		tag = TagPublicSubkey
	}
	return &Packet{Tag: tag, Format: NewFormat, Body: k.Body()}
}

// Fingerprint computes the v4 fingerprint: SHA1(0x99 ‖ len16(body) ‖ body).
func (k *PublicKey) Fingerprint() []byte {
	body := k.Body()
	h := sha1New()
	h.Write([]byte{0x99})
	h.Write(bignum.PutUint16(uint16(len(body))))
	h.Write(body)
	return h.Sum(nil)
}

// KeyID returns the low 8 bytes of the v4 fingerprint.
func (k *PublicKey) KeyID() [8]byte {
	fp := k.Fingerprint()
	var id [8]byte
	copy(id[:], fp[len(fp)-8:])
	return id
}

// SecretKeyFields holds the algorithm-specific secret MPIs.
type SecretKeyFields struct {
	// RSA
	D, P, Q, U []byte
	// DSA / ElGamal
	X []byte
}

func (f SecretKeyFields) raw(algo PKA) []byte {
	var out []byte
	switch {
	case algo.IsRSA():
		out = append(out, bignum.EncodeMPI(f.D)...)
		out = append(out, bignum.EncodeMPI(f.P)...)
		out = append(out, bignum.EncodeMPI(f.Q)...)
		out = append(out, bignum.EncodeMPI(f.U)...)
	case algo == PKADSA || algo == PKAElGamal:
		out = append(out, bignum.EncodeMPI(f.X)...)
	}
	return out
}

func parseSecretFields(algo PKA, buf []byte) (SecretKeyFields, []byte, error) {
	var f SecretKeyFields
	var err error
	switch {
	case algo.IsRSA():
		if f.D, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.P, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.Q, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
		if f.U, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
	case algo == PKADSA || algo == PKAElGamal:
		if f.X, buf, err = bignum.DecodeMPI(buf); err != nil {
			return f, nil, err
		}
	default:
		return f, nil, pgperror.New(pgperror.UnsupportedAlgorithm, "packet: unsupported secret key algorithm")
	}
	return f, buf, nil
}

// S2KUsage is the secret-key protection usage octet, spec 4.7.
type S2KUsage byte

const (
	S2KUsageClear          S2KUsage = 0
	S2KUsageEncryptedSHA1  S2KUsage = 254
	S2KUsageEncryptedCksum S2KUsage = 255
)

// SecretKey is the decoded form of a v4 Tag 5/7 packet. Exactly one of
// Cleartext / Ciphertext is populated at any time (spec 3's invariant);
// Unlock moves Ciphertext's contents into Cleartext and clears Ciphertext.
type SecretKey struct {
	Public *PublicKey

	Usage      S2KUsage
	SymAlg     byte // only meaningful when Usage != S2KUsageClear
	S2K        s2k.Spec
	S2KHashID  byte // hash algorithm id backing S2K.Hash, kept for serialization
	IV         []byte
	Ciphertext []byte // encrypted secret-MPI blob + checksum/hash, or nil once unlocked
	Cleartext  *SecretKeyFields
}

// ParseSecretKey decodes a Tag 5 or Tag 7 packet body: a nested public key
// body followed by the secret-specific fields.
func ParseSecretKey(body []byte, sub bool) (*SecretKey, error) {
	pub, err := ParsePublicKey(body, sub)
	if err != nil {
		return nil, err
	}
	pubLen := len(pub.Body())
	rest := body[pubLen:]
	if len(rest) < 1 {
		return nil, pgperror.New(pgperror.MalformedKey, "packet: secret key body missing usage octet")
	}
	usage := S2KUsage(rest[0])
	rest = rest[1:]

	sk := &SecretKey{Public: pub, Usage: usage}

	switch usage {
	case S2KUsageClear:
		fields, remainder, err := parseSecretFields(pub.Algorithm, rest)
		if err != nil {
			return nil, err
		}
		if len(remainder) < 2 {
			return nil, pgperror.New(pgperror.MalformedKey, "packet: secret key missing checksum")
		}
		sum := binary.BigEndian.Uint16(remainder)
		if sum != bignum.Checksum16(fields.raw(pub.Algorithm)) {
			return nil, pgperror.New(pgperror.ChecksumMismatch, "packet: secret key cleartext checksum mismatch")
		}
		sk.Cleartext = &fields
		return sk, nil

	case S2KUsageEncryptedSHA1, S2KUsageEncryptedCksum:
		if len(rest) < 1 {
			return nil, pgperror.New(pgperror.MalformedKey, "packet: secret key missing symmetric algorithm id")
		}
		sk.SymAlg = rest[0]
		rest = rest[1:]
		spec, hashID, remainder, err := parseS2K(rest)
		if err != nil {
			return nil, err
		}
		sk.S2K = spec
		sk.S2KHashID = hashID
		rest = remainder
		ivLen := ivLenFor(sk.SymAlg)
		if len(rest) < ivLen {
			return nil, pgperror.New(pgperror.MalformedKey, "packet: secret key IV truncated")
		}
		sk.IV = rest[:ivLen]
		sk.Ciphertext = rest[ivLen:]
		return sk, nil

	default:
		// Legacy pre-RFC-2440 format: the usage octet itself is the
		// symmetric algorithm id, Simple S2K with MD5 is implied, and no
		// S2K specifier bytes are present.
		sk.SymAlg = byte(usage)
		sk.Usage = S2KUsageEncryptedCksum
		sk.S2K = s2k.Spec{Mode: s2k.Simple, Hash: md5New}
		sk.S2KHashID = hashalg.MD5
		ivLen := ivLenFor(sk.SymAlg)
		if len(rest) < ivLen {
			return nil, pgperror.New(pgperror.MalformedKey, "packet: secret key IV truncated")
		}
		sk.IV = rest[:ivLen]
		sk.Ciphertext = rest[ivLen:]
		return sk, nil
	}
}

// parseS2K reads one S2K specifier (RFC 4880 section 3.7.1) from the front
// of buf, returning the decoded spec, the hash algorithm id it names (kept
// separately since s2k.Spec stores a constructor, not an id), and the
// remainder of buf.
func parseS2K(buf []byte) (s2k.Spec, byte, []byte, error) {
	if len(buf) < 2 {
		return s2k.Spec{}, 0, nil, pgperror.New(pgperror.MalformedKey, "packet: truncated S2K specifier")
	}
	mode := s2k.Mode(buf[0])
	hashID := buf[1]
	buf = buf[2:]
	h, err := hashConstructor(hashID)
	if err != nil {
		return s2k.Spec{}, 0, nil, err
	}

	switch mode {
	case s2k.Simple:
		return s2k.Spec{Mode: mode, Hash: h}, hashID, buf, nil
	case s2k.Salted:
		if len(buf) < 8 {
			return s2k.Spec{}, 0, nil, pgperror.New(pgperror.MalformedKey, "packet: truncated salted S2K")
		}
		return s2k.Spec{Mode: mode, Hash: h, Salt: buf[:8]}, hashID, buf[8:], nil
	case s2k.IteratedSalted:
		if len(buf) < 9 {
			return s2k.Spec{}, 0, nil, pgperror.New(pgperror.MalformedKey, "packet: truncated iterated+salted S2K")
		}
		return s2k.Spec{Mode: mode, Hash: h, Salt: buf[:8], Count: buf[8]}, hashID, buf[9:], nil
	default:
		return s2k.Spec{}, 0, nil, pgperror.New(pgperror.UnsupportedAlgorithm, "packet: unknown S2K mode")
	}
}

func (sk *SecretKey) s2kBytes() []byte {
	out := []byte{byte(sk.S2K.Mode), sk.S2KHashID}
	switch sk.S2K.Mode {
	case s2k.Salted:
		out = append(out, sk.S2K.Salt...)
	case s2k.IteratedSalted:
		out = append(out, sk.S2K.Salt...)
		out = append(out, sk.S2K.Count)
	}
	return out
}

// Body serializes sk back to a Tag 5/7 packet body.
func (sk *SecretKey) Body() []byte {
	out := append([]byte{}, sk.Public.Body()...)
	out = append(out, byte(sk.Usage))
	switch sk.Usage {
	case S2KUsageClear:
		raw := sk.Cleartext.raw(sk.Public.Algorithm)
		sum := bignum.Checksum16(raw)
		out = append(out, raw...)
		out = append(out, byte(sum>>8), byte(sum))
	default:
		out = append(out, sk.SymAlg)
		out = append(out, sk.s2kBytes()...)
		out = append(out, sk.IV...)
		out = append(out, sk.Ciphertext...)
	}
	return out
}

// Packet wraps sk as a Tag 5 (primary) or Tag 7 (subkey) Packet.
func (sk *SecretKey) Packet() *Packet {
	tag := TagSecretKey
	if sk.Public.Sub {
		tag = TagSecretSubkey
	}
	return &Packet{Tag: tag, Format: NewFormat, Body: sk.Body()}
}

func ivLenFor(symAlg byte) int {
	if symAlg == 1 || symAlg == 2 || symAlg == 3 || symAlg == 4 {
		return 8
	}
	return 16
}

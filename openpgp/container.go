// Container objects: ordered packet sequences with a declared shape and a
// Meaningful() validity predicate (spec 3, "Container objects").
//
// Grounded on spec 9's design note that replaces the source's
// shared-ownership class hierarchy with containers owning packets by value
// in an ordered sequence; cross-referenced against signkey.go's SignKey,
// which already bundles a primary key with its self-signatures and subkeys
// as plain struct fields rather than a polymorphic packet graph.
package openpgp

import (
	"nullprogram.com/x/openpgp/packet"
)

// ErrorLog accumulates warning strings as a pipeline call proceeds (spec
// 7's propagation policy: recoverable events like UnknownTag and
// QuickCheckFailed are surfaced as warnings, not aborts).
type ErrorLog []string

func (l *ErrorLog) warn(msg string) { *l = append(*l, msg) }

// Message is the decoded form of an OpenPGP message container: one of
// Tag1/Tag3 session-key packets followed by encrypted data, a compressed
// wrapper, a one-pass-signed literal, or a bare literal (spec 3).
type Message struct {
	Packets []*packet.Packet
}

// Meaningful reports whether m is non-nil and holds at least one packet.
// The shape of the packet sequence is not checked.
func (m *Message) Meaningful() bool {
	return m != nil && len(m.Packets) > 0
}

// UserIDBinding bundles one User ID with the certification signatures
// that follow it in a PublicKey/SecretKey container (spec 3).
type UserIDBinding struct {
	UserID     *packet.UserID
	Signatures []*packet.Signature
}

type SubkeyBinding struct {
	Public     *packet.PublicKey
	Secret     *packet.SecretKey // nil for a PublicKey container
	BindingSig *packet.Signature
}

// PublicKey is the decoded form of a PublicKey container: Tag6 plus any
// revocation signatures, bound user ids/attributes with their
// certifications, and bound subkeys with their binding signatures.
type PublicKey struct {
	Primary        *packet.PublicKey
	RevocationSigs []*packet.Signature
	Identities     []UserIDBinding
	Subkeys        []SubkeyBinding
}

// Meaningful reports whether k has a primary key packet at all.
func (k *PublicKey) Meaningful() bool {
	return k != nil && k.Primary != nil
}

// SecretKey is the decoded form of a SecretKey container: the same shape
// as PublicKey with Tag5/Tag7 secret key packets carrying the public
// fields alongside protected secret material.
type SecretKey struct {
	Primary        *packet.SecretKey
	RevocationSigs []*packet.Signature
	Identities     []UserIDBinding
	Subkeys        []SubkeyBinding
}

// Meaningful reports whether k has a primary secret key packet at all.
func (k *SecretKey) Meaningful() bool {
	return k != nil && k.Primary != nil
}

// DetachedSignature is the decoded form of a DetachedSignature container:
// exactly one Tag2 signature, carried apart from the data it signs.
type DetachedSignature struct {
	Signature *packet.Signature
}

// Meaningful reports whether s carries a signature packet.
func (s *DetachedSignature) Meaningful() bool {
	return s != nil && s.Signature != nil
}

// CleartextSignature is the decoded form of a CleartextSignature
// container: a canonical text body plus an embedded detached signature
// (RFC 4880 section 7's "Cleartext Signature Framework").
type CleartextSignature struct {
	Text      []byte
	Signature *packet.Signature
}

// Meaningful reports whether c carries both a text body and a signature.
func (c *CleartextSignature) Meaningful() bool {
	return c != nil && len(c.Text) > 0 && c.Signature != nil
}

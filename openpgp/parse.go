// Container parsing: reads a raw packet stream back into the container
// shapes spec 3 declares (Message, PublicKey, SecretKey, DetachedSignature).
//
// Grounded on signkey.go's Load, which already reads a fixed
// key-then-userid packet pair off a stream; generalized here to the full
// variable-length PublicKey/SecretKey grammar (optional revocation sigs,
// repeated identity+certifications groups, repeated subkey+binding-sig
// groups) spec 3 names, and to a flat pass-through read for Message
// (Decrypt already dispatches per-packet itself).
package openpgp

import (
	"io"

	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/pgperror"
)

func readAllPackets(r io.Reader) ([]*packet.Packet, error) {
	var pkts []*packet.Packet
	for {
		p, err := packet.ReadPacket(r)
		if err == io.EOF {
			return pkts, nil
		}
		if err != nil {
			return nil, err
		}
		pkts = append(pkts, p)
	}
}

// ParseMessage reads every packet in r into a Message container. Decrypt
// dispatches on each packet's tag itself, so no further shape validation
// happens here.
func ParseMessage(r io.Reader) (*Message, error) {
	pkts, err := readAllPackets(r)
	if err != nil {
		return nil, err
	}
	return &Message{Packets: pkts}, nil
}

// ParseDetachedSignature reads a DetachedSignature container: exactly one
// Tag 2 packet.
func ParseDetachedSignature(r io.Reader) (*DetachedSignature, error) {
	pkts, err := readAllPackets(r)
	if err != nil {
		return nil, err
	}
	if len(pkts) != 1 || pkts[0].Tag != packet.TagSignature {
		return nil, pgperror.New(pgperror.ContainerShapeViolation, "openpgp: detached signature must be exactly one signature packet")
	}
	sig, err := packet.ParseSignature(pkts[0].Body)
	if err != nil {
		return nil, err
	}
	return &DetachedSignature{Signature: sig}, nil
}

// collectCertSigs reads 0 or more trailing Tag 2 packets as a UserID's
// certification signatures, stopping at the first packet of a different
// tag (or EOF).
func collectCertSigs(pkts []*packet.Packet, i int) ([]*packet.Signature, int, error) {
	var sigs []*packet.Signature
	for i < len(pkts) && pkts[i].Tag == packet.TagSignature {
		sig, err := packet.ParseSignature(pkts[i].Body)
		if err != nil {
			return nil, i, err
		}
		sigs = append(sigs, sig)
		i++
	}
	return sigs, i, nil
}

// ParsePublicKeyContainer reads a PublicKey container (spec 3):
// Tag6 · (revocation sigs)? · (Tag13 · certsigs)+ · (Tag14 · bindingSig)*.
// User Attribute (Tag 17) identity blocks are accepted and skipped (this
// module neither stores nor renders attribute images, per misc.go's
// UserAttribute doc comment). The parser does not enforce the "+": a
// container with no identity block parses, and packets after the last
// subkey binding are ignored.
func ParsePublicKeyContainer(r io.Reader) (*PublicKey, error) {
	pkts, err := readAllPackets(r)
	if err != nil {
		return nil, err
	}
	if len(pkts) == 0 || pkts[0].Tag != packet.TagPublicKey {
		return nil, pgperror.New(pgperror.ContainerShapeViolation, "openpgp: public key container must start with a public key packet")
	}
	primary, err := packet.ParsePublicKey(pkts[0].Body, false)
	if err != nil {
		return nil, err
	}

	out := &PublicKey{Primary: primary}
	i := 1

	for i < len(pkts) && pkts[i].Tag == packet.TagSignature {
		sig, err := packet.ParseSignature(pkts[i].Body)
		if err != nil {
			return nil, err
		}
		if sig.SigType != packet.SigKeyRevocation {
			break
		}
		out.RevocationSigs = append(out.RevocationSigs, sig)
		i++
	}

	for i < len(pkts) && (pkts[i].Tag == packet.TagUserID || pkts[i].Tag == packet.TagUserAttribute) {
		if pkts[i].Tag == packet.TagUserAttribute {
			i++
			_, i, err = collectCertSigs(pkts, i)
			if err != nil {
				return nil, err
			}
			continue
		}
		uid := packet.ParseUserID(pkts[i].Body)
		i++
		sigs, next, err := collectCertSigs(pkts, i)
		if err != nil {
			return nil, err
		}
		i = next
		out.Identities = append(out.Identities, UserIDBinding{UserID: uid, Signatures: sigs})
	}

	for i < len(pkts) && pkts[i].Tag == packet.TagPublicSubkey {
		sub, err := packet.ParsePublicKey(pkts[i].Body, true)
		if err != nil {
			return nil, err
		}
		i++
		var bindingSig *packet.Signature
		if i < len(pkts) && pkts[i].Tag == packet.TagSignature {
			bindingSig, err = packet.ParseSignature(pkts[i].Body)
			if err != nil {
				return nil, err
			}
			i++
		}
		out.Subkeys = append(out.Subkeys, SubkeyBinding{Public: sub, BindingSig: bindingSig})
	}

	return out, nil
}

// ParseSecretKeyContainer reads a SecretKey container: the same shape as
// ParsePublicKeyContainer with Tag5/Tag7 in place of Tag6/Tag14.
func ParseSecretKeyContainer(r io.Reader) (*SecretKey, error) {
	pkts, err := readAllPackets(r)
	if err != nil {
		return nil, err
	}
	if len(pkts) == 0 || pkts[0].Tag != packet.TagSecretKey {
		return nil, pgperror.New(pgperror.ContainerShapeViolation, "openpgp: secret key container must start with a secret key packet")
	}
	primary, err := packet.ParseSecretKey(pkts[0].Body, false)
	if err != nil {
		return nil, err
	}

	out := &SecretKey{Primary: primary}
	i := 1

	for i < len(pkts) && pkts[i].Tag == packet.TagSignature {
		sig, err := packet.ParseSignature(pkts[i].Body)
		if err != nil {
			return nil, err
		}
		if sig.SigType != packet.SigKeyRevocation {
			break
		}
		out.RevocationSigs = append(out.RevocationSigs, sig)
		i++
	}

	for i < len(pkts) && (pkts[i].Tag == packet.TagUserID || pkts[i].Tag == packet.TagUserAttribute) {
		if pkts[i].Tag == packet.TagUserAttribute {
			i++
			_, i, err = collectCertSigs(pkts, i)
			if err != nil {
				return nil, err
			}
			continue
		}
		uid := packet.ParseUserID(pkts[i].Body)
		i++
		sigs, next, err := collectCertSigs(pkts, i)
		if err != nil {
			return nil, err
		}
		i = next
		out.Identities = append(out.Identities, UserIDBinding{UserID: uid, Signatures: sigs})
	}

	for i < len(pkts) && pkts[i].Tag == packet.TagSecretSubkey {
		sub, err := packet.ParseSecretKey(pkts[i].Body, true)
		if err != nil {
			return nil, err
		}
		i++
		var bindingSig *packet.Signature
		if i < len(pkts) && pkts[i].Tag == packet.TagSignature {
			bindingSig, err = packet.ParseSignature(pkts[i].Body)
			if err != nil {
				return nil, err
			}
			i++
		}
		out.Subkeys = append(out.Subkeys, SubkeyBinding{Public: sub.Public, Secret: sub, BindingSig: bindingSig})
	}

	return out, nil
}

// writeAll serializes a container's already-ordered packet sequence to w.
func writeAll(w io.Writer, pkts []*packet.Packet) error {
	for _, p := range pkts {
		if err := packet.Write(w, p, packet.WriteOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// Packets assembles k's container into ordered wire packets (spec 3's
// PublicKey shape).
func (k *PublicKey) Packets() []*packet.Packet {
	var out []*packet.Packet
	out = append(out, k.Primary.Packet())
	for _, sig := range k.RevocationSigs {
		out = append(out, sig.Packet())
	}
	for _, id := range k.Identities {
		out = append(out, id.UserID.Packet())
		for _, sig := range id.Signatures {
			out = append(out, sig.Packet())
		}
	}
	for _, sub := range k.Subkeys {
		out = append(out, sub.Public.Packet())
		if sub.BindingSig != nil {
			out = append(out, sub.BindingSig.Packet())
		}
	}
	return out
}

// Write serializes k's full container to w.
func (k *PublicKey) Write(w io.Writer) error { return writeAll(w, k.Packets()) }

// Packets assembles k's container into ordered wire packets (spec 3's
// SecretKey shape).
func (k *SecretKey) Packets() []*packet.Packet {
	var out []*packet.Packet
	out = append(out, k.Primary.Packet())
	for _, sig := range k.RevocationSigs {
		out = append(out, sig.Packet())
	}
	for _, id := range k.Identities {
		out = append(out, id.UserID.Packet())
		for _, sig := range id.Signatures {
			out = append(out, sig.Packet())
		}
	}
	for _, sub := range k.Subkeys {
		out = append(out, sub.Secret.Packet())
		if sub.BindingSig != nil {
			out = append(out, sub.BindingSig.Packet())
		}
	}
	return out
}

// Write serializes k's full container to w.
func (k *SecretKey) Write(w io.Writer) error { return writeAll(w, k.Packets()) }

// Public derives the public-only container a holder of k would publish:
// the same identities and binding signatures, with every secret key packet
// replaced by its public half.
func (k *SecretKey) Public() *PublicKey {
	out := &PublicKey{Primary: k.Primary.Public, RevocationSigs: k.RevocationSigs, Identities: k.Identities}
	for _, sub := range k.Subkeys {
		out.Subkeys = append(out.Subkeys, SubkeyBinding{Public: sub.Public, BindingSig: sub.BindingSig})
	}
	return out
}

// Message encrypt/decrypt pipeline (spec 4.5): wraps a session key for one
// or more recipients (public-key or passphrase-derived), runs the data
// layer through the session-key cipher, and peels compression plus an
// optional inline signature back off on decrypt.
//
// Grounded on original_source/encrypt.cpp's pipeline shape (build the
// plaintext packet sequence, generate or derive a session key, wrap it per
// recipient, encrypt the data packet) and nullprogram.com/x/passphrase2pgp's
// signkey.go EncPacket for the "derive key, build cipher.Block, hand off to
// the CFB layer" plumbing, generalized from its secret-key-only use of CFB
// to the data-layer resync/SEIPD variants in cfb.go.
package openpgp

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/cfb"
	"nullprogram.com/x/openpgp/hashalg"
	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/pgperror"
	"nullprogram.com/x/openpgp/pkcs1"
	"nullprogram.com/x/openpgp/s2k"
	"nullprogram.com/x/openpgp/symalg"
)

// EncryptOptions configures EncryptPK and EncryptSymmetric.
type EncryptOptions struct {
	SymAlg       byte                  // 0 defaults to AES-256
	Compression  packet.CompressionAlg // CompressionNone by default
	ChunkSize    int                   // 0 disables partial-body chunking
	Filename     string
	CreationTime uint32
	Format       packet.LiteralFormat // 0 defaults to FormatBinary
	Signer       *SigningKey          // non-nil wraps the literal in an inline OnePassSig/Sig pair
}

// writePacket serializes p with default write options. Only opaque or
// already-validated packet shapes reach this helper, so the write error
// (which can only come from an invalid partial-chunking request) never
// actually occurs here; it's still surfaced rather than discarded.
func writePacket(p *packet.Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := packet.Write(&buf, p, packet.WriteOptions{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildPlaintext assembles the data-layer plaintext spec 4.5 step 1-2
// describes: a bare literal, optionally wrapped in an inline
// OnePassSig.Literal.Sig sequence when opt.Signer is set, optionally
// compressed either way.
func buildPlaintext(data []byte, opt EncryptOptions) ([]byte, error) {
	format := opt.Format
	if format == 0 {
		format = packet.FormatBinary
	}

	var inner []byte
	if opt.Signer == nil {
		lit := &packet.LiteralData{Format: format, Filename: opt.Filename, CreationTime: opt.CreationTime, Data: data}
		litBytes, err := writePacket(lit.Packet())
		if err != nil {
			return nil, err
		}
		inner = litBytes
	} else {
		sig, err := SignBinary(opt.Signer, data, opt.CreationTime)
		if err != nil {
			return nil, err
		}
		ops := &packet.OnePassSignature{
			Version: 3,
			SigType: packet.SigBinaryDocument,
			HashAlg: opt.Signer.HashAlg,
			PKA:     opt.Signer.Secret.Public.Algorithm,
			KeyID:   opt.Signer.Secret.Public.KeyID(),
			Nested:  false,
		}
		lit := &packet.LiteralData{Format: format, Filename: opt.Filename, CreationTime: opt.CreationTime, Data: data}
		opsBytes, err := writePacket(ops.Packet())
		if err != nil {
			return nil, err
		}
		litPktBytes, err := writePacket(lit.Packet())
		if err != nil {
			return nil, err
		}
		sigBytes, err := writePacket(sig.Packet())
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		buf.Write(opsBytes)
		buf.Write(litPktBytes)
		buf.Write(sigBytes)
		inner = buf.Bytes()
	}

	if opt.Compression == packet.CompressionNone {
		return inner, nil
	}
	compressed, err := compressData(opt.Compression, inner)
	if err != nil {
		return nil, err
	}
	cd := &packet.CompressedData{Algorithm: opt.Compression, Data: compressed}
	p, wopt := cd.Packet(opt.ChunkSize)
	var buf bytes.Buffer
	if err := packet.Write(&buf, p, wopt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sessionKeyBlock builds the sym_id‖K‖checksum block that gets EME-encoded
// and PK-encrypted for each PKESK recipient (spec 4.5 steps 4-5).
func sessionKeyBlock(symAlg byte, key []byte) []byte {
	sum := bignum.Checksum16(key)
	out := make([]byte, 0, 1+len(key)+2)
	out = append(out, symAlg)
	out = append(out, key...)
	out = append(out, byte(sum>>8), byte(sum))
	return out
}

// unwrapSessionKeyBlock is the inverse of sessionKeyBlock, reporting
// ChecksumMismatch if the trailing checksum doesn't match.
func unwrapSessionKeyBlock(block []byte) (symAlg byte, key []byte, err error) {
	if len(block) < 3 {
		return 0, nil, pgperror.New(pgperror.ChecksumMismatch, "openpgp: session key block too short")
	}
	symAlg = block[0]
	key = block[1 : len(block)-2]
	want := uint16(block[len(block)-2])<<8 | uint16(block[len(block)-1])
	if bignum.Checksum16(key) != want {
		return 0, nil, pgperror.New(pgperror.ChecksumMismatch, "openpgp: session key checksum mismatch")
	}
	return symAlg, key, nil
}

func wrapSessionKeyRSA(pub *packet.PublicKey, symAlg byte, key []byte) (*packet.PKESK, error) {
	n, e, err := rsaPublicKey(pub)
	if err != nil {
		return nil, err
	}
	k := RSAModulusLen(n)
	em, err := pkcs1.EMEEncode(sessionKeyBlock(symAlg, key), k)
	if err != nil {
		return nil, err
	}
	c := rsaApply(RSAKey{N: n, Exponent: e}, em)
	return &packet.PKESK{Version: 3, KeyID: pub.KeyID(), PKA: pub.Algorithm, EncMPIs: [][]byte{c}}, nil
}

func wrapSessionKeyElGamal(pub *packet.PublicKey, symAlg byte, key []byte) (*packet.PKESK, error) {
	epub, err := elgamalPublicKey(pub)
	if err != nil {
		return nil, err
	}
	k := RSAModulusLen(bi(pub.Fields.P))
	em, err := pkcs1.EMEEncode(sessionKeyBlock(symAlg, key), k)
	if err != nil {
		return nil, err
	}
	c1, c2, err := ElGamalEncrypt(rand.Reader, epub, em)
	if err != nil {
		return nil, err
	}
	return &packet.PKESK{Version: 3, KeyID: pub.KeyID(), PKA: packet.PKAElGamal, EncMPIs: [][]byte{c1.Bytes(), c2.Bytes()}}, nil
}

// unwrapPKESK recovers the symmetric algorithm id and session key a PKESK
// carries under sk, which must already be unlocked.
func unwrapPKESK(sk *packet.SecretKey, pkesk *packet.PKESK) (symAlg byte, key []byte, err error) {
	if sk.Cleartext == nil {
		return 0, nil, pgperror.New(pgperror.MalformedKey, "openpgp: secret key is still locked")
	}
	var em []byte
	switch {
	case sk.Public.Algorithm.IsRSA():
		n, d, err := rsaPrivateKey(sk)
		if err != nil {
			return 0, nil, err
		}
		k := RSAModulusLen(n)
		c := pkesk.EncMPIs[0]
		if len(c) > k {
			return 0, nil, pgperror.New(pgperror.BadPadding, "openpgp: PKESK ciphertext longer than modulus")
		}
		padded := make([]byte, k)
		copy(padded[k-len(c):], c)
		em = rsaApply(RSAKey{N: n, Exponent: d}, padded)

	case sk.Public.Algorithm == packet.PKAElGamal:
		priv, err := elgamalPrivateKey(sk)
		if err != nil {
			return 0, nil, err
		}
		if len(pkesk.EncMPIs) != 2 {
			return 0, nil, pgperror.New(pgperror.MalformedKey, "openpgp: malformed ElGamal PKESK")
		}
		raw, err := ElGamalDecrypt(priv, bi(pkesk.EncMPIs[0]), bi(pkesk.EncMPIs[1]))
		if err != nil {
			return 0, nil, err
		}
		// golang.org/x/crypto/openpgp/elgamal.Decrypt returns the decrypted
		// block as a minimal big.Int encoding, which silently drops any
		// leading 0x00 byte EME padding relies on; re-pad to the modulus
		// byte length before EME-decoding it.
		k := RSAModulusLen(bi(sk.Public.Fields.P))
		if len(raw) > k {
			return 0, nil, pgperror.New(pgperror.BadPadding, "openpgp: ElGamal-decrypted block longer than modulus")
		}
		em = make([]byte, k)
		copy(em[k-len(raw):], raw)

	default:
		return 0, nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: unsupported PKESK algorithm")
	}

	m, err := pkcs1.EMEDecode(em)
	if err != nil {
		return 0, nil, err
	}
	return unwrapSessionKeyBlock(m)
}

// encryptDataPacket runs plaintext through the session-key cipher and
// frames the ciphertext as a Tag 18 (SEIPD) packet; this pipeline always
// produces SEIPD on encrypt (Tag 9 decode support remains for reading
// older messages).
func encryptDataPacket(symAlg byte, key, plaintext []byte, chunkSize int) (*packet.Packet, error) {
	block, err := symalg.NewBlock(symAlg, key)
	if err != nil {
		return nil, err
	}
	ciphertext, err := cfb.EncryptSEIPD(block, plaintext)
	if err != nil {
		return nil, err
	}
	seipd := &packet.SEIPD{Version: 1, Ciphertext: ciphertext}
	p, _ := seipd.Packet(chunkSize)
	return p, nil
}

// EncryptPK implements the public-key session-key pipeline (spec 4.5):
// a fresh session key is generated once, wrapped for every recipient, and
// the data packet is encrypted once under that shared key.
func EncryptPK(recipients []*packet.PublicKey, data []byte, opt EncryptOptions) (*Message, error) {
	if len(recipients) == 0 {
		return nil, pgperror.New(pgperror.NoEncryptingKey, "openpgp: no recipients supplied")
	}
	symAlg := opt.SymAlg
	if symAlg == 0 {
		symAlg = symalg.AES256
	}
	a, err := symalg.Lookup(symAlg)
	if err != nil {
		return nil, err
	}
	key := make([]byte, a.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}

	plaintext, err := buildPlaintext(data, opt)
	if err != nil {
		return nil, err
	}

	msg := &Message{}
	for _, rcpt := range recipients {
		if !rcpt.Algorithm.CanEncrypt() {
			return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: recipient key cannot encrypt")
		}
		var pkesk *packet.PKESK
		if rcpt.Algorithm.IsRSA() {
			pkesk, err = wrapSessionKeyRSA(rcpt, symAlg, key)
		} else {
			pkesk, err = wrapSessionKeyElGamal(rcpt, symAlg, key)
		}
		if err != nil {
			return nil, err
		}
		msg.Packets = append(msg.Packets, pkesk.Packet())
	}

	dataPkt, err := encryptDataPacket(symAlg, key, plaintext, opt.ChunkSize)
	if err != nil {
		return nil, err
	}
	msg.Packets = append(msg.Packets, dataPkt)
	return msg, nil
}

// EncryptSymmetric implements the passphrase-only session-key pipeline
// (spec 4.5): an Iterated+Salted S2K-derived key doubles as the session
// key, so no separate Tag 3 ciphertext is needed.
func EncryptSymmetric(passphrase []byte, data []byte, opt EncryptOptions) (*Message, error) {
	symAlg := opt.SymAlg
	if symAlg == 0 {
		symAlg = symalg.AES256
	}
	a, err := symalg.Lookup(symAlg)
	if err != nil {
		return nil, err
	}
	salt := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	hashCtor, err := hashalg.New(hashalg.SHA256)
	if err != nil {
		return nil, err
	}
	spec := s2k.Spec{Mode: s2k.IteratedSalted, Hash: hashCtor, Salt: salt, Count: s2k.EncodeCount(65536)}
	key, err := s2k.Derive(spec, passphrase, a.KeySize)
	if err != nil {
		return nil, err
	}

	plaintext, err := buildPlaintext(data, opt)
	if err != nil {
		return nil, err
	}

	skesk := &packet.SKESK{Version: 4, SymAlg: symAlg, S2K: spec, S2KHashID: hashalg.SHA256}
	dataPkt, err := encryptDataPacket(symAlg, key, plaintext, opt.ChunkSize)
	if err != nil {
		return nil, err
	}
	return &Message{Packets: []*packet.Packet{skesk.Packet(), dataPkt}}, nil
}

// skeskEncKeyBlock recovers (symAlg, key) from a Tag 3 SKESK that carries
// an explicit CFB-encrypted key (RFC 4880 5.3: a single CFB pass with a
// zero IV over sym_id‖K, no checksum -- unlike the EME-wrapped PKESK block,
// which does carry one).
func skeskEncKeyBlock(symAlg byte, derivedKey, encKey []byte) (byte, []byte, error) {
	block, err := symalg.NewBlock(symAlg, derivedKey)
	if err != nil {
		return 0, nil, err
	}
	if len(encKey) < 2 {
		return 0, nil, pgperror.New(pgperror.MalformedKey, "openpgp: SKESK encrypted key too short")
	}
	iv := make([]byte, block.BlockSize())
	out := make([]byte, len(encKey))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(out, encKey)
	return out[0], out[1:], nil
}

func findSecretByKeyID(secrets []*packet.SecretKey, id [8]byte) *packet.SecretKey {
	for _, sk := range secrets {
		if sk.Public.KeyID() == id {
			return sk
		}
	}
	return nil
}

// DecryptOptions supplies what Decrypt needs beyond the message itself.
type DecryptOptions struct {
	Secrets    []*packet.SecretKey // unlocked; tried against each PKESK's key id
	Passphrase []byte              // tried against a SKESK
	Verifier   *packet.PublicKey   // optional, checks an embedded OnePassSig/Sig pair
}

// Decrypt implements the session-key decrypt pipeline (spec 4.5): locates
// a usable session-key packet, decrypts (and for SEIPD, MDC-verifies) the
// data packet, then peels compression and an optional inline signature
// down to the literal's data field.
func Decrypt(msg *Message, opt DecryptOptions) ([]byte, ErrorLog, error) {
	var warnings ErrorLog
	var symAlg byte
	var key []byte
	var dataPkt *packet.Packet

	for _, p := range msg.Packets {
		switch p.Tag {
		case packet.TagPKESK:
			if key != nil {
				continue
			}
			pkesk, err := packet.ParsePKESK(p.Body)
			if err != nil {
				warnings.warn(err.Error())
				continue
			}
			sk := findSecretByKeyID(opt.Secrets, pkesk.KeyID)
			if sk == nil {
				continue
			}
			a, k, err := unwrapPKESK(sk, pkesk)
			if err != nil {
				return nil, warnings, err
			}
			symAlg, key = a, k

		case packet.TagSKESK:
			if key != nil || opt.Passphrase == nil {
				continue
			}
			skesk, err := packet.ParseSKESK(p.Body)
			if err != nil {
				warnings.warn(err.Error())
				continue
			}
			a, err := symalg.Lookup(skesk.SymAlg)
			if err != nil {
				return nil, warnings, err
			}
			derived, err := s2k.Derive(skesk.S2K, opt.Passphrase, a.KeySize)
			if err != nil {
				return nil, warnings, err
			}
			if skesk.EncKey == nil {
				symAlg, key = skesk.SymAlg, derived
			} else {
				sa, k, err := skeskEncKeyBlock(skesk.SymAlg, derived, skesk.EncKey)
				if err != nil {
					return nil, warnings, err
				}
				symAlg, key = sa, k
			}

		case packet.TagSymEncrypted, packet.TagSEIPD:
			dataPkt = p

		default:
			warnings.warn("openpgp: unrecognized packet in message, skipped")
		}
	}

	if dataPkt == nil {
		return nil, warnings, pgperror.New(pgperror.ContainerShapeViolation, "openpgp: message has no encrypted data packet")
	}
	if key == nil {
		return nil, warnings, pgperror.New(pgperror.NoEncryptingKey, "openpgp: no usable session key found")
	}

	block, err := symalg.NewBlock(symAlg, key)
	if err != nil {
		return nil, warnings, err
	}

	var plaintext []byte
	switch dataPkt.Tag {
	case packet.TagSymEncrypted:
		sed := packet.ParseSymEncryptedData(dataPkt.Body)
		pt, quickErr := cfb.DecryptResync(block, sed.Ciphertext)
		if quickErr != nil {
			warnings.warn(quickErr.Error())
		}
		plaintext = pt

	case packet.TagSEIPD:
		seipd, err := packet.ParseSEIPD(dataPkt.Body)
		if err != nil {
			return nil, warnings, err
		}
		pt, warn, fatal := cfb.DecryptSEIPD(block, seipd.Ciphertext)
		if warn != nil {
			warnings.warn(warn.Error())
		}
		if fatal != nil {
			return nil, warnings, fatal
		}
		plaintext = pt
	}

	data, err := peelPlaintext(plaintext, opt.Verifier, &warnings)
	return data, warnings, err
}

// peelPlaintext implements spec 4.5 step 4: strip optional compression,
// then an optional inline OnePassSig.Literal.Sig sequence, down to the
// literal packet's data field.
func peelPlaintext(data []byte, verifier *packet.PublicKey, warnings *ErrorLog) ([]byte, error) {
	r := bytes.NewReader(data)
	p, err := packet.ReadPacket(r)
	if err != nil {
		return nil, err
	}

	if p.Tag == packet.TagCompressedData {
		cd, err := packet.ParseCompressedData(p.Body)
		if err != nil {
			return nil, err
		}
		inner, err := decompressData(cd.Algorithm, cd.Data)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(inner)
		p, err = packet.ReadPacket(r)
		if err != nil {
			return nil, err
		}
	}

	var ops *packet.OnePassSignature
	if p.Tag == packet.TagOnePassSignature {
		ops, err = packet.ParseOnePassSignature(p.Body)
		if err != nil {
			return nil, err
		}
		p, err = packet.ReadPacket(r)
		if err != nil {
			return nil, err
		}
	}

	if p.Tag != packet.TagLiteralData {
		return nil, pgperror.New(pgperror.ContainerShapeViolation, "openpgp: expected literal data packet")
	}
	lit, err := packet.ParseLiteralData(p.Body)
	if err != nil {
		return nil, err
	}

	if ops != nil {
		sigPkt, err := packet.ReadPacket(r)
		if err != nil {
			warnings.warn("openpgp: one-pass signature present but trailing signature packet missing")
		} else if sigPkt.Tag != packet.TagSignature {
			warnings.warn("openpgp: expected a signature packet to close the one-pass signature")
		} else if sig, err := packet.ParseSignature(sigPkt.Body); err != nil {
			warnings.warn(err.Error())
		} else if verifier != nil {
			res, err := Verify(sig, verifier, PreimageInput{Data: lit.Data})
			if err != nil {
				warnings.warn(err.Error())
			} else if res != VerifyValid {
				return nil, pgperror.New(pgperror.BadSignature, "openpgp: inline signature did not verify")
			}
		}
	}

	return lit.Data, nil
}

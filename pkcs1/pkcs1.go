// Package pkcs1 implements the two PKCS#1 v1.5 padding schemes RFC 4880
// section 13.1 specifies for OpenPGP: EME (encryption, used to wrap a
// session key under a recipient's RSA key) and EMSA (signature digest
// encoding, used before RSA-signing a hash).
//
// Grounded on original_source/PKCS1.h (naming EME_PKCS1_ENCODE/DECODE and
// EMSA_PKCS1 as the three RFC 4880 13.1.x entry points) and
// original_source/sign.cpp's pka_sign, which calls EMSA_PKCS1_v1_5 with the
// hash algorithm id and the RSA modulus byte length.
package pkcs1

import (
	"crypto/rand"
	"io"

	"nullprogram.com/x/openpgp/pgperror"
)

// digestInfoPrefix holds the fixed ASN.1 DER prefix for each hash algorithm
// id in RFC 4880's closed hash registry (section 9.4), as used by PKCS#1
// v1.5 DigestInfo encoding (RFC 3447 section 9.2, table via RFC 8017
// appendix B.1). Keys are the RFC 4880 hash algorithm ids (section 9.4),
// not ASN.1 OID nibbles.
var digestInfoPrefix = map[byte][]byte{
	1:  {0x30, 0x20, 0x30, 0x0c, 0x06, 0x08, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x02, 0x05, 0x05, 0x00, 0x04, 0x10}, // MD5
	2:  {0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02, 0x1a, 0x05, 0x00, 0x04, 0x14},                   // SHA-1
	3:  {0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x24, 0x03, 0x02, 0x01, 0x05, 0x00, 0x04, 0x14},                   // RIPEMD-160
	8:  {0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20}, // SHA-256
	9:  {0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30}, // SHA-384
	10: {0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40}, // SHA-512
	11: {0x30, 0x2d, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x04, 0x05, 0x00, 0x04, 0x1c}, // SHA-224
}

// EMEEncode implements RFC 4880 13.1.1: EME-PKCS1-v1_5-ENCODE. m is the
// message to encrypt (the session-key block); k is the recipient modulus
// length in bytes. Fails with BadPadding (here, on the input-length check
// spec.md phrases as a decode failure, it is instead a construction
// precondition) if m is too large for k.
func EMEEncode(m []byte, k int) ([]byte, error) {
	if len(m) > k-11 {
		return nil, pgperror.New(pgperror.BadPadding, "pkcs1: message too long for modulus")
	}
	ps, err := randomNonZero(k - len(m) - 3)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, k)
	out = append(out, 0x00, 0x02)
	out = append(out, ps...)
	out = append(out, 0x00)
	out = append(out, m...)
	return out, nil
}

// randomNonZero returns n cryptographically random bytes, none of them
// zero. Per spec 4.4, zero bytes must be retried, not masked to nonzero,
// so the distribution stays uniform over {1..255}.
func randomNonZero(n int) ([]byte, error) {
	out := make([]byte, n)
	buf := make([]byte, 1)
	for i := 0; i < n; {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return nil, err
		}
		if buf[0] == 0 {
			continue
		}
		out[i] = buf[0]
		i++
	}
	return out, nil
}

// EMEDecode implements RFC 4880 13.1.2: EME-PKCS1-v1_5-DECODE, recovering
// the original message from an EME-encoded block em.
func EMEDecode(em []byte) ([]byte, error) {
	if len(em) < 11 || em[0] != 0x00 || em[1] != 0x02 {
		return nil, pgperror.New(pgperror.BadPadding, "pkcs1: bad EME header")
	}
	// The padding string PS must be at least 8 bytes (RFC 8017 7.2.2).
	idx := -1
	for i := 2 + 8; i < len(em); i++ {
		if em[i] == 0x00 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, pgperror.New(pgperror.BadPadding, "pkcs1: missing separator")
	}
	return em[idx+1:], nil
}

// EMSAEncode implements RFC 4880 13.1.3: EMSA-PKCS1-v1_5, encoding digest
// (the output of hash algorithm hashID) to exactly k bytes for RSA signing.
func EMSAEncode(hashID byte, digest []byte, k int) ([]byte, error) {
	prefix, ok := digestInfoPrefix[hashID]
	if !ok {
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "pkcs1: unknown hash algorithm for DigestInfo")
	}
	t := append(append([]byte{}, prefix...), digest...)
	if k < len(t)+11 {
		return nil, pgperror.New(pgperror.BadPadding, "pkcs1: modulus too short for digest")
	}
	ps := make([]byte, k-len(t)-3)
	for i := range ps {
		ps[i] = 0xff
	}
	out := make([]byte, 0, k)
	out = append(out, 0x00, 0x01)
	out = append(out, ps...)
	out = append(out, 0x00)
	out = append(out, t...)
	return out, nil
}

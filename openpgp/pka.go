// Public-key algorithm primitives: the minimal "rsa_{encrypt,decrypt,sign,
// verify} / dsa_{sign,verify} / elgamal_{encrypt,decrypt} / bigint" capability
// set spec 6 names as collaborators, with the core (not the primitive) owning
// PKCS#1 padding per spec 4.4/4.6.
//
// Grounded on original_source/PKCS1.h's separation of raw RSA exponentiation
// from EME/EMSA padding, and original_source/encrypt.cpp's ElGamal_encrypt
// call shape (encrypt an already-padded block, get back two MPI-sized
// integers); golang.org/x/crypto/openpgp/elgamal is wired in as that
// collaborator per DESIGN.md (the one real ElGamal implementation the
// corpus uses for OpenPGP), keeping crypto/rsa+crypto/dsa+math/big as the
// RSA/DSA/bigint collaborator spec 6 calls for directly.
package openpgp

import (
	"crypto/dsa"
	"crypto/rand"
	"io"
	"math/big"

	"golang.org/x/crypto/openpgp/elgamal"

	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/pgperror"
)

// RSAKey is the bigint pair a raw RSA operation needs: a modulus and either
// a public or private exponent.
type RSAKey struct {
	N, Exponent *big.Int
}

// rsaPrimitive computes m^exponent mod n: the one operation RSA encrypt,
// decrypt, sign, and verify all reduce to, with EME/EMSA padding applied by
// the caller on either side.
func rsaPrimitive(key RSAKey, m *big.Int) *big.Int {
	return new(big.Int).Exp(m, key.Exponent, key.N)
}

// RSAModulusLen returns the byte length k that EME/EMSA operations should
// target for this key's modulus.
func RSAModulusLen(n *big.Int) int {
	return (n.BitLen() + 7) / 8
}

// rsaApply runs the raw RSA primitive over an MPI-sized magnitude, left-
// padding the result to the modulus byte length (RSA outputs can be
// shorter than the modulus when the top bits of the result happen to be
// zero).
func rsaApply(key RSAKey, in []byte) []byte {
	m := new(big.Int).SetBytes(in)
	out := rsaPrimitive(key, m)
	k := RSAModulusLen(key.N)
	raw := out.Bytes()
	if len(raw) > k {
		raw = raw[len(raw)-k:]
	}
	padded := make([]byte, k)
	copy(padded[k-len(raw):], raw)
	return padded
}

// DSASign signs digest (already truncated/left-padded to the subgroup
// order per FIPS 186, which crypto/dsa.Sign handles) and returns the two
// signature MPIs (r, s).
func DSASign(priv *dsa.PrivateKey, digest []byte) (r, s *big.Int, err error) {
	r, s, err = dsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return nil, nil, pgperror.Wrap(pgperror.BadSignature, "openpgp: DSA sign failed", err)
	}
	return r, s, nil
}

// DSAVerify reports whether (r, s) is a valid DSA signature over digest
// under pub.
func DSAVerify(pub *dsa.PublicKey, digest []byte, r, s *big.Int) bool {
	return dsa.Verify(pub, digest, r, s)
}

// ElGamalEncrypt encrypts an already EME-padded block under pub, returning
// the two ciphertext MPIs.
func ElGamalEncrypt(rnd io.Reader, pub *elgamal.PublicKey, padded []byte) (c1, c2 *big.Int, err error) {
	c1, c2, err = elgamal.Encrypt(rnd, pub, padded)
	if err != nil {
		return nil, nil, pgperror.Wrap(pgperror.UnsupportedAlgorithm, "openpgp: ElGamal encrypt failed", err)
	}
	return c1, c2, nil
}

// ElGamalDecrypt recovers the EME-padded block from ciphertext MPIs
// (c1, c2) under priv.
func ElGamalDecrypt(priv *elgamal.PrivateKey, c1, c2 *big.Int) ([]byte, error) {
	out, err := elgamal.Decrypt(priv, c1, c2)
	if err != nil {
		return nil, pgperror.Wrap(pgperror.BadPadding, "openpgp: ElGamal decrypt failed", err)
	}
	return out, nil
}

// mpiBytes encodes n as an OpenPGP MPI (2-byte bit count plus magnitude).
func mpiBytes(n *big.Int) []byte {
	return bignum.EncodeMPI(n.Bytes())
}

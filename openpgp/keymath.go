// Conversions between the packet layer's raw MPI magnitudes and the
// math/big-backed key types crypto/dsa and golang.org/x/crypto/openpgp/
// elgamal expect.
package openpgp

import (
	"crypto/dsa"
	"math/big"

	"golang.org/x/crypto/openpgp/elgamal"

	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/pgperror"
)

func bi(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

// rsaPublicKey extracts (N, E) from a public key packet as bigints.
func rsaPublicKey(pub *packet.PublicKey) (n, e *big.Int, err error) {
	if !pub.Algorithm.IsRSA() {
		return nil, nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: not an RSA key")
	}
	return bi(pub.Fields.N), bi(pub.Fields.E), nil
}

// rsaPrivateKey extracts (N, D) from an unlocked secret key packet.
func rsaPrivateKey(sk *packet.SecretKey) (n, d *big.Int, err error) {
	if sk.Cleartext == nil {
		return nil, nil, pgperror.New(pgperror.MalformedKey, "openpgp: secret key is still locked")
	}
	if !sk.Public.Algorithm.IsRSA() {
		return nil, nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: not an RSA key")
	}
	return bi(sk.Public.Fields.N), bi(sk.Cleartext.D), nil
}

func dsaPublicKey(pub *packet.PublicKey) (*dsa.PublicKey, error) {
	if pub.Algorithm != packet.PKADSA {
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: not a DSA key")
	}
	return &dsa.PublicKey{
		Parameters: dsa.Parameters{P: bi(pub.Fields.P), Q: bi(pub.Fields.Q), G: bi(pub.Fields.G)},
		Y:          bi(pub.Fields.Y),
	}, nil
}

func dsaPrivateKey(sk *packet.SecretKey) (*dsa.PrivateKey, error) {
	if sk.Cleartext == nil {
		return nil, pgperror.New(pgperror.MalformedKey, "openpgp: secret key is still locked")
	}
	pub, err := dsaPublicKey(sk.Public)
	if err != nil {
		return nil, err
	}
	return &dsa.PrivateKey{PublicKey: *pub, X: bi(sk.Cleartext.X)}, nil
}

func elgamalPublicKey(pub *packet.PublicKey) (*elgamal.PublicKey, error) {
	if pub.Algorithm != packet.PKAElGamal {
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: not an ElGamal key")
	}
	return &elgamal.PublicKey{G: bi(pub.Fields.G), P: bi(pub.Fields.P), Y: bi(pub.Fields.Y)}, nil
}

func elgamalPrivateKey(sk *packet.SecretKey) (*elgamal.PrivateKey, error) {
	if sk.Cleartext == nil {
		return nil, pgperror.New(pgperror.MalformedKey, "openpgp: secret key is still locked")
	}
	pub, err := elgamalPublicKey(sk.Public)
	if err != nil {
		return nil, err
	}
	return &elgamal.PrivateKey{PublicKey: *pub, X: bi(sk.Cleartext.X)}, nil
}

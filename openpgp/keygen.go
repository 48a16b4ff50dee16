// Key generation (spec 4.8): a fresh primary signing key, a self-signed
// User ID, and an optional encryption subkey, assembled into a SecretKey
// container and optionally passphrase-locked.
//
// Grounded on signkey.go's main(), which already generates a key, builds a
// UserID, self-signs it, and (when requested) generates and binds a
// subkey; generalized here from its fixed Ed25519 generation call to
// crypto/rsa.GenerateKey and crypto/dsa.GenerateParameters/GenerateKey per
// the PKA registry spec 4.8 allows for primary keys.
package openpgp

import (
	"crypto/dsa"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"math/big"

	"nullprogram.com/x/openpgp/hashalg"
	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/pgperror"
	"nullprogram.com/x/openpgp/s2k"
	"nullprogram.com/x/openpgp/symalg"
)

// KeyGenOptions configures GenerateKey.
type KeyGenOptions struct {
	PrimaryPKA   packet.PKA // 0 defaults to PKARSAEncryptSign
	PrimaryBits  int        // 0 defaults to 2048 (RSA) or 1024 (DSA)
	SubkeyPKA    packet.PKA // 0 skips the subkey
	SubkeyBits   int        // 0 defaults to 2048
	UserID       string
	CreationTime uint32
	HashAlg      byte // 0 defaults to SHA-256
	Passphrase   []byte
}

func newRSASecretKey(priv *rsa.PrivateKey, pka packet.PKA, creationTime uint32, sub bool) *packet.SecretKey {
	p, q := priv.Primes[0], priv.Primes[1]
	if p.Cmp(q) > 0 {
		p, q = q, p
	}
	u := new(big.Int).ModInverse(p, q)
	pub := &packet.PublicKey{
		Version: 4, CreationTime: creationTime, Algorithm: pka, Sub: sub,
		Fields: packet.PublicKeyFields{N: priv.N.Bytes(), E: big.NewInt(int64(priv.E)).Bytes()},
	}
	return &packet.SecretKey{
		Public:    pub,
		Usage:     packet.S2KUsageClear,
		Cleartext: &packet.SecretKeyFields{D: priv.D.Bytes(), P: p.Bytes(), Q: q.Bytes(), U: u.Bytes()},
	}
}

func newDSASecretKey(priv *dsa.PrivateKey, creationTime uint32) *packet.SecretKey {
	pub := &packet.PublicKey{
		Version: 4, CreationTime: creationTime, Algorithm: packet.PKADSA,
		Fields: packet.PublicKeyFields{P: priv.P.Bytes(), Q: priv.Q.Bytes(), G: priv.G.Bytes(), Y: priv.Y.Bytes()},
	}
	return &packet.SecretKey{
		Public:    pub,
		Usage:     packet.S2KUsageClear,
		Cleartext: &packet.SecretKeyFields{X: priv.X.Bytes()},
	}
}

func generateDSAKey(bits int) (*dsa.PrivateKey, error) {
	sizes := dsa.L1024N160
	if bits >= 2048 {
		sizes = dsa.L2048N256
	}
	var params dsa.Parameters
	if err := dsa.GenerateParameters(&params, rand.Reader, sizes); err != nil {
		return nil, err
	}
	priv := &dsa.PrivateKey{PublicKey: dsa.PublicKey{Parameters: params}}
	if err := dsa.GenerateKey(priv, rand.Reader); err != nil {
		return nil, err
	}
	return priv, nil
}

func generateSigningPrimary(opt KeyGenOptions) (*packet.SecretKey, error) {
	pka := opt.PrimaryPKA
	if pka == 0 {
		pka = packet.PKARSAEncryptSign
	}
	switch pka {
	case packet.PKARSAEncryptSign, packet.PKARSASignOnly:
		bits := opt.PrimaryBits
		if bits == 0 {
			bits = 2048
		}
		priv, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, err
		}
		return newRSASecretKey(priv, pka, opt.CreationTime, false), nil
	case packet.PKADSA:
		bits := opt.PrimaryBits
		if bits == 0 {
			bits = 1024
		}
		priv, err := generateDSAKey(bits)
		if err != nil {
			return nil, err
		}
		return newDSASecretKey(priv, opt.CreationTime), nil
	default:
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: unsupported primary key algorithm")
	}
}

func generateEncryptionSubkey(opt KeyGenOptions) (*packet.SecretKey, error) {
	switch opt.SubkeyPKA {
	case packet.PKARSAEncryptSign, packet.PKARSAEncryptOnly:
		bits := opt.SubkeyBits
		if bits == 0 {
			bits = 2048
		}
		priv, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, err
		}
		return newRSASecretKey(priv, opt.SubkeyPKA, opt.CreationTime, true), nil
	case packet.PKAElGamal:
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: ElGamal key generation is not supported (golang.org/x/crypto/openpgp/elgamal only provides encrypt/decrypt over an existing group, not parameter/key generation)")
	default:
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: unsupported subkey algorithm")
	}
}

func lockOne(sk *packet.SecretKey, passphrase []byte, hashAlg byte) error {
	salt := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	hashCtor, err := hashalg.New(hashAlg)
	if err != nil {
		return err
	}
	sk.Usage = packet.S2KUsageEncryptedSHA1
	sk.S2K = s2k.Spec{Mode: s2k.IteratedSalted, Hash: hashCtor, Salt: salt, Count: s2k.EncodeCount(65536)}
	sk.S2KHashID = hashAlg
	return sk.Lock(passphrase, symalg.AES256)
}

// GenerateKey produces a fresh SecretKey container (spec 4.8): a primary
// signing key, a User ID, a self-signature binding them with Key Flags
// 0x03 (certify+sign), and optionally an encryption subkey bound with Key
// Flags 0x0c (encrypt communications+storage). If opt.Passphrase is set,
// every secret key packet in the container is locked under it.
func GenerateKey(opt KeyGenOptions) (*SecretKey, error) {
	if opt.UserID == "" {
		return nil, pgperror.New(pgperror.ContainerShapeViolation, "openpgp: GenerateKey requires a user id")
	}
	hashAlg := opt.HashAlg
	if hashAlg == 0 {
		hashAlg = hashalg.SHA256
	}

	primary, err := generateSigningPrimary(opt)
	if err != nil {
		return nil, err
	}
	signer := &SigningKey{Secret: primary, HashAlg: hashAlg}

	uid := &packet.UserID{ID: opt.UserID}
	selfSig, err := SelfSign(signer, uid, opt.CreationTime, 0x03)
	if err != nil {
		return nil, err
	}

	container := &SecretKey{
		Primary:    primary,
		Identities: []UserIDBinding{{UserID: uid, Signatures: []*packet.Signature{selfSig}}},
	}

	if opt.SubkeyPKA != 0 {
		sub, err := generateEncryptionSubkey(opt)
		if err != nil {
			return nil, err
		}
		bindSig, err := Bind(signer, sub.Public, opt.CreationTime, 0x0c)
		if err != nil {
			return nil, err
		}
		container.Subkeys = []SubkeyBinding{{Public: sub.Public, Secret: sub, BindingSig: bindSig}}
	}

	if opt.Passphrase != nil {
		if err := lockOne(container.Primary, opt.Passphrase, hashAlg); err != nil {
			return nil, err
		}
		for _, sub := range container.Subkeys {
			if sub.Secret != nil {
				if err := lockOne(sub.Secret, opt.Passphrase, hashAlg); err != nil {
					return nil, err
				}
			}
		}
	}

	return container, nil
}

// Package hashalg maps RFC 4880 section 9.4's closed hash algorithm id
// registry to concrete hash.Hash constructors, wiring in
// golang.org/x/crypto/ripemd160 for the one algorithm the standard library
// doesn't carry.
package hashalg

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/ripemd160"

	"nullprogram.com/x/openpgp/pgperror"
)

const (
	MD5       = 1
	SHA1      = 2
	RIPEMD160 = 3
	SHA256    = 8
	SHA384    = 9
	SHA512    = 10
	SHA224    = 11
)

var constructors = map[byte]func() hash.Hash{
	MD5:       md5.New,
	SHA1:      sha1.New,
	RIPEMD160: ripemd160.New,
	SHA256:    sha256.New,
	SHA384:    sha512.New384,
	SHA512:    sha512.New,
	SHA224:    sha256.New224,
}

// New returns a constructor for the given RFC 4880 hash algorithm id, or
// UnsupportedAlgorithm if the id is not one of the closed registry's
// members.
func New(id byte) (func() hash.Hash, error) {
	c, ok := constructors[id]
	if !ok {
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "hashalg: unknown hash algorithm id")
	}
	return c, nil
}

// Name returns a human-readable name for id, for diagnostics.
func Name(id byte) string {
	switch id {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA1"
	case RIPEMD160:
		return "RIPEMD160"
	case SHA256:
		return "SHA256"
	case SHA384:
		return "SHA384"
	case SHA512:
		return "SHA512"
	case SHA224:
		return "SHA224"
	default:
		return "unknown"
	}
}

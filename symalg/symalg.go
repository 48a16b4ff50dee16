// Package symalg maps RFC 4880 section 9.2's closed symmetric cipher
// algorithm id registry to concrete cipher.Block constructors and key/block
// sizes. AES and 3DES come from the standard library; CAST5, Blowfish, and
// Twofish are wired in from golang.org/x/crypto (the same module the
// teacher already depends on, here exercised for the ciphers it doesn't
// itself use); IDEA has no ecosystem implementation and is provided by the
// sibling idea package (see its doc comment and DESIGN.md).
package symalg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"

	"nullprogram.com/x/openpgp/idea"
	"nullprogram.com/x/openpgp/pgperror"
)

const (
	Plaintext = 0
	IDEA      = 1
	TripleDES = 2
	CAST5     = 3
	Blowfish  = 4
	AES128    = 7
	AES192    = 8
	AES256    = 9
	Twofish   = 10
)

// Algorithm describes one entry of the symmetric cipher registry.
type Algorithm struct {
	KeySize   int
	BlockSize int
	NewBlock  func(key []byte) (cipher.Block, error)
}

var registry = map[byte]Algorithm{
	IDEA:      {16, 8, idea.New},
	TripleDES: {24, 8, func(key []byte) (cipher.Block, error) { return des.NewTripleDESCipher(key) }},
	CAST5:     {16, 8, func(key []byte) (cipher.Block, error) { return cast5.NewCipher(key) }},
	Blowfish:  {16, 8, func(key []byte) (cipher.Block, error) { return blowfish.NewCipher(key) }},
	AES128:    {16, 16, func(key []byte) (cipher.Block, error) { return aes.NewCipher(key) }},
	AES192:    {24, 16, func(key []byte) (cipher.Block, error) { return aes.NewCipher(key) }},
	AES256:    {32, 16, func(key []byte) (cipher.Block, error) { return aes.NewCipher(key) }},
	Twofish:   {32, 16, func(key []byte) (cipher.Block, error) { return twofish.NewCipher(key) }},
}

// Lookup returns the Algorithm for a symmetric algorithm id, or
// UnsupportedAlgorithm if id is Plaintext or not in the registry.
func Lookup(id byte) (Algorithm, error) {
	a, ok := registry[id]
	if !ok {
		return Algorithm{}, pgperror.New(pgperror.UnsupportedAlgorithm, "symalg: unknown or unsupported symmetric algorithm id")
	}
	return a, nil
}

// NewBlock constructs a cipher.Block for the given algorithm id and key,
// validating the key length against the registry entry first.
func NewBlock(id byte, key []byte) (cipher.Block, error) {
	a, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	if len(key) != a.KeySize {
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "symalg: wrong key length for algorithm")
	}
	return a.NewBlock(key)
}

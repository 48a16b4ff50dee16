package packet

import (
	"hash"

	"nullprogram.com/x/openpgp/hashalg"
	"nullprogram.com/x/openpgp/pgperror"
)

func sha1New() hash.Hash {
	c, _ := hashalg.New(hashalg.SHA1)
	return c()
}

func md5New() hash.Hash {
	c, _ := hashalg.New(hashalg.MD5)
	return c()
}

func hashConstructor(id byte) (func() hash.Hash, error) {
	c, err := hashalg.New(id)
	if err != nil {
		return nil, pgperror.Wrap(pgperror.UnsupportedAlgorithm, "packet: unsupported S2K hash algorithm", err)
	}
	return c, nil
}

package packet

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"io"

	"nullprogram.com/x/openpgp/bignum"
	"nullprogram.com/x/openpgp/pgperror"
	"nullprogram.com/x/openpgp/s2k"
	"nullprogram.com/x/openpgp/symalg"
)

// Unlock decrypts sk's secret-MPI blob with the key derived from
// passphrase via sk.S2K, verifies the checksum or SHA-1 hash the usage
// byte promises, and replaces Ciphertext with the parsed Cleartext fields.
// Per spec 4.7, checksum mismatch is only probabilistically distinguishable
// from a malformed packet; this implementation reports WrongPassphrase in
// that case, matching the design note that accepts the ambiguity.
//
// Grounded on nullprogram.com/x/passphrase2pgp's signkey.go Load, which
// derives the CFB key via S2K, decrypts in place with a zero-padded IV,
// and checks a trailing SHA-1/checksum before accepting the MPIs.
func (sk *SecretKey) Unlock(passphrase []byte, deriveKeyLen int) error {
	if sk.Ciphertext == nil {
		return nil // already unlocked, or never encrypted
	}

	keyBytes, err := deriveS2KKey(sk, passphrase, deriveKeyLen)
	if err != nil {
		return err
	}
	block, err := symalg.NewBlock(sk.SymAlg, keyBytes)
	if err != nil {
		return err
	}

	plain, err := cfbDecryptZeroIV(block, sk.IV, sk.Ciphertext)
	if err != nil {
		return err
	}

	var tail []byte
	switch sk.Usage {
	case S2KUsageEncryptedSHA1:
		if len(plain) < 20 {
			return pgperror.New(pgperror.WrongPassphrase, "packet: secret key ciphertext too short for SHA-1 hash")
		}
		tail = plain[len(plain)-20:]
		body := plain[:len(plain)-20]
		sum := sha1.Sum(body)
		if !bytesEqual(sum[:], tail) {
			return pgperror.New(pgperror.WrongPassphrase, "packet: secret key SHA-1 verification failed")
		}
		plain = body
	default: // S2KUsageEncryptedCksum
		if len(plain) < 2 {
			return pgperror.New(pgperror.WrongPassphrase, "packet: secret key ciphertext too short for checksum")
		}
		tail = plain[len(plain)-2:]
		body := plain[:len(plain)-2]
		want := bignum.Checksum16(body)
		got := uint16(tail[0])<<8 | uint16(tail[1])
		if want != got {
			return pgperror.New(pgperror.WrongPassphrase, "packet: secret key checksum verification failed")
		}
		plain = body
	}

	fields, _, err := parseSecretFields(sk.Public.Algorithm, plain)
	if err != nil {
		return err
	}
	sk.Cleartext = &fields
	sk.Ciphertext = nil
	return nil
}

// Lock encrypts sk's Cleartext fields under a key derived from passphrase
// via sk.S2K (which must already be populated, e.g. by GenerateS2K),
// leaving Ciphertext populated and Cleartext cleared. Counterpart to
// Unlock, used by key generation (spec 4.8) and any future re-encryption
// under a new passphrase.
func (sk *SecretKey) Lock(passphrase []byte, symAlg byte) error {
	if sk.Cleartext == nil {
		return nil
	}
	sk.SymAlg = symAlg
	a, err := symalg.Lookup(symAlg)
	if err != nil {
		return err
	}
	keyBytes, err := s2k.Derive(sk.S2K, passphrase, a.KeySize)
	if err != nil {
		return err
	}
	block, err := symalg.NewBlock(symAlg, keyBytes)
	if err != nil {
		return err
	}

	iv := make([]byte, a.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return err
	}

	raw := sk.Cleartext.raw(sk.Public.Algorithm)
	var plain []byte
	switch sk.Usage {
	case S2KUsageEncryptedSHA1:
		sum := sha1.Sum(raw)
		plain = append(append([]byte{}, raw...), sum[:]...)
	default:
		sk.Usage = S2KUsageEncryptedCksum
		sum := bignum.Checksum16(raw)
		plain = append(append([]byte{}, raw...), byte(sum>>8), byte(sum))
	}

	out := make([]byte, len(plain))
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(out, plain)

	sk.IV = iv
	sk.Ciphertext = out
	sk.Cleartext = nil
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cfbDecryptZeroIV runs plain CFB decryption seeded from the packet's
// stored IV (not the all-zero data-layer IV the message pipeline's
// resync/non-resync variants use): secret-key protection has no prefix or
// MDC, just a single CFB pass, per original_source/Packets/packet.cpp's
// secret-key section.
func cfbDecryptZeroIV(block cipher.Block, iv, ciphertext []byte) ([]byte, error) {
	if len(iv) != block.BlockSize() {
		return nil, pgperror.New(pgperror.MalformedKey, "packet: secret key IV length mismatch")
	}
	out := make([]byte, len(ciphertext))
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(out, ciphertext)
	return out, nil
}

func deriveS2KKey(sk *SecretKey, passphrase []byte, keyLen int) ([]byte, error) {
	a, err := symalg.Lookup(sk.SymAlg)
	if err != nil {
		return nil, err
	}
	if keyLen == 0 {
		keyLen = a.KeySize
	}
	return s2k.Derive(sk.S2K, passphrase, keyLen)
}

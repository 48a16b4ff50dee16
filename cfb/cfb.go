// Package cfb implements the OpenPGP CFB variant (RFC 4880 section 13.9):
// a block cipher run in CFB mode with an all-zero IV, preceded by a
// random data-layer prefix used as a fast integrity "quick check", with
// two sub-variants: the legacy resynchronizing mode used by Symmetrically
// Encrypted Data packets (Tag 9), and the non-resyncing mode used by
// Sym. Encrypted Integrity Protected Data packets (Tag 18), which instead
// gets its integrity from an appended Modification Detection Code.
//
// Grounded on nullprogram.com/x/passphrase2pgp's openpgp.SignKey.EncPacket
// and Load (signkey.go), which drive crypto/cipher's CFB encrypter/
// decrypter directly with a zero IV for secret-key protection, and on
// original_source/encrypt.cpp's encrypt_data, which builds the BS+2-byte
// prefix, performs the Tag 9 resync, and (for Tag 18) appends
// SHA1(prefix‖plaintext‖0xD3 0x14) as the MDC before encrypting.
package cfb

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"io"

	"nullprogram.com/x/openpgp/pgperror"
)

// Prefix returns a fresh BS+2 byte OpenPGP CFB prefix: BS random bytes
// followed by a repetition of the last two of those bytes.
func Prefix(blockSize int) ([]byte, error) {
	p := make([]byte, blockSize+2)
	if _, err := io.ReadFull(rand.Reader, p[:blockSize]); err != nil {
		return nil, err
	}
	p[blockSize] = p[blockSize-2]
	p[blockSize+1] = p[blockSize-1]
	return p, nil
}

// EncryptResync encrypts prefix‖plaintext under block using the legacy
// Tag 9 resynchronizing CFB variant: a zero IV, normal CFB for the first
// BS+2 bytes, then the shift register reloaded from the last BS bytes of
// ciphertext produced so far before continuing.
func EncryptResync(block cipher.Block, plaintext []byte) ([]byte, error) {
	bs := block.BlockSize()
	prefix, err := Prefix(bs)
	if err != nil {
		return nil, err
	}
	data := append(prefix, plaintext...)
	out := make([]byte, len(data))

	iv := make([]byte, bs)
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(out[:bs+2], data[:bs+2])

	// Resynchronize: reload the shift register from the last BS bytes of
	// ciphertext produced so far.
	resyncIV := out[2 : bs+2]
	stream = cipher.NewCFBEncrypter(block, resyncIV)
	stream.XORKeyStream(out[bs+2:], data[bs+2:])

	return out, nil
}

// DecryptResync is the inverse of EncryptResync. It returns the recovered
// plaintext with the BS+2-byte prefix stripped and reports QuickCheckFailed (as an error with that
// Kind, non-nil) if the prefix's quick-check bytes don't match — the
// recovered plaintext is still returned in that case, per spec 4.3, and it
// is the caller's responsibility to treat a QuickCheckFailed result as
// advisory rather than aborting outright.
func DecryptResync(block cipher.Block, ciphertext []byte) (plaintext []byte, quickCheckErr error) {
	bs := block.BlockSize()
	if len(ciphertext) < bs+2 {
		return nil, pgperror.New(pgperror.MalformedHeader, "cfb: ciphertext shorter than prefix")
	}
	out := make([]byte, len(ciphertext))

	iv := make([]byte, bs)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(out[:bs+2], ciphertext[:bs+2])

	resyncIV := ciphertext[2 : bs+2]
	stream = cipher.NewCFBDecrypter(block, resyncIV)
	stream.XORKeyStream(out[bs+2:], ciphertext[bs+2:])

	if out[bs-2] != out[bs] || out[bs-1] != out[bs+1] {
		quickCheckErr = pgperror.New(pgperror.QuickCheckFailed, "cfb: prefix quick check mismatch")
	}
	return out[bs+2:], quickCheckErr
}

// mdcTrailer is the valid packet header of a 20-byte Modification
// Detection Code packet (new-format tag 19, length 20): 0xD3 0x14. RFC
// 4880 deliberately reuses this as the hash preimage's trailing bytes so
// the hashed region equals "everything except the hash value itself".
var mdcTrailer = []byte{0xd3, 0x14}

// MDCHash computes SHA1(prefix ‖ plaintext ‖ 0xD3 0x14), the hash a
// Modification Detection Code packet must carry under SEIPD.
func MDCHash(prefix, plaintext []byte) []byte {
	h := sha1.New()
	h.Write(prefix)
	h.Write(plaintext)
	h.Write(mdcTrailer)
	return h.Sum(nil)
}

// EncryptSEIPD encrypts prefix‖plaintext‖MDC under block using the
// non-resyncing CFB variant Tag 18 requires: the MDC packet (tag+length
// byte header 0xD3 0x14 plus the 20-byte hash) is appended to the
// plaintext before a single, uninterrupted CFB pass.
func EncryptSEIPD(block cipher.Block, plaintext []byte) ([]byte, error) {
	bs := block.BlockSize()
	prefix, err := Prefix(bs)
	if err != nil {
		return nil, err
	}
	mdc := MDCHash(prefix, plaintext)
	data := make([]byte, 0, len(prefix)+len(plaintext)+2+len(mdc))
	data = append(data, prefix...)
	data = append(data, plaintext...)
	data = append(data, mdcTrailer...)
	data = append(data, mdc...)

	out := make([]byte, len(data))
	iv := make([]byte, bs)
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(out, data)
	return out, nil
}

// DecryptSEIPD is the inverse of EncryptSEIPD. It reports QuickCheckFailed
// as an advisory error (plaintext still returned) and MDCMismatch as a
// fatal error (plaintext discarded, nil returned) per spec 4.3.
func DecryptSEIPD(block cipher.Block, ciphertext []byte) (plaintext []byte, warn error, fatal error) {
	bs := block.BlockSize()
	if len(ciphertext) < bs+2+2+20 {
		return nil, nil, pgperror.New(pgperror.MalformedHeader, "cfb: SEIPD ciphertext too short")
	}
	out := make([]byte, len(ciphertext))
	iv := make([]byte, bs)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(out, ciphertext)

	prefix := out[:bs+2]
	if prefix[bs-2] != prefix[bs] || prefix[bs-1] != prefix[bs+1] {
		warn = pgperror.New(pgperror.QuickCheckFailed, "cfb: prefix quick check mismatch")
	}

	body := out[bs+2:]
	if len(body) < 22 {
		return nil, warn, pgperror.New(pgperror.MalformedHeader, "cfb: SEIPD body missing MDC trailer")
	}
	pt := body[:len(body)-22]
	trailer := body[len(body)-22 : len(body)-20]
	mdcHash := body[len(body)-20:]

	if trailer[0] != mdcTrailer[0] || trailer[1] != mdcTrailer[1] {
		return nil, warn, pgperror.New(pgperror.MDCMismatch, "cfb: MDC packet header not found")
	}
	want := MDCHash(prefix, pt)
	if !constantTimeEqual(want, mdcHash) {
		return nil, warn, pgperror.New(pgperror.MDCMismatch, "cfb: MDC hash mismatch")
	}
	return pt, warn, nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// Package idea implements the IDEA block cipher (Lai/Massey, 1991):
// 64-bit blocks, 128-bit keys, 8 rounds plus a half-round output
// transform, mixing addition mod 2^16, XOR, and multiplication mod
// 2^16+1.
//
// IDEA (symmetric algorithm id 1 in RFC 4880 section 9.2) has no
// maintained implementation anywhere in this corpus or the wider Go module
// ecosystem — it was patent-encumbered until 2012 and saw essentially no
// adoption outside early PGP — so unlike every other cipher in the
// registry (AES via stdlib, CAST5/Blowfish/Twofish via
// golang.org/x/crypto) this one is implemented directly against the
// standard cipher.Block interface, grounded on the published algorithm
// description rather than any source in the retrieval pack. This is the
// one deliberate stdlib/hand-rolled exception in the symmetric cipher
// registry; see DESIGN.md.
package idea

import (
	"crypto/cipher"
	"errors"
)

const (
	BlockSize = 8
	KeySize   = 16
	rounds    = 8
)

type ideaCipher struct {
	keys [52]uint16 // 8 rounds * 6 subkeys + 4-subkey output transform
}

// New returns a cipher.Block implementing IDEA with the given 16-byte key.
func New(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, errors.New("idea: invalid key size")
	}
	c := &ideaCipher{}
	c.expandKey(key)
	return c, nil
}

func (c *ideaCipher) BlockSize() int { return BlockSize }

// mulMod multiplies a and b modulo 65537, treating 0 as representing 2^16
// per IDEA's convention (so the group is the nonzero residues mod 65537).
func mulMod(a, b uint16) uint16 {
	const mod = 0x10001
	x := uint32(a)
	y := uint32(b)
	if x == 0 {
		x = 0x10000
	}
	if y == 0 {
		y = 0x10000
	}
	p := (x * y) % mod
	if p == 0x10000 {
		p = 0
	}
	return uint16(p)
}

// invMod returns the multiplicative inverse of a modulo 65537 (treating 0
// as 2^16), via the extended Euclidean algorithm.
func invMod(a uint16) uint16 {
	if a == 0 {
		return 0
	}
	const mod = 0x10001
	var t0, t1 int32 = 0, 1
	x := int32(mod)
	y := int32(a)
	for y != 0 {
		q := x / y
		x, y = y, x-q*y
		t0, t1 = t1, t0-q*t1
	}
	if t0 < 0 {
		t0 += mod
	}
	return uint16(t0)
}

// expandKey derives the 52 subkeys from a 128-bit key by the standard IDEA
// schedule: the key supplies the first 8 subkeys directly, and each
// subsequent group of 8 is the previous 128 bits rotated left by 25 bits.
func (c *ideaCipher) expandKey(key []byte) {
	var k [8]uint16
	for i := 0; i < 8; i++ {
		k[i] = uint16(key[2*i])<<8 | uint16(key[2*i+1])
	}
	n := 0
	cur := k
	for n < 52 {
		for i := 0; i < 8 && n < 52; i++ {
			c.keys[n] = cur[i]
			n++
		}
		cur = rotateKey128(cur)
	}
}

// rotateKey128 rotates the 128-bit key (as 8 16-bit words) left by 25 bits.
func rotateKey128(k [8]uint16) [8]uint16 {
	var bits [128]byte
	for i, w := range k {
		for b := 0; b < 16; b++ {
			bits[i*16+b] = byte((w >> uint(15-b)) & 1)
		}
	}
	var rotated [128]byte
	for i := 0; i < 128; i++ {
		rotated[i] = bits[(i+25)%128]
	}
	var out [8]uint16
	for i := 0; i < 8; i++ {
		var w uint16
		for b := 0; b < 16; b++ {
			w = w<<1 | uint16(rotated[i*16+b])
		}
		out[i] = w
	}
	return out
}

func (c *ideaCipher) Encrypt(dst, src []byte) {
	a := uint16(src[0])<<8 | uint16(src[1])
	b := uint16(src[2])<<8 | uint16(src[3])
	cc := uint16(src[4])<<8 | uint16(src[5])
	d := uint16(src[6])<<8 | uint16(src[7])

	for r := 0; r < rounds; r++ {
		k := c.keys[r*6 : r*6+6]
		y1 := mulMod(a, k[0])
		y2 := b + k[1]
		y3 := cc + k[2]
		y4 := mulMod(d, k[3])

		A := y1 ^ y3
		B := y2 ^ y4
		t0 := mulMod(A, k[4])
		t1 := t0 + B
		T1 := mulMod(t1, k[5])
		T0 := t0 + T1

		o1 := y1 ^ T1
		o2 := y3 ^ T1
		o3 := y2 ^ T0
		o4 := y4 ^ T0

		a, b, cc, d = o1, o2, o3, o4
	}

	out := c.keys[48:52]
	z1 := mulMod(a, out[0])
	z2 := cc + out[1]
	z3 := b + out[2]
	z4 := mulMod(d, out[3])

	dst[0], dst[1] = byte(z1>>8), byte(z1)
	dst[2], dst[3] = byte(z2>>8), byte(z2)
	dst[4], dst[5] = byte(z3>>8), byte(z3)
	dst[6], dst[7] = byte(z4>>8), byte(z4)
}

// Decrypt inverts Encrypt algebraically round-by-round (rather than via a
// separately-derived decryption key schedule): at each stage the two XOR
// differences that feed the MA structure are recoverable directly from the
// round's unswapped outputs, which lets every multiplication/addition be
// undone with the same round subkeys Encrypt used.
func (c *ideaCipher) Decrypt(dst, src []byte) {
	z1 := uint16(src[0])<<8 | uint16(src[1])
	z2 := uint16(src[2])<<8 | uint16(src[3])
	z3 := uint16(src[4])<<8 | uint16(src[5])
	z4 := uint16(src[6])<<8 | uint16(src[7])

	out := c.keys[48:52]
	o1 := mulMod(z1, invMod(out[0]))
	o3 := z2 - out[1]
	o2 := z3 - out[2]
	o4 := mulMod(z4, invMod(out[3]))

	for r := rounds - 1; r >= 0; r-- {
		k := c.keys[r*6 : r*6+6]

		A := o1 ^ o2
		B := o3 ^ o4
		t0 := mulMod(A, k[4])
		t1 := t0 + B
		T1 := mulMod(t1, k[5])
		T0 := t0 + T1

		y1 := o1 ^ T1
		y3 := o2 ^ T1
		y2 := o3 ^ T0
		y4 := o4 ^ T0

		a := mulMod(y1, invMod(k[0]))
		b := y2 - k[1]
		cc := y3 - k[2]
		d := mulMod(y4, invMod(k[3]))

		o1, o2, o3, o4 = a, b, cc, d
	}

	dst[0], dst[1] = byte(o1>>8), byte(o1)
	dst[2], dst[3] = byte(o2>>8), byte(o2)
	dst[4], dst[5] = byte(o3>>8), byte(o3)
	dst[6], dst[7] = byte(o4>>8), byte(o4)
}

// Package bignum provides the low-level binary encoding helpers shared by
// the packet codec: OpenPGP Multi-Precision Integers, big-endian integer
// framing, and the additive session-key checksum. The MPI functions take
// and return raw byte slices as the wire format carries them; math/big is
// used only to count bits and in the EncodeBigInt/DecodeBigInt helpers.
//
// Grounded on nullprogram.com/x/passphrase2pgp's openpgp.mpi/mpiDecode
// helpers (signkey.go), widened from the fixed 32-byte Ed25519 case to
// arbitrary-length integers per RFC 4880 section 3.2.
package bignum

import (
	"encoding/binary"
	"errors"
	"math/big"
)

// ErrTruncatedMPI is returned when an MPI's declared bit length demands more
// bytes than are available in the input.
var ErrTruncatedMPI = errors.New("bignum: truncated MPI")

// bitLen returns the number of significant bits in buf, treating buf as a
// big-endian magnitude with no leading zero bytes assumed.
func bitLen(buf []byte) int {
	n := new(big.Int).SetBytes(buf)
	return n.BitLen()
}

// EncodeMPI encodes buf (a big-endian magnitude, most-significant byte
// first, no leading zero bytes) as an OpenPGP MPI: a 2-byte big-endian bit
// count followed by the minimal byte representation. A zero-length or
// all-zero buf encodes as the MPI for zero ("00 00").
func EncodeMPI(buf []byte) []byte {
	// Trim leading zero bytes so the bit count reflects the true magnitude.
	for len(buf) > 0 && buf[0] == 0 {
		buf = buf[1:]
	}
	out := make([]byte, 2+len(buf))
	binary.BigEndian.PutUint16(out, uint16(bitLen(buf)))
	copy(out[2:], buf)
	return out
}

// EncodeBigInt encodes n as an OpenPGP MPI.
func EncodeBigInt(n *big.Int) []byte {
	return EncodeMPI(n.Bytes())
}

// DecodeMPI reads one MPI from the front of buf, returning the magnitude
// bytes and the remainder of buf. It fails with ErrTruncatedMPI if buf is
// shorter than the declared length demands.
func DecodeMPI(buf []byte) (mag []byte, rest []byte, err error) {
	if len(buf) < 2 {
		return nil, nil, ErrTruncatedMPI
	}
	bits := int(binary.BigEndian.Uint16(buf))
	nbytes := (bits + 7) / 8
	if len(buf) < 2+nbytes {
		return nil, nil, ErrTruncatedMPI
	}
	return buf[2 : 2+nbytes], buf[2+nbytes:], nil
}

// DecodeBigInt reads one MPI from the front of buf and returns it as a
// math/big integer along with the remainder of buf.
func DecodeBigInt(buf []byte) (*big.Int, []byte, error) {
	mag, rest, err := DecodeMPI(buf)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).SetBytes(mag), rest, nil
}

// DecodeFixed reads one MPI from the front of buf and left-pads it to
// exactly n bytes, for fields with a known fixed width (e.g. a 32-byte
// Ed25519-style seed in legacy callers, or a symmetric session key). A
// magnitude longer than n bytes fails with ErrTruncatedMPI.
func DecodeFixed(buf []byte, n int) (key []byte, rest []byte, err error) {
	mag, rest, err := DecodeMPI(buf)
	if err != nil {
		return nil, nil, err
	}
	if len(mag) > n {
		return nil, nil, ErrTruncatedMPI
	}
	out := make([]byte, n)
	copy(out[n-len(mag):], mag)
	return out, rest, nil
}

// Checksum16 computes the 16-bit additive checksum (sum of unsigned bytes
// mod 2^16) used to protect clear and CFB-wrapped secret-key material and
// PKCS#1-wrapped session keys.
func Checksum16(buf []byte) uint16 {
	var sum uint16
	for _, b := range buf {
		sum += uint16(b)
	}
	return sum
}

// PutUint32 is a small convenience wrapper so callers needn't import
// encoding/binary just to write a 32-bit creation time or subpacket field.
func PutUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

// PutUint16 writes v as a 2-byte big-endian field.
func PutUint16(v uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return buf
}

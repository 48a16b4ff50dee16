package bignum

import (
	"bytes"
	"math/big"
	"testing"
)

func TestMPIRoundTrip(t *testing.T) {
	cases := []int64{0, 1, 2, 255, 256, 65535, 1 << 20, 1<<62 - 1}
	for _, v := range cases {
		n := big.NewInt(v)
		encoded := EncodeBigInt(n)
		got, rest, err := DecodeBigInt(encoded)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if len(rest) != 0 {
			t.Fatalf("decode(%d): unexpected trailing bytes %x", v, rest)
		}
		if got.Cmp(n) != 0 {
			t.Fatalf("round trip mismatch: got %s want %s", got, n)
		}
		if v > 0 {
			wantBits := n.BitLen()
			gotBits := int(encoded[0])<<8 | int(encoded[1])
			if gotBits != wantBits {
				t.Fatalf("bit length mismatch for %d: got %d want %d", v, gotBits, wantBits)
			}
		}
	}
}

func TestMPIZeroEncodesAsTwoZeroBytes(t *testing.T) {
	encoded := EncodeBigInt(big.NewInt(0))
	if !bytes.Equal(encoded, []byte{0, 0}) {
		t.Fatalf("zero MPI: got %x want 0000", encoded)
	}
}

func TestDecodeMPITruncated(t *testing.T) {
	_, _, err := DecodeMPI([]byte{0, 16}) // claims 2 bytes, gives zero
	if err != ErrTruncatedMPI {
		t.Fatalf("expected ErrTruncatedMPI, got %v", err)
	}
}

func TestChecksum16(t *testing.T) {
	got := Checksum16([]byte{1, 2, 3, 0xff})
	want := uint16(1 + 2 + 3 + 0xff)
	if got != want {
		t.Fatalf("checksum: got %d want %d", got, want)
	}
}

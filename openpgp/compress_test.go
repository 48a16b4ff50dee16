package openpgp

import (
	"bytes"
	"testing"

	"nullprogram.com/x/openpgp/packet"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 50)

	for _, alg := range []packet.CompressionAlg{packet.CompressionZIP, packet.CompressionZLIB} {
		compressed, err := compressData(alg, data)
		if err != nil {
			t.Fatalf("alg %d: compress: %v", alg, err)
		}
		if len(compressed) >= len(data) {
			t.Fatalf("alg %d: expected compression to shrink repetitive data", alg)
		}
		got, err := decompressData(alg, compressed)
		if err != nil {
			t.Fatalf("alg %d: decompress: %v", alg, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("alg %d: round trip mismatch", alg)
		}
	}
}

func TestCompressNoneIsPassthrough(t *testing.T) {
	data := []byte("hello")
	out, err := compressData(packet.CompressionNone, data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("expected CompressionNone to pass data through unchanged")
	}
}

func TestBZIP2CompressUnsupported(t *testing.T) {
	if _, err := compressData(packet.CompressionBZIP2, []byte("x")); err == nil {
		t.Fatal("expected BZIP2 compression to report UnsupportedAlgorithm")
	}
}

func TestUnregisteredCompressionAlgorithm(t *testing.T) {
	if _, err := compressData(packet.CompressionAlg(99), []byte("x")); err == nil {
		t.Fatal("expected an error for an unregistered compression algorithm id")
	}
}

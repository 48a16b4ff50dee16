// Compression collaborator (spec 6.1): a small per-algorithm-id registry
// wrapping the standard library's flate/zlib/bzip2 packages, the same
// role golang.org/x/crypto plays for ciphers stdlib doesn't carry -- here
// stdlib genuinely is the right collaborator, since compress/flate and
// compress/zlib implement RFC 4880's ZIP/ZLIB algorithms directly and no
// third-party package in the corpus offers anything else for them.
package openpgp

import (
	"bytes"
	"compress/bzip2"
	"compress/flate"
	"compress/zlib"
	"io"

	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/pgperror"
)

// Compressor produces a WriteCloser that compresses bytes written to it
// into w; closing it flushes any trailing compressed output.
type Compressor interface {
	Compress(w io.Writer) (io.WriteCloser, error)
}

// Decompressor wraps r with one that yields decompressed bytes.
type Decompressor interface {
	Decompress(r io.Reader) (io.Reader, error)
}

type flateCodec struct{}

func (flateCodec) Compress(w io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(w, flate.DefaultCompression)
}

func (flateCodec) Decompress(r io.Reader) (io.Reader, error) {
	return flate.NewReader(r), nil
}

type zlibCodec struct{}

func (zlibCodec) Compress(w io.Writer) (io.WriteCloser, error) {
	return zlib.NewWriterLevel(w, zlib.DefaultCompression)
}

func (zlibCodec) Decompress(r io.Reader) (io.Reader, error) {
	return zlib.NewReader(r)
}

type bzip2Codec struct{}

func (bzip2Codec) Compress(w io.Writer) (io.WriteCloser, error) {
	return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: BZIP2 compression is not supported, decompress-only")
}

func (bzip2Codec) Decompress(r io.Reader) (io.Reader, error) {
	return bzip2.NewReader(r), nil
}

var compressors = map[packet.CompressionAlg]interface {
	Compressor
	Decompressor
}{
	packet.CompressionZIP:   flateCodec{},
	packet.CompressionZLIB:  zlibCodec{},
	packet.CompressionBZIP2: bzip2Codec{},
}

// compressorFor returns the Compress/Decompress collaborator for a
// compression algorithm id, or UnsupportedAlgorithm for an unregistered id.
func compressorFor(alg packet.CompressionAlg) (interface {
	Compressor
	Decompressor
}, error) {
	c, ok := compressors[alg]
	if !ok {
		return nil, pgperror.New(pgperror.UnsupportedAlgorithm, "openpgp: unregistered compression algorithm")
	}
	return c, nil
}

// compressData compresses data under alg (CompressionNone is a no-op, just
// returning data unchanged).
func compressData(alg packet.CompressionAlg, data []byte) ([]byte, error) {
	if alg == packet.CompressionNone {
		return data, nil
	}
	c, err := compressorFor(alg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	wc, err := c.Compress(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := wc.Write(data); err != nil {
		return nil, err
	}
	if err := wc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressData decompresses data under alg (CompressionNone is a no-op).
func decompressData(alg packet.CompressionAlg, data []byte) ([]byte, error) {
	if alg == packet.CompressionNone {
		return data, nil
	}
	c, err := compressorFor(alg)
	if err != nil {
		return nil, err
	}
	r, err := c.Decompress(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

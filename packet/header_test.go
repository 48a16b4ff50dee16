package packet

import (
	"bytes"
	"testing"
)

// New-format 1-octet length: spec end-to-end scenario 1.
func TestReadNewFormat1OctetLength(t *testing.T) {
	in := []byte{0xc6, 0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f}
	p, err := ReadPacket(bytes.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if p.Tag != TagPublicKey || p.Format != NewFormat || string(p.Body) != "Hello" {
		t.Fatalf("got tag=%d format=%v body=%q", p.Tag, p.Format, p.Body)
	}

	var out bytes.Buffer
	if err := Write(&out, p, WriteOptions{ForceNewFormat: p.Format == NewFormat}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), in) {
		t.Fatalf("re-serialize mismatch: got % x want % x", out.Bytes(), in)
	}
}

// Old-format 2-octet length: spec end-to-end scenario 2.
func TestReadOldFormat2OctetLength(t *testing.T) {
	in := []byte{0x89, 0x00, 0x04, 0xde, 0xad, 0xbe, 0xef}
	p, err := ReadPacket(bytes.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if p.Tag != TagSignature || p.Format != OldFormat || !bytes.Equal(p.Body, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("got tag=%d format=%v body=% x", p.Tag, p.Format, p.Body)
	}
}

func TestPartialBodyReassembly(t *testing.T) {
	// Tag 11 (Literal Data) allows partial framing. With chunks of size 1
	// (2^0), the 10-byte body is written as nine partial chunks and a final
	// non-partial 1-byte chunk.
	body := []byte("ABCDEFGHIJ")
	p := &Packet{Tag: TagLiteralData, Body: body}

	var buf bytes.Buffer
	if err := Write(&buf, p, WriteOptions{PartialChunkSize: 1}); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPacket(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Body, body) {
		t.Fatalf("partial reassembly mismatch: got %q want %q", got.Body, body)
	}
}

func TestWriteChoosesOldFormatByDefault(t *testing.T) {
	p := &Packet{Tag: TagUserID, Body: []byte("a")}
	var buf bytes.Buffer
	if err := Write(&buf, p, WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	if buf.Bytes()[0]&0x40 != 0 {
		t.Fatalf("expected old-format header, got %#x", buf.Bytes()[0])
	}
}

func TestWriteForcesNewFormatForHighTags(t *testing.T) {
	p := &Packet{Tag: TagUserAttribute, Body: []byte("x")} // tag 17 > 15
	var buf bytes.Buffer
	if err := Write(&buf, p, WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	if buf.Bytes()[0]&0x40 == 0 {
		t.Fatalf("expected new-format header for tag > 15, got %#x", buf.Bytes()[0])
	}
}

func TestPartialBodyRejectedOnDisallowedTag(t *testing.T) {
	p := &Packet{Tag: TagUserID, Body: []byte("abc")}
	var buf bytes.Buffer
	err := Write(&buf, p, WriteOptions{PartialChunkSize: 1})
	if err == nil {
		t.Fatal("expected UnknownPartial error for partial framing on Tag 13")
	}
}

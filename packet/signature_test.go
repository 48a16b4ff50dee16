package packet

import (
	"bytes"
	"testing"
)

func TestSubpacketRoundTrip(t *testing.T) {
	subs := []Subpacket{
		{Type: SubpacketSignatureCreationTime, Critical: false, Data: []byte{0, 0, 0, 1}},
		{Type: SubpacketIssuer, Critical: true, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	}
	area := encodeSubpackets(subs)
	// area = 2-byte length prefix + body
	n := int(area[0])<<8 | int(area[1])
	if n != len(area)-2 {
		t.Fatalf("area length prefix mismatch: got %d want %d", n, len(area)-2)
	}
	got, err := parseSubpackets(area[2:])
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 subpackets, got %d", len(got))
	}
	if got[0].Type != SubpacketSignatureCreationTime || got[0].Critical {
		t.Fatalf("subpacket 0 mismatch: %+v", got[0])
	}
	if got[1].Type != SubpacketIssuer || !got[1].Critical || !bytes.Equal(got[1].Data, subs[1].Data) {
		t.Fatalf("subpacket 1 mismatch: %+v", got[1])
	}
}

func sampleV4Signature() *Signature {
	return &Signature{
		Version: 4,
		SigType: SigBinaryDocument,
		PKA:     PKADSA,
		HashAlg: 2, // SHA-1
		HashedSubpackets: []Subpacket{
			{Type: SubpacketSignatureCreationTime, Data: []byte{0x5f, 0, 0, 0}},
		},
		UnhashedSubpackets: []Subpacket{
			{Type: SubpacketIssuer, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
		Left16: 0xbeef,
		MPIs:   [][]byte{{0x01, 0x02}, {0x03, 0x04, 0x05}},
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	s := sampleV4Signature()
	body := s.Body()
	got, err := ParseSignature(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 4 || got.SigType != SigBinaryDocument || got.PKA != PKADSA {
		t.Fatalf("header mismatch: %+v", got)
	}
	if got.Left16 != s.Left16 {
		t.Fatalf("left16 mismatch: got %x want %x", got.Left16, s.Left16)
	}
	if len(got.MPIs) != 2 || !bytes.Equal(got.MPIs[0], s.MPIs[0]) || !bytes.Equal(got.MPIs[1], s.MPIs[1]) {
		t.Fatalf("MPI mismatch: got %+v", got.MPIs)
	}
	if len(got.HashedSubpackets) != 1 || got.HashedSubpackets[0].Type != SubpacketSignatureCreationTime {
		t.Fatalf("hashed subpackets mismatch: %+v", got.HashedSubpackets)
	}
}

func TestSignatureTrailerLength(t *testing.T) {
	s := sampleV4Signature()
	trailer := s.Trailer()
	// version, type, pka, hash, hashed-area(2+len), 0x04 0xFF, 4-byte length
	hashedArea := s.hashedAreaBytes()
	wantLen := 4 + len(hashedArea) + 6
	if len(trailer) != wantLen {
		t.Fatalf("trailer length: got %d want %d", len(trailer), wantLen)
	}
	if trailer[len(trailer)-6] != 0x04 || trailer[len(trailer)-5] != 0xff {
		t.Fatalf("trailer missing 0x04 0xFF marker: % x", trailer[len(trailer)-6:])
	}
}

func TestPKESKRoundTrip(t *testing.T) {
	p := &PKESK{
		PKA:     PKARSAEncryptSign,
		EncMPIs: [][]byte{{0xaa, 0xbb, 0xcc}},
	}
	copy(p.KeyID[:], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	got, err := ParsePKESK(p.Body())
	if err != nil {
		t.Fatal(err)
	}
	if got.KeyID != p.KeyID || got.PKA != p.PKA {
		t.Fatalf("header mismatch: %+v", got)
	}
	if !bytes.Equal(got.EncMPIs[0], p.EncMPIs[0]) {
		t.Fatalf("MPI mismatch: got %x want %x", got.EncMPIs[0], p.EncMPIs[0])
	}
}

func TestLiteralDataRoundTripAndConsoleFlag(t *testing.T) {
	l := &LiteralData{
		Format:          FormatBinary,
		Filename:        "test.txt",
		CreationTime:    0x12345678,
		Data:            []byte("hello\n"),
		ForYourEyesOnly: false,
	}
	got, err := ParseLiteralData(l.Raw())
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "test.txt" || !bytes.Equal(got.Data, l.Data) || got.CreationTime != l.CreationTime {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	l2 := &LiteralData{Format: FormatBinary, ForYourEyesOnly: true, Data: []byte("secret")}
	got2, err := ParseLiteralData(l2.Raw())
	if err != nil {
		t.Fatal(err)
	}
	if !got2.ForYourEyesOnly || got2.Filename != "_CONSOLE" {
		t.Fatalf("expected _CONSOLE advisory flag, got %+v", got2)
	}
}

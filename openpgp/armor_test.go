package openpgp

import (
	"bytes"
	"testing"
)

func TestArmorEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0xff, 0x00, 0xaa}
	var buf bytes.Buffer
	if err := Encode(&buf, BlockMessage, map[string]string{"Version": "test"}, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != BlockMessage {
		t.Fatalf("block type mismatch: got %q", decoded.Type)
	}
	if decoded.Headers["Version"] != "test" {
		t.Fatalf("header mismatch: got %+v", decoded.Headers)
	}
	if !bytes.Equal(decoded.Data, data) {
		t.Fatalf("data mismatch: got %x want %x", decoded.Data, data)
	}
}

func TestArmorDecodeRejectsCorruptCRC(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, BlockMessage, nil, []byte("hello")); err != nil {
		t.Fatal(err)
	}

	lines := bytes.Split(buf.Bytes(), []byte("\n"))
	found := false
	for i, line := range lines {
		if bytes.HasPrefix(line, []byte("=")) {
			lines[i] = []byte("=AAAA")
			found = true
			break
		}
	}
	if !found {
		t.Fatal("could not locate the CRC24 line in armored output")
	}
	corrupted := bytes.Join(lines, []byte("\n"))

	if _, err := Decode(bytes.NewReader(corrupted)); err == nil {
		t.Fatal("expected a corrupted CRC24 line to be rejected")
	}
}

func TestCleartextEncodeDecodeRoundTrip(t *testing.T) {
	signer := testDSASigningKey(t)
	text := []byte("Line one\n-Line starting with a dash\nLine three\n")

	cs, err := Clearsign(signer, text, 0x5f000004)
	if err != nil {
		t.Fatalf("Clearsign: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeCleartext(&buf, cs); err != nil {
		t.Fatalf("EncodeCleartext: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("- -Line starting with a dash")) {
		t.Fatalf("expected dash-escaping of a line starting with '-': %s", buf.String())
	}

	decoded, err := DecodeCleartext(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeCleartext: %v", err)
	}
	if !bytes.Equal(decoded.Text, text) {
		t.Fatalf("text mismatch: got %q want %q", decoded.Text, text)
	}

	result, err := Verify(decoded.Signature, signer.Secret.Public, PreimageInput{Data: decoded.Text})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result != VerifyValid {
		t.Fatalf("expected decoded cleartext signature to verify, got %v", result)
	}
}

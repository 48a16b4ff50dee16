package packet

import (
	"encoding/binary"

	"nullprogram.com/x/openpgp/pgperror"
)

// SubpacketType is a v4 signature subpacket type id (RFC 4880 section
// 5.2.3.1). Only the ids this implementation constructs or inspects are
// named; unrecognized types round-trip as opaque Data.
type SubpacketType byte

const (
	SubpacketSignatureCreationTime SubpacketType = 2
	SubpacketSignatureExpiration   SubpacketType = 3
	SubpacketKeyExpiration         SubpacketType = 9
	SubpacketIssuer                SubpacketType = 16
	SubpacketKeyFlags              SubpacketType = 27
	SubpacketPreferredSymAlgs      SubpacketType = 11
	SubpacketPreferredHashAlgs     SubpacketType = 21
	SubpacketRevocationReason      SubpacketType = 29
)

// Subpacket is one length-prefixed entry of a signature's hashed or
// unhashed subpacket area.
type Subpacket struct {
	Type     SubpacketType
	Critical bool
	Data     []byte
}

// parseSubpacketLength reads one subpacket-area length field (RFC 4880
// 5.2.3.1, the same 1/2/5-byte scheme as packet new-format lengths, minus
// partial bodies) from the front of buf.
func parseSubpacketLength(buf []byte) (n int, rest []byte, err error) {
	if len(buf) < 1 {
		return 0, nil, pgperror.New(pgperror.MalformedHeader, "packet: truncated subpacket length")
	}
	l1 := buf[0]
	switch {
	case l1 < 192:
		return int(l1), buf[1:], nil
	case l1 <= 223:
		if len(buf) < 2 {
			return 0, nil, pgperror.New(pgperror.MalformedHeader, "packet: truncated subpacket length")
		}
		return (int(l1)-192)<<8 + int(buf[1]) + 192, buf[2:], nil
	default: // 255
		if len(buf) < 5 {
			return 0, nil, pgperror.New(pgperror.MalformedHeader, "packet: truncated subpacket length")
		}
		return int(binary.BigEndian.Uint32(buf[1:5])), buf[5:], nil
	}
}

func encodeSubpacketLength(n int) []byte {
	switch {
	case n < 192:
		return []byte{byte(n)}
	case n <= 8383:
		v := n - 192
		return []byte{byte(v>>8) + 192, byte(v)}
	default:
		out := make([]byte, 5)
		out[0] = 255
		binary.BigEndian.PutUint32(out[1:], uint32(n))
		return out
	}
}

// parseSubpackets decodes a full subpacket area (the bytes immediately
// following its own 2-byte length prefix) into individual Subpackets.
func parseSubpackets(area []byte) ([]Subpacket, error) {
	var subs []Subpacket
	for len(area) > 0 {
		n, rest, err := parseSubpacketLength(area)
		if err != nil {
			return nil, err
		}
		if n < 1 || len(rest) < n {
			return nil, pgperror.New(pgperror.MalformedHeader, "packet: subpacket body truncated")
		}
		body := rest[:n]
		typeOctet := body[0]
		subs = append(subs, Subpacket{
			Type:     SubpacketType(typeOctet & 0x7f),
			Critical: typeOctet&0x80 != 0,
			Data:     body[1:],
		})
		area = rest[n:]
	}
	return subs, nil
}

// encodeSubpackets serializes subs into one subpacket area, including its
// own 2-byte area-length prefix.
func encodeSubpackets(subs []Subpacket) []byte {
	var body []byte
	for _, s := range subs {
		typeOctet := byte(s.Type)
		if s.Critical {
			typeOctet |= 0x80
		}
		entry := append([]byte{typeOctet}, s.Data...)
		body = append(body, encodeSubpacketLength(len(entry))...)
		body = append(body, entry...)
	}
	out := make([]byte, 2, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(body)))
	return append(out, body...)
}

// Find returns the first subpacket of type t, if present, from either the
// hashed or unhashed area it's given.
func Find(subs []Subpacket, t SubpacketType) (Subpacket, bool) {
	for _, s := range subs {
		if s.Type == t {
			return s, true
		}
	}
	return Subpacket{}, false
}

package packet

import (
	"encoding/binary"

	"nullprogram.com/x/openpgp/pgperror"
)

// LiteralFormat is the Literal Data packet's format octet (RFC 4880
// section 5.9).
type LiteralFormat byte

const (
	FormatBinary LiteralFormat = 'b'
	FormatText   LiteralFormat = 't'
	FormatUTF8   LiteralFormat = 'u'
)

// consoleFilename is the magic filename original_source/Packets/Tag11.cpp
// treats as a "for your eyes only" advisory (and logs a warning for); this
// package surfaces it as the ForYourEyesOnly flag on LiteralData instead of
// logging, leaving any warning policy to the driver.
const consoleFilename = "_CONSOLE"

// LiteralData is the decoded form of a Tag 11 packet.
type LiteralData struct {
	Format          LiteralFormat
	Filename        string
	CreationTime    uint32
	Data            []byte
	ForYourEyesOnly bool
}

// ParseLiteralData decodes a Tag 11 packet body.
func ParseLiteralData(body []byte) (*LiteralData, error) {
	if len(body) < 1+1+4 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: literal data body too short")
	}
	format := LiteralFormat(body[0])
	nameLen := int(body[1])
	if len(body) < 2+nameLen+4 {
		return nil, pgperror.New(pgperror.MalformedHeader, "packet: literal data filename truncated")
	}
	name := string(body[2 : 2+nameLen])
	rest := body[2+nameLen:]
	creation := binary.BigEndian.Uint32(rest[:4])
	data := rest[4:]

	return &LiteralData{
		Format:          format,
		Filename:        name,
		CreationTime:    creation,
		Data:            data,
		ForYourEyesOnly: name == consoleFilename,
	}, nil
}

// Raw serializes l back to a Tag 11 packet body, in the field order
// original_source/Packets/Tag11.cpp's raw() uses: format, filename length
// + filename, creation time, data.
func (l *LiteralData) Raw() []byte {
	name := l.Filename
	if l.ForYourEyesOnly {
		name = consoleFilename
	}
	out := make([]byte, 0, 1+1+len(name)+4+len(l.Data))
	out = append(out, byte(l.Format), byte(len(name)))
	out = append(out, name...)
	out = append(out, byte(l.CreationTime>>24), byte(l.CreationTime>>16), byte(l.CreationTime>>8), byte(l.CreationTime))
	out = append(out, l.Data...)
	return out
}

// Packet wraps l as a Tag 11 Packet with Format set to NewFormat.
func (l *LiteralData) Packet() *Packet {
	return &Packet{Tag: TagLiteralData, Format: NewFormat, Body: l.Raw()}
}

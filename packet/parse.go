package packet

// Decode dispatches p by tag to its semantic body type (spec 9's
// "polymorphism over packet tags", realized as a sum type rather than a
// class hierarchy). Unrecognized tags, including 60-63, decode to *Opaque
// rather than failing, per spec 4.1.
func Decode(p *Packet) (interface{}, error) {
	switch p.Tag {
	case TagPKESK:
		return ParsePKESK(p.Body)
	case TagSignature:
		return ParseSignature(p.Body)
	case TagSKESK:
		return ParseSKESK(p.Body)
	case TagOnePassSignature:
		return ParseOnePassSignature(p.Body)
	case TagSecretKey:
		return ParseSecretKey(p.Body, false)
	case TagPublicKey:
		return ParsePublicKey(p.Body, false)
	case TagSecretSubkey:
		return ParseSecretKey(p.Body, true)
	case TagCompressedData:
		return ParseCompressedData(p.Body)
	case TagSymEncrypted:
		return ParseSymEncryptedData(p.Body), nil
	case TagMarker:
		return ParseMarker(p.Body)
	case TagLiteralData:
		return ParseLiteralData(p.Body)
	case TagTrust:
		return ParseTrust(p.Body), nil
	case TagUserID:
		return ParseUserID(p.Body), nil
	case TagPublicSubkey:
		return ParsePublicKey(p.Body, true)
	case TagUserAttribute:
		return ParseUserAttribute(p.Body)
	case TagSEIPD:
		return ParseSEIPD(p.Body)
	case TagMDC:
		return ParseMDC(p.Body)
	default:
		return AsOpaque(p), nil
	}
}

package ipv4

// Packet is an IPv4 header paired with its payload.
type Packet struct {
	Header  Header
	Payload []byte
}

// NewPacket builds a packet with TotalLength set from the header and
// payload, encoding the header immediately so its checksum reflects the
// final field values.
func NewPacket(h Header, payload []byte) Packet {
	h.TotalLength = uint16(h.HeaderLen() + len(payload))
	if chk, err := h.computedChecksum(); err == nil {
		h.Checksum = chk
	}
	return Packet{Header: h, Payload: payload}
}

// Encode serializes the header followed by the payload.
func (p Packet) Encode() ([]byte, error) {
	hdr, err := p.Header.Encode()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(hdr)+len(p.Payload))
	out = append(out, hdr...)
	out = append(out, p.Payload...)
	return out, nil
}

// Decode parses a header from the front of data and treats the remainder,
// truncated to the header's declared TotalLength, as the payload.
func Decode(data []byte) (Packet, error) {
	h, consumed, err := DecodeHeader(data)
	if err != nil {
		return Packet{}, err
	}
	total := int(h.TotalLength)
	if total < consumed || total > len(data) {
		total = len(data)
	}
	payload := append([]byte(nil), data[consumed:total]...)
	return Packet{Header: h, Payload: payload}, nil
}

// Forward decrements TTL and recomputes the header checksum, per spec.md
// §4.6's router forwarding step. It returns ErrTTLExceeded if the TTL
// would reach zero, leaving p unmodified.
func (p *Packet) Forward() error {
	return p.Header.DecrementTTL()
}

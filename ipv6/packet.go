package ipv6

// Packet is an IPv6 header paired with its payload. IPv6 carries no header
// checksum (RFC 8200 §8.1 delegates integrity entirely to upper layers and
// the link), so encode/decode here is a plain concatenation/split.
type Packet struct {
	Header  Header
	Payload []byte
}

// NewPacket builds a packet with PayloadLen set from payload.
func NewPacket(h Header, payload []byte) Packet {
	h.PayloadLen = uint16(len(payload))
	return Packet{Header: h, Payload: payload}
}

// Encode serializes the header followed by the payload.
func (p Packet) Encode() []byte {
	hdr := p.Header.Encode()
	out := make([]byte, 0, len(hdr)+len(p.Payload))
	out = append(out, hdr...)
	out = append(out, p.Payload...)
	return out
}

// Decode parses a header from the front of data, taking PayloadLen bytes
// of payload after it.
func Decode(data []byte) (Packet, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Packet{}, err
	}
	end := headerLen + int(h.PayloadLen)
	if end > len(data) {
		end = len(data)
	}
	payload := append([]byte(nil), data[headerLen:end]...)
	return Packet{Header: h, Payload: payload}, nil
}

// Forward decrements the hop limit, per spec.md §4.6's forwarding step.
func (p *Packet) Forward() error {
	return p.Header.DecrementHopLimit()
}

package mqttv5

import (
	"errors"
	"io"
)

// ErrPacketTooLarge is returned when a packet's Remaining Length exceeds the
// configured maximum.
var ErrPacketTooLarge = errors.New("mqttv5: packet exceeds maximum size")

// readFixedHeaderAndBody reads one packet's fixed header and then exactly
// RemainingLength bytes of body from r. This is the byte-window framing
// contract PublishDecoder.Decode assumes: the caller reads the header and
// body here, and for PacketPUBLISH hands the body and header.Flags to the
// decoder directly rather than running it through a generic packet decode.
func readFixedHeaderAndBody(r io.Reader, maxSize uint32) (FixedHeader, []byte, int, error) {
	var header FixedHeader
	n, err := header.Decode(r)
	if err != nil {
		return header, nil, n, err
	}

	if maxSize > 0 && header.RemainingLength > maxSize {
		return header, nil, n, ErrPacketTooLarge
	}

	body := make([]byte, header.RemainingLength)
	if header.RemainingLength > 0 {
		rn, err := io.ReadFull(r, body)
		n += rn
		if err != nil {
			return header, nil, n, err
		}
	}

	return header, body, n, nil
}

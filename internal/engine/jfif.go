package engine

import "encoding/binary"

// withJFIFHeader returns data with an APP0 JFIF segment carrying ppi as dots
// per inch and, when profile is set, APP2 ICC segments right after it. An
// existing JFIF segment is patched in place.
func withJFIFHeader(data []byte, ppi int, profile []byte) []byte {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return data
	}
	density := uint16(1)
	units := byte(0)
	if ppi > 0 {
		density = uint16(min(ppi, 0xFFFF))
		units = 1
	}

	if len(data) >= 20 && data[2] == 0xFF && data[3] == 0xE0 && string(data[6:11]) == "JFIF\x00" {
		out := append([]byte(nil), data...)
		out[13] = units
		binary.BigEndian.PutUint16(out[14:16], density)
		binary.BigEndian.PutUint16(out[16:18], density)
		if len(profile) == 0 {
			return out
		}
		segEnd := 4 + int(binary.BigEndian.Uint16(out[4:6]))
		head := append([]byte(nil), out[:segEnd]...)
		head = appendICCSegments(head, profile)
		return append(head, out[segEnd:]...)
	}

	out := make([]byte, 0, len(data)+18+len(profile)+32)
	out = append(out, 0xFF, 0xD8)
	out = append(out, 0xFF, 0xE0, 0x00, 0x10)
	out = append(out, 'J', 'F', 'I', 'F', 0x00)
	out = append(out, 0x01, 0x01, units)
	out = binary.BigEndian.AppendUint16(out, density)
	out = binary.BigEndian.AppendUint16(out, density)
	out = append(out, 0x00, 0x00)
	if len(profile) > 0 {
		out = appendICCSegments(out, profile)
	}
	return append(out, data[2:]...)
}

// jfifDensity reads the pixels-per-inch recorded in an APP0 JFIF segment.
func jfifDensity(data []byte) (int, bool) {
	ppi, found := 0, false
	walkJPEGSegments(data, func(marker byte, payload []byte) bool {
		if marker == 0xE0 && len(payload) >= 12 && string(payload[:5]) == "JFIF\x00" {
			if payload[7] == 1 {
				ppi = int(binary.BigEndian.Uint16(payload[8:10]))
				found = true
			}
			return false
		}
		return marker != 0xDA
	})
	return ppi, found
}

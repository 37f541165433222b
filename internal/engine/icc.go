package engine

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	iccMarker    = "ICC_PROFILE\x00"
	iccChunkMax  = 65535 - 2 - len(iccMarker) - 2
	pngSignature = "\x89PNG\r\n\x1a\n"
)

// jpegICC reassembles an ICC profile split across APP2 segments.
func jpegICC(data []byte) []byte {
	chunks := map[int][]byte{}
	walkJPEGSegments(data, func(marker byte, payload []byte) bool {
		if marker == 0xE2 && len(payload) > len(iccMarker)+2 && string(payload[:len(iccMarker)]) == iccMarker {
			seq := int(payload[len(iccMarker)])
			chunks[seq] = payload[len(iccMarker)+2:]
		}
		return marker != 0xDA
	})
	if len(chunks) == 0 {
		return nil
	}
	seqs := make([]int, 0, len(chunks))
	for k := range chunks {
		seqs = append(seqs, k)
	}
	sort.Ints(seqs)
	var out []byte
	for _, k := range seqs {
		out = append(out, chunks[k]...)
	}
	return out
}

// walkJPEGSegments visits marker segments after SOI until fn returns false
// or the data ends.
func walkJPEGSegments(data []byte, fn func(marker byte, payload []byte) bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return
		}
		marker := data[i+1]
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		n := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if n < 2 || i+2+n > len(data) {
			return
		}
		if !fn(marker, data[i+4:i+2+n]) {
			return
		}
		i += 2 + n
	}
}

// pngICC returns the decompressed iCCP profile and whether the file declares
// sRGB through an sRGB chunk instead.
func pngICC(data []byte) (profile []byte, srgb bool) {
	if !bytes.HasPrefix(data, []byte(pngSignature)) {
		return nil, false
	}
	i := len(pngSignature)
	for i+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		if n < 0 || i+12+n > len(data) {
			return nil, false
		}
		body := data[i+8 : i+8+n]
		switch typ {
		case "iCCP":
			nul := bytes.IndexByte(body, 0)
			if nul < 0 || nul+2 > len(body) {
				return nil, false
			}
			zr, err := zlib.NewReader(bytes.NewReader(body[nul+2:]))
			if err != nil {
				return nil, false
			}
			raw, err := io.ReadAll(zr)
			_ = zr.Close()
			if err != nil {
				return nil, false
			}
			return raw, false
		case "sRGB":
			return nil, true
		case "IDAT", "IEND":
			return nil, false
		}
		i += 12 + n
	}
	return nil, false
}

// iccDescription reads the 'desc' tag of an ICC profile (v2 text or v4 mluc).
func iccDescription(profile []byte) string {
	if len(profile) < 132 {
		return ""
	}
	count := int(binary.BigEndian.Uint32(profile[128:132]))
	for t := 0; t < count; t++ {
		base := 132 + t*12
		if base+12 > len(profile) {
			return ""
		}
		if string(profile[base:base+4]) != "desc" {
			continue
		}
		off := int(binary.BigEndian.Uint32(profile[base+4 : base+8]))
		size := int(binary.BigEndian.Uint32(profile[base+8 : base+12]))
		if off < 0 || size < 12 || off+size > len(profile) {
			return ""
		}
		return decodeDescTag(profile[off : off+size])
	}
	return ""
}

func decodeDescTag(tag []byte) string {
	switch string(tag[:4]) {
	case "desc":
		n := int(binary.BigEndian.Uint32(tag[8:12]))
		if n <= 0 || 12+n > len(tag) {
			return ""
		}
		return strings.TrimRight(string(tag[12:12+n]), "\x00")
	case "mluc":
		if len(tag) < 28 {
			return ""
		}
		records := int(binary.BigEndian.Uint32(tag[8:12]))
		if records < 1 {
			return ""
		}
		n := int(binary.BigEndian.Uint32(tag[20:24]))
		off := int(binary.BigEndian.Uint32(tag[24:28]))
		if off+n > len(tag) {
			return ""
		}
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		text, err := dec.Bytes(tag[off : off+n])
		if err != nil {
			return ""
		}
		return strings.TrimRight(string(text), "\x00")
	}
	return ""
}

// appendICCSegments encodes profile as APP2 segments.
func appendICCSegments(dst, profile []byte) []byte {
	total := (len(profile) + iccChunkMax - 1) / iccChunkMax
	if total > 255 {
		return dst
	}
	for seq := 1; len(profile) > 0; seq++ {
		n := min(len(profile), iccChunkMax)
		segLen := 2 + len(iccMarker) + 2 + n
		dst = append(dst, 0xFF, 0xE2, byte(segLen>>8), byte(segLen))
		dst = append(dst, iccMarker...)
		dst = append(dst, byte(seq), byte(total))
		dst = append(dst, profile[:n]...)
		profile = profile[n:]
	}
	return dst
}

package codec

import "encoding/binary"

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerDQT  = 0xDB
	markerAPP1 = 0xE1

	tagOrientation = 0x0112
	typeShort      = 3
)

// ReadOrientation returns the EXIF orientation of a JPEG, or 1 when the tag
// is missing or unreadable.
func ReadOrientation(data []byte) int {
	var orientation int
	walkJPEGSegments(data, func(marker byte, seg []byte) bool {
		if marker != markerAPP1 || len(seg) < 6 || string(seg[:6]) != "Exif\x00\x00" {
			return true
		}
		orientation = parseTIFFOrientation(seg[6:])
		return false
	})
	if orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

// walkJPEGSegments calls fn with each marker segment payload up to the
// start of scan. fn returns false to stop.
func walkJPEGSegments(b []byte, fn func(marker byte, seg []byte) bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1] != markerSOI {
		return
	}
	i := 2
	for i+4 <= len(b) {
		if b[i] != 0xFF {
			return
		}
		marker := b[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		i += 2
		if marker == markerEOI || marker == markerSOS {
			return
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			continue
		}

		segLen := int(binary.BigEndian.Uint16(b[i : i+2]))
		if segLen < 2 || i+segLen > len(b) {
			return
		}
		if !fn(marker, b[i+2:i+segLen]) {
			return
		}
		i += segLen
	}
}

func parseTIFFOrientation(tiff []byte) int {
	if len(tiff) < 8 {
		return 0
	}

	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0
	}
	if order.Uint16(tiff[2:4]) != 42 {
		return 0
	}

	ifd := int(order.Uint32(tiff[4:8]))
	if ifd < 8 || ifd+2 > len(tiff) {
		return 0
	}
	count := int(order.Uint16(tiff[ifd : ifd+2]))
	off := ifd + 2
	for n := 0; n < count && off+12 <= len(tiff); n++ {
		if order.Uint16(tiff[off:off+2]) == tagOrientation {
			if order.Uint16(tiff[off+2:off+4]) != typeShort {
				return 0
			}
			return int(order.Uint16(tiff[off+8 : off+10]))
		}
		off += 12
	}
	return 0
}

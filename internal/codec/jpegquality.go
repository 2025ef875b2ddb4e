package codec

// Standard luminance quantization table in zig-zag order, as written by
// libjpeg-compatible encoders.
var stdLuminanceQuant = [64]int{
	16, 11, 12, 14, 12, 10, 16, 14, 13, 14, 18, 17, 16, 19, 24, 40,
	26, 24, 22, 22, 24, 49, 35, 37, 29, 40, 58, 51, 61, 60, 57, 51,
	56, 55, 64, 72, 92, 78, 64, 68, 87, 69, 55, 56, 80, 109, 81, 87,
	95, 98, 103, 104, 103, 62, 77, 113, 121, 112, 100, 120, 92, 101, 103, 99,
}

// EstimateJPEGQuality finds the quality setting whose scaled standard table
// is closest to the file's luminance table. Zero means unknown.
func EstimateJPEGQuality(data []byte) int {
	table, ok := luminanceTable(data)
	if !ok {
		return 0
	}

	best, bestDiff := 0, -1
	for q := 1; q <= 100; q++ {
		diff := 0
		for i, v := range scaledQuant(q) {
			d := v - table[i]
			if d < 0 {
				d = -d
			}
			diff += d
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = q, diff
		}
	}
	return best
}

func scaledQuant(q int) [64]int {
	scale := 200 - 2*q
	if q < 50 {
		scale = 5000 / q
	}
	var out [64]int
	for i, v := range stdLuminanceQuant {
		out[i] = min(max((v*scale+50)/100, 1), 255)
	}
	return out
}

func luminanceTable(data []byte) ([64]int, bool) {
	var (
		table [64]int
		found bool
	)
	walkJPEGSegments(data, func(marker byte, seg []byte) bool {
		if marker != markerDQT {
			return true
		}
		for len(seg) > 0 {
			precision, id := seg[0]>>4, seg[0]&0x0F
			size := 64
			if precision == 1 {
				size = 128
			}
			if len(seg) < 1+size {
				return false
			}
			if id == 0 {
				for i := 0; i < 64; i++ {
					if precision == 1 {
						table[i] = int(seg[1+2*i])<<8 | int(seg[2+2*i])
					} else {
						table[i] = int(seg[1+i])
					}
				}
				found = true
				return false
			}
			seg = seg[1+size:]
		}
		return true
	})
	return table, found
}

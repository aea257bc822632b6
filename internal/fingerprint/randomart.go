package fingerprint

import "strings"

// Drunken-bishop randomart, OpenSSH style: a biased walk over a 17x9 grid
// driven by 2-bit chunks of each hash byte (least significant first), with
// a glyph per visit count and S/E marking the start and end cells.
const (
	artWidth  = 17
	artHeight = 9
)

// glyph ramp indexed by visit count; the walk clamps at the last glyph.
const artGlyphs = " .o+=*BOX@%&#/^"

func randomart(hash []byte) string {
	var grid [artHeight][artWidth]int
	x, y := artWidth/2, artHeight/2
	startX, startY := x, y

	for _, b := range hash {
		for step := 0; step < 4; step++ {
			// bit0: left/right, bit1: up/down
			if b&0x1 != 0 {
				x++
			} else {
				x--
			}
			if b&0x2 != 0 {
				y++
			} else {
				y--
			}
			x = clamp(x, 0, artWidth-1)
			y = clamp(y, 0, artHeight-1)
			grid[y][x]++
			b >>= 2
		}
	}
	endX, endY := x, y

	var sb strings.Builder
	sb.WriteString("+" + strings.Repeat("-", artWidth) + "+\n")
	for row := 0; row < artHeight; row++ {
		sb.WriteByte('|')
		for col := 0; col < artWidth; col++ {
			switch {
			case row == startY && col == startX:
				sb.WriteByte('S')
			case row == endY && col == endX:
				sb.WriteByte('E')
			default:
				n := grid[row][col]
				if n >= len(artGlyphs) {
					n = len(artGlyphs) - 1
				}
				sb.WriteByte(artGlyphs[n])
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("+" + strings.Repeat("-", artWidth) + "+")
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

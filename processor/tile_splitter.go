package processor

// TileRect is one unit of independent tile work on the output grid:
// a pixel rectangle with its top-left corner at (OffX, OffY).
type TileRect struct {
	OffX, OffY    int
	Width, Height int
}

// SplitTiles partitions a width*height grid into tiles of at most
// tileSize*tileSize pixels. Edge tiles are clipped to the grid, the
// rectangles cover every pixel exactly once.
func SplitTiles(width, height, tileSize int) []TileRect {
	if tileSize <= 0 {
		tileSize = 256
	}
	out := []TileRect{}
	for y := 0; y < height; y += tileSize {
		th := tileSize
		if y+th > height {
			th = height - y
		}
		for x := 0; x < width; x += tileSize {
			tw := tileSize
			if x+tw > width {
				tw = width - x
			}
			out = append(out, TileRect{OffX: x, OffY: y, Width: tw, Height: th})
		}
	}
	return out
}

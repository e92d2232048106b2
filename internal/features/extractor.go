// Package features computes normalized perceptual feature maps from decoded
// video frames for the surprise engine. It is a lightweight, pure-Go stand-in
// for a full saliency front end: frames are pooled into a coarse cell grid
// and each channel is derived from per-cell luminance and color statistics.
package features

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kestrel-vision/surprise/internal/surprise"
)

// DefaultCellSize is the square pixel block pooled into one grid cell.
const DefaultCellSize = 8

// Extractor implements surprise.Extractor over image.Image frames.
//
// The extractor keeps the previous frame's luminance grid for the temporal
// channels (flicker, motion), so it is stateful and, like the engine that
// drives it, strictly sequential. A frame size change resets the temporal
// state; the first frame after a reset reports zero flicker and motion.
type Extractor struct {
	cellSize int

	gridW, gridH int
	luma         []float64
	prevLuma     []float64
	red          []float64
	green        []float64
	blue         []float64
}

// NewExtractor returns an extractor pooling cellSize x cellSize pixel
// blocks. Non-positive cellSize falls back to DefaultCellSize.
func NewExtractor(cellSize int) *Extractor {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Extractor{cellSize: cellSize}
}

// ChannelMaps produces one normalized map per requested channel. All maps
// share the grid dimensions derived from the frame. Values are in [0,1].
func (x *Extractor) ChannelMaps(frame image.Image, channels surprise.ChannelSet) (map[surprise.Channel]*surprise.FeatureMap, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	b := frame.Bounds()
	if b.Dx() < x.cellSize || b.Dy() < x.cellSize {
		return nil, fmt.Errorf("frame %dx%d smaller than cell size %d", b.Dx(), b.Dy(), x.cellSize)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels requested")
	}

	x.pool(frame)

	out := make(map[surprise.Channel]*surprise.FeatureMap, len(channels))
	for _, ch := range channels {
		var vals []float64
		switch ch {
		case surprise.ChannelIntensity:
			vals = append([]float64(nil), x.luma...)
		case surprise.ChannelColor:
			vals = x.colorMap()
		case surprise.ChannelOrientation:
			vals = x.orientationMap()
		case surprise.ChannelFlicker:
			vals = x.flickerMap()
		case surprise.ChannelMotion:
			vals = x.motionMap()
		case surprise.ChannelGist:
			vals = x.gistMap()
		case surprise.ChannelSaliency:
			vals = x.saliencyMap()
		default:
			return nil, fmt.Errorf("unknown channel %v", ch)
		}
		clampUnit(vals)
		out[ch] = &surprise.FeatureMap{Width: x.gridW, Height: x.gridH, Values: vals}
	}

	// Current luminance becomes the temporal reference for the next frame.
	if x.prevLuma == nil || len(x.prevLuma) != len(x.luma) {
		x.prevLuma = make([]float64, len(x.luma))
	}
	copy(x.prevLuma, x.luma)

	return out, nil
}

// GridSize returns the current grid dimensions (zero before the first frame).
func (x *Extractor) GridSize() (w, h int) { return x.gridW, x.gridH }

// pool fills the per-cell mean color and luminance grids for the frame.
func (x *Extractor) pool(frame image.Image) {
	b := frame.Bounds()
	gw := b.Dx() / x.cellSize
	gh := b.Dy() / x.cellSize

	if gw != x.gridW || gh != x.gridH {
		x.gridW, x.gridH = gw, gh
		n := gw * gh
		x.luma = make([]float64, n)
		x.red = make([]float64, n)
		x.green = make([]float64, n)
		x.blue = make([]float64, n)
		x.prevLuma = nil // dimensions changed: temporal state is meaningless
	}

	n := gw * gh
	for i := 0; i < n; i++ {
		x.red[i], x.green[i], x.blue[i] = 0, 0, 0
	}

	// Block sums. Pixels beyond the last full cell are ignored.
	for gy := 0; gy < gh; gy++ {
		for gx := 0; gx < gw; gx++ {
			var r, g, bl float64
			x0 := b.Min.X + gx*x.cellSize
			y0 := b.Min.Y + gy*x.cellSize
			for py := 0; py < x.cellSize; py++ {
				for px := 0; px < x.cellSize; px++ {
					cr, cg, cb, _ := frame.At(x0+px, y0+py).RGBA()
					r += float64(cr >> 8)
					g += float64(cg >> 8)
					bl += float64(cb >> 8)
				}
			}
			area := float64(x.cellSize * x.cellSize * 255)
			i := gy*gw + gx
			x.red[i] = r / area
			x.green[i] = g / area
			x.blue[i] = bl / area
		}
	}
	for i := 0; i < n; i++ {
		x.luma[i] = 0.299*x.red[i] + 0.587*x.green[i] + 0.114*x.blue[i]
	}
}

// colorMap is red/green and blue/yellow opponency energy per cell.
func (x *Extractor) colorMap() []float64 {
	out := make([]float64, len(x.luma))
	for i := range out {
		rg := math.Abs(x.red[i] - x.green[i])
		by := math.Abs(0.5*(x.red[i]+x.green[i]) - x.blue[i])
		out[i] = 0.5 * (rg + by)
	}
	return out
}

// orientationMap is local gradient energy of the luminance grid.
func (x *Extractor) orientationMap() []float64 {
	out := make([]float64, len(x.luma))
	for gy := 0; gy < x.gridH; gy++ {
		for gx := 0; gx < x.gridW; gx++ {
			gxv := 0.5 * (x.lumaAt(gx+1, gy) - x.lumaAt(gx-1, gy))
			gyv := 0.5 * (x.lumaAt(gx, gy+1) - x.lumaAt(gx, gy-1))
			out[gy*x.gridW+gx] = math.Hypot(gxv, gyv) / math.Sqrt2
		}
	}
	return out
}

// flickerMap is the absolute luminance change since the previous frame.
func (x *Extractor) flickerMap() []float64 {
	out := make([]float64, len(x.luma))
	if x.prevLuma == nil {
		return out
	}
	for i := range out {
		out[i] = math.Abs(x.luma[i] - x.prevLuma[i])
	}
	return out
}

// motionMap is flicker energy not explained by a one-cell displacement of
// the previous frame. Pure in-place flicker (a blinking light) scores on
// the flicker channel and mostly cancels here; translating content leaves a
// residual on both.
func (x *Extractor) motionMap() []float64 {
	out := make([]float64, len(x.luma))
	if x.prevLuma == nil {
		return out
	}
	for gy := 0; gy < x.gridH; gy++ {
		for gx := 0; gx < x.gridW; gx++ {
			i := gy*x.gridW + gx
			cur := x.luma[i]
			best := math.Abs(cur - x.prevLuma[i])
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				px, py := gx+d[0], gy+d[1]
				if px < 0 || px >= x.gridW || py < 0 || py >= x.gridH {
					continue
				}
				if diff := math.Abs(cur - x.prevLuma[py*x.gridW+px]); diff < best {
					best = diff
				}
			}
			// Shifted match better than the in-place match means the
			// content moved rather than flickered.
			out[i] = math.Abs(cur-x.prevLuma[i]) - best
		}
	}
	return out
}

const gistPool = 4 // cells per side pooled into one gist block

// gistMap pools luminance over coarse blocks; every cell in a block carries
// the block mean, giving a low-frequency layout summary at map resolution.
func (x *Extractor) gistMap() []float64 {
	out := make([]float64, len(x.luma))
	for by := 0; by < x.gridH; by += gistPool {
		for bx := 0; bx < x.gridW; bx += gistPool {
			var sum float64
			var cnt int
			for gy := by; gy < by+gistPool && gy < x.gridH; gy++ {
				for gx := bx; gx < bx+gistPool && gx < x.gridW; gx++ {
					sum += x.luma[gy*x.gridW+gx]
					cnt++
				}
			}
			mean := sum / float64(cnt)
			for gy := by; gy < by+gistPool && gy < x.gridH; gy++ {
				for gx := bx; gx < bx+gistPool && gx < x.gridW; gx++ {
					out[gy*x.gridW+gx] = mean
				}
			}
		}
	}
	return out
}

// saliencyMap is center-surround contrast over luminance, color and
// orientation conspicuity, peak-normalized so the most conspicuous cell of
// the frame scores near 1.
func (x *Extractor) saliencyMap() []float64 {
	color := x.colorMap()
	orient := x.orientationMap()
	out := make([]float64, len(x.luma))
	for gy := 0; gy < x.gridH; gy++ {
		for gx := 0; gx < x.gridW; gx++ {
			i := gy*x.gridW + gx
			ic := math.Abs(x.luma[i] - x.boxMean(x.luma, gx, gy))
			cc := math.Abs(color[i] - x.boxMean(color, gx, gy))
			out[i] = (ic + cc + orient[i]) / 3
		}
	}
	if max := floats.Max(out); max > 0 {
		floats.Scale(1/max, out)
	}
	return out
}

// boxMean is the mean of the 3x3 neighborhood of (gx, gy), clipped at the
// grid border.
func (x *Extractor) boxMean(vals []float64, gx, gy int) float64 {
	var sum float64
	var cnt int
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			px, py := gx+dx, gy+dy
			if px < 0 || px >= x.gridW || py < 0 || py >= x.gridH {
				continue
			}
			sum += vals[py*x.gridW+px]
			cnt++
		}
	}
	return sum / float64(cnt)
}

// lumaAt reads the luminance grid with border clamping.
func (x *Extractor) lumaAt(gx, gy int) float64 {
	if gx < 0 {
		gx = 0
	} else if gx >= x.gridW {
		gx = x.gridW - 1
	}
	if gy < 0 {
		gy = 0
	} else if gy >= x.gridH {
		gy = x.gridH - 1
	}
	return x.luma[gy*x.gridW+gx]
}

func clampUnit(vals []float64) {
	for i, v := range vals {
		if v < 0 {
			vals[i] = 0
		} else if v > 1 {
			vals[i] = 1
		}
	}
}

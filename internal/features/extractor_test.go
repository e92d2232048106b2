package features

import (
	"image"
	"image/color"
	"testing"

	"github.com/kestrel-vision/surprise/internal/surprise"
)

func grayFrame(w, h int, v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func allChannels(t *testing.T) surprise.ChannelSet {
	t.Helper()
	cs, err := surprise.ParseChannels("SCIOFMG")
	if err != nil {
		t.Fatalf("ParseChannels: %v", err)
	}
	return cs
}

func TestChannelMaps_DimensionsAndRange(t *testing.T) {
	x := NewExtractor(8)
	maps, err := x.ChannelMaps(grayFrame(64, 48, 128), allChannels(t))
	if err != nil {
		t.Fatalf("ChannelMaps: %v", err)
	}
	if len(maps) != 7 {
		t.Fatalf("expected 7 maps, got %d", len(maps))
	}
	for ch, m := range maps {
		if m.Width != 8 || m.Height != 6 {
			t.Errorf("%s: grid %dx%d, want 8x6", ch, m.Width, m.Height)
		}
		if len(m.Values) != m.Width*m.Height {
			t.Errorf("%s: %d values for %dx%d", ch, len(m.Values), m.Width, m.Height)
		}
		for i, v := range m.Values {
			if v < 0 || v > 1 {
				t.Fatalf("%s: value[%d] = %v outside [0,1]", ch, i, v)
			}
		}
	}
}

func TestChannelMaps_UniformGrayFrame(t *testing.T) {
	x := NewExtractor(8)
	cs, _ := surprise.ParseChannels("IOCF")
	maps, err := x.ChannelMaps(grayFrame(32, 32, 255), cs)
	if err != nil {
		t.Fatalf("ChannelMaps: %v", err)
	}
	for i, v := range maps[surprise.ChannelIntensity].Values {
		if v < 0.99 {
			t.Fatalf("intensity[%d] = %v for a white frame", i, v)
		}
	}
	for i, v := range maps[surprise.ChannelOrientation].Values {
		if v != 0 {
			t.Fatalf("orientation[%d] = %v for a uniform frame", i, v)
		}
	}
	// Gray pixels have equal opponency components, so color energy is zero.
	for i, v := range maps[surprise.ChannelColor].Values {
		if v > 1e-9 {
			t.Fatalf("color[%d] = %v for a gray frame", i, v)
		}
	}
	// First frame: no temporal reference yet.
	for i, v := range maps[surprise.ChannelFlicker].Values {
		if v != 0 {
			t.Fatalf("flicker[%d] = %v on first frame", i, v)
		}
	}
}

func TestChannelMaps_FlickerTracksLuminanceChange(t *testing.T) {
	x := NewExtractor(8)
	cs, _ := surprise.ParseChannels("F")
	if _, err := x.ChannelMaps(grayFrame(32, 32, 0), cs); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	maps, err := x.ChannelMaps(grayFrame(32, 32, 255), cs)
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	for i, v := range maps[surprise.ChannelFlicker].Values {
		if v < 0.99 {
			t.Fatalf("flicker[%d] = %v after black-to-white flip", i, v)
		}
	}
	// Identical third frame: flicker drops back to zero.
	maps, err = x.ChannelMaps(grayFrame(32, 32, 255), cs)
	if err != nil {
		t.Fatalf("third frame: %v", err)
	}
	for i, v := range maps[surprise.ChannelFlicker].Values {
		if v != 0 {
			t.Fatalf("flicker[%d] = %v for a repeated frame", i, v)
		}
	}
}

func TestChannelMaps_SaliencyPeaksOnOddOneOut(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	// One bright red cell in an otherwise dark gray frame.
	for y := 24; y < 32; y++ {
		for x := 24; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 250, G: 20, B: 20, A: 255})
		}
	}

	x := NewExtractor(8)
	cs, _ := surprise.ParseChannels("S")
	maps, err := x.ChannelMaps(img, cs)
	if err != nil {
		t.Fatalf("ChannelMaps: %v", err)
	}
	sal := maps[surprise.ChannelSaliency]
	peak := sal.At(3, 3)
	if peak < 0.99 {
		t.Fatalf("odd-one-out cell saliency %v, want ~1 after peak normalization", peak)
	}
	if corner := sal.At(0, 0); corner >= peak {
		t.Fatalf("uniform corner (%v) as salient as the odd one out (%v)", corner, peak)
	}
}

func TestChannelMaps_ResizeResetsTemporalState(t *testing.T) {
	x := NewExtractor(8)
	cs, _ := surprise.ParseChannels("F")
	if _, err := x.ChannelMaps(grayFrame(32, 32, 0), cs); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	maps, err := x.ChannelMaps(grayFrame(64, 64, 255), cs)
	if err != nil {
		t.Fatalf("resized frame: %v", err)
	}
	if w, h := x.GridSize(); w != 8 || h != 8 {
		t.Fatalf("grid not resized: %dx%d", w, h)
	}
	for i, v := range maps[surprise.ChannelFlicker].Values {
		if v != 0 {
			t.Fatalf("flicker[%d] = %v right after a resolution change", i, v)
		}
	}
}

func TestChannelMaps_RejectsTinyFrame(t *testing.T) {
	x := NewExtractor(8)
	if _, err := x.ChannelMaps(grayFrame(4, 4, 0), allChannels(t)); err == nil {
		t.Fatal("expected error for frame smaller than one cell")
	}
	if _, err := x.ChannelMaps(nil, allChannels(t)); err == nil {
		t.Fatal("expected error for nil frame")
	}
}

func TestStaticExtractor(t *testing.T) {
	s := &Static{Width: 2, Height: 2, Value: 0.25}
	cs, _ := surprise.ParseChannels("SM")
	maps, err := s.ChannelMaps(nil, cs)
	if err != nil {
		t.Fatalf("ChannelMaps: %v", err)
	}
	if len(maps) != 2 {
		t.Fatalf("expected 2 maps, got %d", len(maps))
	}
	for ch, m := range maps {
		for i, v := range m.Values {
			if v != 0.25 {
				t.Fatalf("%s: value[%d] = %v", ch, i, v)
			}
		}
	}
}

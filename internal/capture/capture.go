// Package capture provides frame sources for the surprise pipeline: replay
// from a directory of still frames, and a synthetic generator for dev mode.
package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source yields decoded frames one at a time. Next returns io.EOF when the
// source is exhausted. Sources are not safe for concurrent use; the frame
// loop is the only caller.
type Source interface {
	Next() (image.Image, error)
}

// DirSource replays PNG/JPEG files from a directory in lexical order.
type DirSource struct {
	paths []string
	pos   int
}

// NewDirSource lists the frame files under dir. An empty directory is an
// error: a replay with nothing to replay is a misconfiguration, not EOF.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frame files (png/jpeg) in %s", dir)
	}
	sort.Strings(paths)
	return &DirSource{paths: paths}, nil
}

// Len returns the number of frames in the replay.
func (s *DirSource) Len() int { return len(s.paths) }

func (s *DirSource) Next() (image.Image, error) {
	if s.pos >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.pos]
	s.pos++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return img, nil
}

// SyntheticSource generates a dark scene with a block sweeping across it,
// plus a one-off full-frame brightness step. Useful for dev mode and for
// demonstrating the surprise response without camera hardware.
type SyntheticSource struct {
	Width  int
	Height int
	// StepAtFrame injects a sudden sustained brightness change starting at
	// this frame index (0 disables the step).
	StepAtFrame int

	frame int
}

// NewSyntheticSource returns a generator of w x h frames with a brightness
// step at stepAt.
func NewSyntheticSource(w, h, stepAt int) *SyntheticSource {
	if w <= 0 {
		w = 320
	}
	if h <= 0 {
		h = 240
	}
	return &SyntheticSource{Width: w, Height: h, StepAtFrame: stepAt}
}

func (s *SyntheticSource) Next() (image.Image, error) {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))

	background := uint8(40)
	if s.StepAtFrame > 0 && s.frame >= s.StepAtFrame {
		background = 200
	}
	for i := range img.Pix {
		img.Pix[i] = background
	}

	// Block sweeping left to right, wrapping around.
	blockW, blockH := s.Width/8, s.Height/8
	x0 := (s.frame * 4) % (s.Width - blockW)
	y0 := (s.Height - blockH) / 2
	for y := y0; y < y0+blockH; y++ {
		row := y * img.Stride
		for x := x0; x < x0+blockW; x++ {
			img.Pix[row+x] = 230
		}
	}

	s.frame++
	return img, nil
}

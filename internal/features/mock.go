package features

import (
	"fmt"
	"image"

	"github.com/kestrel-vision/surprise/internal/surprise"
)

// Static is an extractor that returns the same constant-valued maps for
// every frame. It ignores the frame contents entirely and exists for tests
// and dev replay where deterministic maps are needed.
type Static struct {
	Width  int
	Height int
	Value  float64
}

// ChannelMaps returns a constant map per requested channel.
func (s *Static) ChannelMaps(_ image.Image, channels surprise.ChannelSet) (map[surprise.Channel]*surprise.FeatureMap, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("static extractor has no dimensions")
	}
	out := make(map[surprise.Channel]*surprise.FeatureMap, len(channels))
	for _, ch := range channels {
		vals := make([]float64, s.Width*s.Height)
		for i := range vals {
			vals[i] = s.Value
		}
		out[ch] = &surprise.FeatureMap{Width: s.Width, Height: s.Height, Values: vals}
	}
	return out, nil
}

// Failing is an extractor that always reports a transient failure. Used to
// exercise the per-frame failure path.
type Failing struct{ Reason string }

func (f *Failing) ChannelMaps(image.Image, surprise.ChannelSet) (map[surprise.Channel]*surprise.FeatureMap, error) {
	if f.Reason == "" {
		return nil, fmt.Errorf("extractor unavailable")
	}
	return nil, fmt.Errorf("%s", f.Reason)
}

package surprise

import (
	"fmt"
	"image"
	"math"
	"sync"

	"gonum.org/v1/gonum/mathext"
)

// Update factor bounds. Values at or outside the bounds are rejected so the
// conjugate update always both remembers and forgets.
const (
	MinUpdateFactor = 0.001
	MaxUpdateFactor = 0.999

	DefaultUpdateFactor = 0.95
	DefaultChannels     = "SCIOFMG"
)

// FeatureMap is one channel's normalized feature-intensity map for a frame.
// Values are non-negative; all maps for a given frame share dimensions.
type FeatureMap struct {
	Width  int
	Height int
	Values []float64 // len = Width*Height, row-major
}

// At returns the value at (x, y).
func (m *FeatureMap) At(x, y int) float64 { return m.Values[y*m.Width+x] }

// Extractor produces feature maps from a decoded frame. Implementations
// live outside this package; the engine only consumes the interface. A nil
// map for a requested channel, mismatched dimensions, or a returned error
// all fail the frame without touching belief state.
type Extractor interface {
	ChannelMaps(frame image.Image, channels ChannelSet) (map[Channel]*FeatureMap, error)
}

// Params is the engine's configuration surface. The zero value is not
// valid; use DefaultParams as a base.
type Params struct {
	// UpdateFactor is the per-frame forgetting weight in
	// (MinUpdateFactor, MaxUpdateFactor). Close to 1 means long memory.
	UpdateFactor float64 `json:"updatefac"`
	// Channels selects enabled channels as a string of letters matching
	// [SCIOFMG]+. Duplicates are ignored.
	Channels string `json:"channels"`
}

// DefaultParams returns the stock configuration.
func DefaultParams() Params {
	return Params{UpdateFactor: DefaultUpdateFactor, Channels: DefaultChannels}
}

// Validate rejects out-of-range parameters with typed errors. Values are
// never clamped.
func (p Params) Validate() error {
	if p.UpdateFactor <= MinUpdateFactor || p.UpdateFactor >= MaxUpdateFactor {
		return fmt.Errorf("%w: %g outside (%g, %g)",
			ErrInvalidUpdateFactor, p.UpdateFactor, MinUpdateFactor, MaxUpdateFactor)
	}
	if _, err := ParseChannels(p.Channels); err != nil {
		return err
	}
	return nil
}

// Engine computes one scalar surprise value per frame. It owns its
// BeliefStore outright and must not be used from more than one goroutine:
// Process is strictly sequential (each frame's posterior is the next
// frame's prior). The param setters, Params, and FrameCount take a lock so
// a control surface may observe and retune the engine while a frame is in
// flight; parameter changes take effect from the next frame.
type Engine struct {
	extractor Extractor

	mu           sync.Mutex
	updateFactor float64
	channels     ChannelSet
	frames       uint64

	store *BeliefStore

	// last per-channel wow breakdown, valid after a successful Process
	lastChannelWows map[Channel]float64
}

// NewEngine builds an engine around an extraction collaborator. The
// extractor must outlive the engine. Invalid params are rejected before any
// frame is processed.
func NewEngine(extractor Extractor, p Params) (*Engine, error) {
	if extractor == nil {
		return nil, fmt.Errorf("%w: extractor is nil", ErrInvalidConfig)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cs, _ := ParseChannels(p.Channels)
	return &Engine{
		extractor:       extractor,
		updateFactor:    p.UpdateFactor,
		channels:        cs,
		store:           NewBeliefStore(),
		lastChannelWows: make(map[Channel]float64),
	}, nil
}

// SetUpdateFactor replaces the forgetting factor, effective from the next
// Process call. Out-of-range values are rejected and the previous value is
// kept.
func (e *Engine) SetUpdateFactor(f float64) error {
	if f <= MinUpdateFactor || f >= MaxUpdateFactor {
		return fmt.Errorf("%w: %g outside (%g, %g)",
			ErrInvalidUpdateFactor, f, MinUpdateFactor, MaxUpdateFactor)
	}
	e.mu.Lock()
	e.updateFactor = f
	e.mu.Unlock()
	return nil
}

// SetChannels replaces the enabled channel set, effective from the next
// Process call. Invalid strings are rejected and the previous set is kept.
// Belief state for previously enabled channels is retained, so re-enabling
// a channel at the same resolution resumes its history.
func (e *Engine) SetChannels(s string) error {
	cs, err := ParseChannels(s)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.channels = cs
	e.mu.Unlock()
	return nil
}

// Params returns the current configuration.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Params{UpdateFactor: e.updateFactor, Channels: e.channels.String()}
}

// FrameCount returns the number of successfully processed frames. Safe to
// call from the control surface while a frame is in flight.
func (e *Engine) FrameCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// ChannelWows returns the per-channel wow breakdown of the last successful
// frame, keyed by channel. The map is a copy.
func (e *Engine) ChannelWows() map[Channel]float64 {
	out := make(map[Channel]float64, len(e.lastChannelWows))
	for ch, w := range e.lastChannelWows {
		out[ch] = w
	}
	return out
}

// Process scores one frame and folds it into the belief model.
//
// Feature maps for all enabled channels are pulled first and validated up
// front: if any map is missing, empty, or dimension-mismatched the frame
// fails with an *ExtractionError and no belief cell is touched. Otherwise
// every pixel of every enabled channel runs the forgetting-weighted
// conjugate update
//
//	alpha' = f*alpha + o
//	beta'  = f*beta + 1
//
// and contributes KL(Gamma(alpha,beta) -> Gamma(alpha',beta')) to the
// frame total. The returned wow value is the per-pixel average divergence
// converted to bits, so a belief doubling in the idealized one-parameter
// case scores 1.0.
func (e *Engine) Process(frame image.Image) (float64, error) {
	e.mu.Lock()
	factor := e.updateFactor
	channels := e.channels
	e.mu.Unlock()

	maps, err := e.extractor.ChannelMaps(frame, channels)
	if err != nil {
		return 0, &ExtractionError{Err: err}
	}
	// Validate everything before mutating any belief state: a frame either
	// updates all enabled channels or none of them.
	for _, ch := range channels {
		fm := maps[ch]
		if fm == nil {
			return 0, &ExtractionError{Channel: ch, Err: fmt.Errorf("no map produced")}
		}
		if fm.Width <= 0 || fm.Height <= 0 || len(fm.Values) != fm.Width*fm.Height {
			return 0, &ExtractionError{Channel: ch,
				Err: fmt.Errorf("bad map shape %dx%d with %d values", fm.Width, fm.Height, len(fm.Values))}
		}
	}

	totalKL := 0.0
	totalPixels := 0
	for ch := range e.lastChannelWows {
		delete(e.lastChannelWows, ch)
	}
	for _, ch := range channels {
		fm := maps[ch]
		e.store.EnsureShape(ch, fm.Width, fm.Height)
		bm := e.store.Map(ch)

		channelKL := 0.0
		for i, o := range fm.Values {
			cell := &bm.Cells[i]
			alpha, beta := cell.Alpha, cell.Beta
			alphaNext := factor*alpha + o
			betaNext := factor*beta + 1
			channelKL += gammaKL(alpha, beta, alphaNext, betaNext)
			cell.Alpha = alphaNext
			cell.Beta = betaNext
		}
		totalKL += channelKL
		totalPixels += len(fm.Values)
		e.lastChannelWows[ch] = channelKL / (float64(len(fm.Values)) * math.Ln2)
	}

	e.mu.Lock()
	e.frames++
	e.mu.Unlock()
	return totalKL / (float64(totalPixels) * math.Ln2), nil
}

// gammaKL is the closed-form Kullback-Leibler divergence from
// Gamma(a1, b1) to Gamma(a2, b2) in nats. It is zero when the parameters
// are equal and non-negative everywhere on the positive quadrant.
func gammaKL(a1, b1, a2, b2 float64) float64 {
	lg1, _ := math.Lgamma(a1)
	lg2, _ := math.Lgamma(a2)
	return (a2-a1)*mathext.Digamma(a2) - lg2 + lg1 +
		a1*(math.Log(b2)-math.Log(b1)) + a2*(b1/b2-1)
}

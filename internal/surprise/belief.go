package surprise

// BeliefCell holds the Gamma(shape, rate) parameters of one pixel's belief
// for one channel. Both parameters stay strictly positive for the lifetime
// of the cell.
type BeliefCell struct {
	Alpha float64 // shape
	Beta  float64 // rate
}

// neutralPrior is the maximum-entropy starting belief assigned to every
// cell on allocation or reset.
var neutralPrior = BeliefCell{Alpha: 1, Beta: 1}

// BeliefMap is the per-pixel belief state for one channel. Dimensions match
// the channel's feature map for the current session.
type BeliefMap struct {
	Width  int
	Height int
	Cells  []BeliefCell // len = Width*Height, row-major
}

// At returns mutable access to the cell at (x, y). Only the engine touches
// cells, and only during a sequential update pass.
func (m *BeliefMap) At(x, y int) *BeliefCell {
	return &m.Cells[y*m.Width+x]
}

// BeliefStore owns one BeliefMap per enabled channel. It is created empty
// and sized lazily from the first frame's map dimensions. The store is
// exclusively owned by an Engine; nothing else reads or writes it.
type BeliefStore struct {
	maps map[Channel]*BeliefMap
}

// NewBeliefStore returns an empty store.
func NewBeliefStore() *BeliefStore {
	return &BeliefStore{maps: make(map[Channel]*BeliefMap)}
}

// EnsureShape makes sure the channel's belief map exists with the given
// dimensions. On first use, or when the incoming dimensions differ from the
// stored map, the map is (re)allocated with every cell at the neutral prior
// and true is returned. A reset is a silent, expected event (resolution
// change), not an error; it never touches other channels.
func (s *BeliefStore) EnsureShape(ch Channel, width, height int) bool {
	m := s.maps[ch]
	if m != nil && m.Width == width && m.Height == height {
		return false
	}
	m = &BeliefMap{
		Width:  width,
		Height: height,
		Cells:  make([]BeliefCell, width*height),
	}
	for i := range m.Cells {
		m.Cells[i] = neutralPrior
	}
	s.maps[ch] = m
	return true
}

// Map returns the belief map for a channel, or nil if the channel has never
// seen a frame.
func (s *BeliefStore) Map(ch Channel) *BeliefMap {
	return s.maps[ch]
}

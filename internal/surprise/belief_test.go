package surprise

import "testing"

func TestEnsureShape_InitializesNeutralPrior(t *testing.T) {
	s := NewBeliefStore()
	if !s.EnsureShape(ChannelIntensity, 4, 3) {
		t.Fatal("expected allocation on first use")
	}
	m := s.Map(ChannelIntensity)
	if m == nil || m.Width != 4 || m.Height != 3 || len(m.Cells) != 12 {
		t.Fatalf("unexpected map: %+v", m)
	}
	for i, c := range m.Cells {
		if c.Alpha != 1 || c.Beta != 1 {
			t.Fatalf("cell %d not at neutral prior: %+v", i, c)
		}
	}
}

func TestEnsureShape_NoopWhenShapeMatches(t *testing.T) {
	s := NewBeliefStore()
	s.EnsureShape(ChannelColor, 2, 2)
	s.Map(ChannelColor).At(1, 1).Alpha = 5
	if s.EnsureShape(ChannelColor, 2, 2) {
		t.Fatal("matching shape must not reallocate")
	}
	if got := s.Map(ChannelColor).At(1, 1).Alpha; got != 5 {
		t.Fatalf("belief lost on no-op EnsureShape: alpha=%v", got)
	}
}

func TestEnsureShape_ResizeResetsOnlyThatChannel(t *testing.T) {
	s := NewBeliefStore()
	s.EnsureShape(ChannelColor, 2, 2)
	s.EnsureShape(ChannelMotion, 2, 2)
	s.Map(ChannelColor).At(0, 0).Alpha = 9
	s.Map(ChannelMotion).At(0, 0).Alpha = 7

	if !s.EnsureShape(ChannelColor, 3, 2) {
		t.Fatal("expected reallocation on dimension change")
	}
	if got := s.Map(ChannelColor).At(0, 0).Alpha; got != 1 {
		t.Fatalf("resized channel not reset to neutral prior: alpha=%v", got)
	}
	if got := s.Map(ChannelMotion).At(0, 0).Alpha; got != 7 {
		t.Fatalf("resize leaked into another channel: alpha=%v", got)
	}
}

func TestBeliefMapAt_RowMajor(t *testing.T) {
	s := NewBeliefStore()
	s.EnsureShape(ChannelGist, 3, 2)
	m := s.Map(ChannelGist)
	m.Cells[1*3+2].Beta = 42
	if got := m.At(2, 1).Beta; got != 42 {
		t.Fatalf("At(2,1) = %v, want 42", got)
	}
}

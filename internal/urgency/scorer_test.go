package urgency

import (
	"math"
	"testing"
)

func TestScore_TimePressure(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// 进入 CAS 窗口后时间分量封顶。size 为 0 时其余分量为零，便于单独观察。
	got := s.Score("", 0, 25, 1000, 0)
	if got.Breakdown.TimePressure != 40 {
		t.Errorf("time pressure at 25min = %v, want 40", got.Breakdown.TimePressure)
	}
	if got.Score != 40 {
		t.Errorf("score = %d, want 40", got.Score)
	}

	got = s.Score("", 0, 26, 1000, 0)
	if got.Breakdown.TimePressure != 37.3 {
		t.Errorf("time pressure at 26min = %v, want 37.3", got.Breakdown.TimePressure)
	}

	got = s.Score("", 0, 390, 1000, 0)
	if got.Breakdown.TimePressure != 0 {
		t.Errorf("time pressure at 390min = %v, want 0", got.Breakdown.TimePressure)
	}
	if got.Classification != ClassLow {
		t.Errorf("classification = %s, want LOW", got.Classification)
	}
}

func TestScore_SizePressureTiers(t *testing.T) {
	s := NewScorer(DefaultConfig())

	cases := []struct {
		size int64
		want float64
	}{
		{2100, 30}, // ratio 21
		{1500, 25}, // ratio 15
		{800, 20},  // ratio 8
		{500, 15},  // ratio 5, 线性段上沿
		{300, 9},   // ratio 3
	}
	for _, tc := range cases {
		got := s.Score("", tc.size, 390, 100, 0)
		if got.Breakdown.SizePressure != tc.want {
			t.Errorf("size %d: size pressure = %v, want %v", tc.size, got.Breakdown.SizePressure, tc.want)
		}
	}
}

func TestScore_AvgTradeSizeFloor(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// avg_trade_size 缺失时按 1 处理，不 panic 也不产生无穷大。
	got := s.Score("", 10, 300, 0, 0)
	if got.Breakdown.SizePressure != 20 {
		t.Errorf("size pressure = %v, want 20", got.Breakdown.SizePressure)
	}
	if got.Score != 29 {
		t.Errorf("score = %d, want 29", got.Score)
	}
}

func TestScore_NotesKeywords(t *testing.T) {
	s := NewScorer(DefaultConfig())

	cases := []struct {
		notes string
		want  float64
	}{
		{"urgent fill needed", 10},
		{"eod compliance trade", 8},
		{"asap please", 7},
		{"please be patient", -5},
		{"no urgency on this one", -5},
		// 正向词扫描优先于负向词。
		{"urgent but patient", 10},
		{"plain order", 0},
	}
	for _, tc := range cases {
		got := s.Score(tc.notes, 0, 390, 1000, 0)
		if got.Breakdown.NotesUrgency != tc.want {
			t.Errorf("notes %q: notes urgency = %v, want %v", tc.notes, got.Breakdown.NotesUrgency, tc.want)
		}
	}
}

func TestScore_ClientFactorAndClamp(t *testing.T) {
	s := NewScorer(DefaultConfig())

	got := s.Score("", 0, 390, 1000, 0.85)
	if got.Breakdown.ClientFactor != 17 {
		t.Errorf("client factor = %v, want 17", got.Breakdown.ClientFactor)
	}

	// 各分量全部拉满时截断在 100。
	got = s.Score("urgent", 10000, 10, 100, 1.0)
	if got.Score != 100 {
		t.Errorf("score = %d, want 100", got.Score)
	}
	if got.Classification != ClassCritical {
		t.Errorf("classification = %s, want CRITICAL", got.Classification)
	}

	// 负向备注在低分端不把总分压到零以下。
	got = s.Score("patient please", 0, 390, 1000, 0)
	if got.Score != 0 {
		t.Errorf("score = %d, want 0", got.Score)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Classification
	}{
		{100, ClassCritical},
		{80, ClassCritical},
		{79, ClassHigh},
		{60, ClassHigh},
		{59, ClassMedium},
		{40, ClassMedium},
		{39, ClassLow},
		{0, ClassLow},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestScore_CompositeExample(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// 时间 40 + 规模 20 + 客户 17 + 备注 10 = 87。
	got := s.Score("urgent sell - eod compliance", 50000, 20, 5000, 0.85)
	if got.Score != 87 {
		t.Errorf("score = %d, want 87", got.Score)
	}
	if got.Classification != ClassCritical {
		t.Errorf("classification = %s, want CRITICAL", got.Classification)
	}
	if got.Breakdown.TimePressure != 40 || got.Breakdown.SizePressure != 20 {
		t.Errorf("breakdown = %+v", got.Breakdown)
	}

	if math.Abs(got.Breakdown.ClientFactor-17) > 1e-9 {
		t.Errorf("client factor = %v, want 17", got.Breakdown.ClientFactor)
	}
}

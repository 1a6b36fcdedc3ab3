package urgency

import (
	"math"
	"strings"
)

// Classification 是紧迫度分档。
type Classification string

const (
	ClassLow      Classification = "LOW"
	ClassMedium   Classification = "MEDIUM"
	ClassHigh     Classification = "HIGH"
	ClassCritical Classification = "CRITICAL"
)

// Breakdown 记录总分的四个组成部分。各分量不单独截断，可为负。
type Breakdown struct {
	TimePressure float64 `json:"time_pressure"`
	SizePressure float64 `json:"size_pressure"`
	ClientFactor float64 `json:"client_factor"`
	NotesUrgency float64 `json:"notes_urgency"`
}

// Result 是一次紧迫度评估的输出。
type Result struct {
	Score          int            `json:"urgency_score"`
	Classification Classification `json:"urgency_classification"`
	Breakdown      Breakdown      `json:"urgency_breakdown"`
}

// Keyword 将备注中的一个关键词映射到加减分值。
type Keyword struct {
	Word   string
	Points float64
}

// Config 是评分器的全部参数，构造时注入后不可变。
type Config struct {
	CASThresholdMinutes int
	TotalTradingMinutes int
	PositiveKeywords    []Keyword
	NegativeKeywords    []Keyword
}

// DefaultConfig 返回内置评分参数。
func DefaultConfig() Config {
	return Config{
		CASThresholdMinutes: 25,
		TotalTradingMinutes: 390,
		PositiveKeywords: []Keyword{
			{Word: "urgent", Points: 10},
			{Word: "critical", Points: 10},
			{Word: "immediate", Points: 10},
			{Word: "must complete", Points: 8},
			{Word: "eod compliance", Points: 8},
			{Word: "rush", Points: 7},
			{Word: "asap", Points: 7},
		},
		NegativeKeywords: []Keyword{
			{Word: "patient", Points: -5},
			{Word: "no urgency", Points: -5},
			{Word: "no rush", Points: -5},
		},
	}
}

// Scorer 将时间、规模、客户与备注四个维度合成 0-100 的紧迫度分值。
type Scorer struct {
	cfg Config
}

// NewScorer 创建评分器。
func NewScorer(cfg Config) *Scorer {
	if cfg.CASThresholdMinutes <= 0 {
		cfg.CASThresholdMinutes = 25
	}
	if cfg.TotalTradingMinutes <= 0 {
		cfg.TotalTradingMinutes = 390
	}
	return &Scorer{cfg: cfg}
}

// Score 计算紧迫度。纯函数，无失败路径；avgTradeSize 以 1 为下限防止除零。
func (s *Scorer) Score(notes string, size int64, timeToCloseMinutes int, avgTradeSize int64, clientUrgencyFactor float64) Result {
	timeScore := s.timePressure(timeToCloseMinutes)
	sizeScore := s.sizePressure(size, avgTradeSize)
	clientScore := clientUrgencyFactor * 20
	notesScore := s.notesUrgency(notes)

	raw := timeScore + sizeScore + clientScore + notesScore
	clamped := math.Min(100, math.Max(0, raw))
	score := int(math.Round(clamped))

	return Result{
		Score:          score,
		Classification: Classify(score),
		Breakdown: Breakdown{
			TimePressure: round1(timeScore),
			SizePressure: round1(sizeScore),
			ClientFactor: round1(clientScore),
			NotesUrgency: notesScore,
		},
	}
}

// timePressure 占 40 分。收盘前超过一个交易日时会为负，由最终截断兜底。
func (s *Scorer) timePressure(timeToClose int) float64 {
	if timeToClose <= s.cfg.CASThresholdMinutes {
		return 40
	}
	return (1 - float64(timeToClose)/float64(s.cfg.TotalTradingMinutes)) * 40
}

// sizePressure 占 30 分。
func (s *Scorer) sizePressure(size, avgTradeSize int64) float64 {
	if avgTradeSize < 1 {
		avgTradeSize = 1
	}
	ratio := float64(size) / float64(avgTradeSize)
	switch {
	case ratio > 20:
		return 30
	case ratio > 10:
		return 25
	case ratio > 5:
		return 20
	default:
		return ratio * 3
	}
}

// notesUrgency 占 10 分。正向词先于负向词扫描，各自首个命中生效。
func (s *Scorer) notesUrgency(notes string) float64 {
	text := strings.ToLower(notes)

	for _, kw := range s.cfg.PositiveKeywords {
		if strings.Contains(text, kw.Word) {
			return kw.Points
		}
	}
	for _, kw := range s.cfg.NegativeKeywords {
		if strings.Contains(text, kw.Word) {
			return kw.Points
		}
	}
	return 0
}

// Classify 按固定阈值把分值映射到分档。
func Classify(score int) Classification {
	switch {
	case score >= 80:
		return ClassCritical
	case score >= 60:
		return ClassHigh
	case score >= 40:
		return ClassMedium
	default:
		return ClassLow
	}
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

package session

import "math"

// MarketState 表示当前市场阶段。
type MarketState string

const (
	StateContinuous MarketState = "Continuous"
	StatePreClose   MarketState = "Pre_Close"
	StateCAS        MarketState = "CAS"
)

// State 是一次时段判定的结果。价格区间无论处于哪个阶段都会给出，由消费方决定是否使用。
type State struct {
	CASActive      bool        `json:"cas_active"`
	MarketState    MarketState `json:"market_state"`
	ReferencePrice float64     `json:"reference_price"`
	UpperBand      float64     `json:"upper_band"`
	LowerBand      float64     `json:"lower_band"`
}

// Config 是探测器参数，构造时注入后不可变。
type Config struct {
	CASThresholdMinutes int
	PreCloseMinutes     int
	BandUpperRatio      float64
	BandLowerRatio      float64
}

// DefaultConfig 返回内置时段参数（CAS 25 分钟、盘尾 60 分钟、±3% 价格区间）。
func DefaultConfig() Config {
	return Config{
		CASThresholdMinutes: 25,
		PreCloseMinutes:     60,
		BandUpperRatio:      1.03,
		BandLowerRatio:      0.97,
	}
}

// Detector 根据剩余交易时间判定市场阶段并计算收盘集合竞价价格区间。
type Detector struct {
	cfg Config
}

// NewDetector 创建时段探测器。
func NewDetector(cfg Config) *Detector {
	if cfg.CASThresholdMinutes <= 0 {
		cfg.CASThresholdMinutes = 25
	}
	if cfg.PreCloseMinutes <= 0 {
		cfg.PreCloseMinutes = 60
	}
	if cfg.BandUpperRatio <= 1 {
		cfg.BandUpperRatio = 1.03
	}
	if cfg.BandLowerRatio <= 0 || cfg.BandLowerRatio >= 1 {
		cfg.BandLowerRatio = 0.97
	}
	return &Detector{cfg: cfg}
}

// Detect 判定市场阶段。纯函数。
func (d *Detector) Detect(timeToCloseMinutes int, lastTradedPrice float64) State {
	casActive := timeToCloseMinutes <= d.cfg.CASThresholdMinutes

	state := StateContinuous
	switch {
	case casActive:
		state = StateCAS
	case timeToCloseMinutes <= d.cfg.PreCloseMinutes:
		state = StatePreClose
	}

	return State{
		CASActive:      casActive,
		MarketState:    state,
		ReferencePrice: lastTradedPrice,
		UpperBand:      round1(lastTradedPrice * d.cfg.BandUpperRatio),
		LowerBand:      round1(lastTradedPrice * d.cfg.BandLowerRatio),
	}
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

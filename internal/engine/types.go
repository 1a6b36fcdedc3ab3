package engine

import (
	"context"

	"order-prefill/internal/intent"
	"order-prefill/internal/session"
	"order-prefill/internal/store"
	"order-prefill/internal/urgency"
)

// 订单方向取值。
const (
	SideBuy  = "Buy"
	SideSell = "Sell"
)

// Request 是一次预填计算的输入。
type Request struct {
	Symbol string
	CptyID string
	Size   int64
	Notes  string
	// Side 为空表示由引擎从备注推断。
	Side string
	// TimeToCloseOverride 非空时覆盖行情中的剩余交易时间。
	TimeToCloseOverride *int
}

// DataSource 是引擎依赖的外部数据访问接口。
// 记录不存在时返回 store.ErrNotFound，而不是零值快照。
type DataSource interface {
	MarketSnapshot(ctx context.Context, symbol string) (store.MarketSnapshot, error)
	ClientProfile(ctx context.Context, cptyID string) (store.ClientProfile, error)
}

// Parameters 是推断出的完整订单参数集，每个字段都带可信度与依据。
type Parameters struct {
	Instrument Field[string] `json:"instrument"`
	Side       Field[string] `json:"side"`
	Quantity   Field[int64]  `json:"quantity"`

	OrderType   Field[string]  `json:"order_type"`
	PriceType   Field[string]  `json:"price_type"`
	LimitPrice  Field[float64] `json:"limit_price"`
	TIF         Field[string]  `json:"tif"`
	ReleaseDate Field[string]  `json:"release_date"`
	Hold        Field[string]  `json:"hold"`
	Category    Field[string]  `json:"category"`
	Capacity    Field[string]  `json:"capacity"`
	Account     Field[string]  `json:"account"`
	Service     Field[string]  `json:"service"`
	Executor    Field[string]  `json:"executor"`
	UseAlgo     bool           `json:"use_algo"`

	Pricing        Field[string] `json:"pricing"`
	Layering       Field[string] `json:"layering"`
	UrgencySetting Field[string] `json:"urgency_setting"`
	GetDone        Field[string] `json:"get_done"`
	OpeningPrint   Field[string] `json:"opening_print"`
	OpeningPct     Field[int]    `json:"opening_pct"`
	ClosingPrint   Field[string] `json:"closing_print"`
	ClosingPct     Field[int]    `json:"closing_pct"`

	MinCrossQty      Field[int64]  `json:"min_cross_qty"`
	MaxCrossQty      Field[int64]  `json:"max_cross_qty"`
	CrossQtyUnit     Field[string] `json:"cross_qty_unit"`
	LeaveActiveSlice Field[string] `json:"leave_active_slice"`

	IWouldPrice Field[float64] `json:"iwould_price"`
	IWouldQty   Field[int64]   `json:"iwould_qty"`

	LimitOption Field[string] `json:"limit_option"`
	LimitOffset Field[int]    `json:"limit_offset"`
	OffsetUnit  Field[string] `json:"offset_unit"`
}

// MarketContext 是随结果返回的行情上下文。
type MarketContext struct {
	TimeToClose       int                 `json:"time_to_close"`
	MarketState       session.MarketState `json:"market_state"`
	CASActive         bool                `json:"cas_active"`
	CASReferencePrice float64             `json:"cas_reference_price"`
	CASUpperBand      float64             `json:"cas_upper_band"`
	CASLowerBand      float64             `json:"cas_lower_band"`
	LTP               float64             `json:"ltp"`
	Bid               float64             `json:"bid"`
	Ask               float64             `json:"ask"`
	Volatility        float64             `json:"volatility"`
	SpreadBps         float64             `json:"spread_bps"`
}

// Metadata 是结果元信息。
type Metadata struct {
	EngineVersion    string  `json:"engine_version"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
	ConfidenceScore  float64 `json:"confidence_score"`
	Timestamp        string  `json:"timestamp"`
}

// PrefillResult 是一次预填计算的完整输出，构造后不再修改。
type PrefillResult struct {
	urgency.Result

	Intent        intent.Intent `json:"intent"`
	Params        Parameters    `json:"prefilled_params"`
	MarketContext MarketContext `json:"market_context"`
	Metadata      Metadata      `json:"metadata"`
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"order-prefill/internal/config"
	"order-prefill/internal/intent"
	"order-prefill/internal/session"
	"order-prefill/internal/store"
	"order-prefill/internal/urgency"
)

// Version 随结果元信息返回。
const Version = "1.0.0"

// ErrInvalidInput 表示请求在结构上非法（如数量为负），调用方用 errors.Is 判定。
var ErrInvalidInput = errors.New("invalid input")

// Engine 把意图解析、紧迫度评分、时段判定与决策选择器串成一次完整的参数预填。
// 除数据查询外为纯计算，可并发调用。
type Engine struct {
	cfg      config.EngineConfig
	parser   *intent.Parser
	scorer   *urgency.Scorer
	detector *session.Detector
	source   DataSource
	logger   *zap.Logger
}

// New 创建引擎。阈值与模式表在此注入，运行期间不可变。
func New(cfg config.EngineConfig, source DataSource, logger *zap.Logger) (*Engine, error) {
	if source == nil {
		return nil, errors.New("engine: source 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parser, err := intent.NewParser(intent.DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("初始化意图解析器失败: %w", err)
	}

	scorerCfg := urgency.DefaultConfig()
	scorerCfg.CASThresholdMinutes = cfg.CASThresholdMinutes
	scorerCfg.TotalTradingMinutes = cfg.TotalTradingMinutes

	detector := session.NewDetector(session.Config{
		CASThresholdMinutes: cfg.CASThresholdMinutes,
		PreCloseMinutes:     cfg.PreCloseMinutes,
		BandUpperRatio:      cfg.BandUpperRatio,
		BandLowerRatio:      cfg.BandLowerRatio,
	})

	return &Engine{
		cfg:      cfg,
		parser:   parser,
		scorer:   urgency.NewScorer(scorerCfg),
		detector: detector,
		source:   source,
		logger:   logger,
	}, nil
}

// ComputePrefill 是引擎的唯一入口：查询行情与客户档案，推断完整参数集。
// 行情或客户不存在时原样返回 store.ErrNotFound。
func (e *Engine) ComputePrefill(ctx context.Context, req Request) (PrefillResult, error) {
	start := time.Now()

	userSide, err := validateRequest(req)
	if err != nil {
		return PrefillResult{}, err
	}

	var (
		market store.MarketSnapshot
		client store.ClientProfile
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		snap, fetchErr := e.source.MarketSnapshot(groupCtx, req.Symbol)
		if fetchErr != nil {
			return fetchErr
		}
		market = snap
		return nil
	})
	group.Go(func() error {
		profile, fetchErr := e.source.ClientProfile(groupCtx, req.CptyID)
		if fetchErr != nil {
			return fetchErr
		}
		client = profile
		return nil
	})
	if err := group.Wait(); err != nil {
		return PrefillResult{}, err
	}

	timeToClose := market.TimeToClose
	if req.TimeToCloseOverride != nil {
		timeToClose = *req.TimeToCloseOverride
	}

	avgTradeSize := market.AvgTradeSize
	if avgTradeSize < 1 {
		avgTradeSize = 1
	}
	sizeRatio := float64(req.Size) / float64(avgTradeSize)

	parsed := e.parser.Parse(req.Notes)
	urg := e.scorer.Score(req.Notes, req.Size, timeToClose, market.AvgTradeSize, client.UrgencyFactor)
	sess := e.detector.Detect(timeToClose, market.LTP)

	score := urg.Score

	sideField := detectSide(req.Notes, userSide)
	side := sideField.ValueOr("")

	orderType, priceType := selectOrderType(score, sess.CASActive, client.UrgencyFactor, market.VolatilityPct)
	limit := calcLimitPrice(side, score, sess, market.Bid, market.Ask)
	tif := selectTIF(score, sess.CASActive, req.Notes)
	algo := selectAlgo(score, sess.CASActive, req.Notes, sizeRatio)
	algoP := e.buildAlgoParams(score, req.Notes, timeToClose, market.VolatilityPct)
	cross := e.buildCrossing(req.Size, sizeRatio)
	iwPrice, iwQty := e.buildIWould(score, side, req.Size, market.LTP)
	adjustment := e.buildLimitAdjustment(score, side)

	executor := NullField[string](algo.confidence, algo.rationale)
	if algo.strategy != "" {
		executor = NewField(algo.strategy, algo.confidence, algo.rationale)
	}

	serviceRationale := "Direct market execution"
	if algo.useAlgo {
		serviceRationale = "Algo engine"
	}

	capacity, capacityRationale := "Agent", "Agency execution model"
	if client.UrgencyFactor > 0.6 {
		capacity, capacityRationale = "Principal", "Standard principal capacity"
	}

	holdRationale := "Standard immediate release"
	if score > 70 {
		holdRationale = "High urgency - release immediately"
	}

	now := time.Now().UTC()

	params := Parameters{
		Instrument: NewField(instrumentName(req.Symbol), ConfidenceHigh, "Auto-populated from symbol"),
		Side:       sideField,
		Quantity:   NewField(req.Size, ConfidenceHigh, "Quantity from client mandate"),

		OrderType:   orderType,
		PriceType:   priceType,
		LimitPrice:  limit,
		TIF:         tif,
		ReleaseDate: NewField(now.Format("2006-01-02"), ConfidenceHigh, "Immediate execution requested"),
		Hold:        NewField("No", ConfidenceHigh, holdRationale),
		Category:    NewField("Client", ConfidenceHigh, "Client order flow"),
		Capacity:    NewField(capacity, ConfidenceMedium, capacityRationale),
		Account:     NewField("UNALLOC", ConfidenceMedium, "Standard unallocated block order"),
		Service:     NewField(algo.service, ConfidenceHigh, serviceRationale),
		Executor:    executor,
		UseAlgo:     algo.useAlgo,

		Pricing:        algoP.pricing,
		Layering:       algoP.layering,
		UrgencySetting: algoP.urgencySetting,
		GetDone:        algoP.getDone,
		OpeningPrint:   algoP.openingPrint,
		OpeningPct:     algoP.openingPct,
		ClosingPrint:   algoP.closingPrint,
		ClosingPct:     algoP.closingPct,

		MinCrossQty:      cross.minQty,
		MaxCrossQty:      cross.maxQty,
		CrossQtyUnit:     cross.unit,
		LeaveActiveSlice: cross.activeSlice,

		IWouldPrice: iwPrice,
		IWouldQty:   iwQty,

		LimitOption: adjustment.option,
		LimitOffset: adjustment.offset,
		OffsetUnit:  adjustment.unit,
	}

	result := PrefillResult{
		Result: urg,
		Intent: parsed,
		Params: params,
		MarketContext: MarketContext{
			TimeToClose:       timeToClose,
			MarketState:       sess.MarketState,
			CASActive:         sess.CASActive,
			CASReferencePrice: sess.ReferencePrice,
			CASUpperBand:      sess.UpperBand,
			CASLowerBand:      sess.LowerBand,
			LTP:               market.LTP,
			Bid:               market.Bid,
			Ask:               market.Ask,
			Volatility:        market.VolatilityPct,
			SpreadBps:         spreadBps(market.Bid, market.Ask, market.LTP),
		},
		Metadata: Metadata{
			EngineVersion:    Version,
			ProcessingTimeMS: time.Since(start).Milliseconds(),
			ConfidenceScore:  aggregateConfidence(score),
			Timestamp:        now.Format(time.RFC3339),
		},
	}

	e.logger.Debug("预填计算完成",
		zap.String("symbol", req.Symbol),
		zap.String("cpty_id", req.CptyID),
		zap.Int("urgency_score", score),
		zap.String("market_state", string(sess.MarketState)),
		zap.Bool("use_algo", algo.useAlgo),
	)

	return result, nil
}

func validateRequest(req Request) (string, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return "", fmt.Errorf("symbol 不能为空: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(req.CptyID) == "" {
		return "", fmt.Errorf("cpty_id 不能为空: %w", ErrInvalidInput)
	}
	if req.Size <= 0 {
		return "", fmt.Errorf("size 必须为正: %w", ErrInvalidInput)
	}
	if req.TimeToCloseOverride != nil && *req.TimeToCloseOverride < 0 {
		return "", fmt.Errorf("time_to_close 不能为负: %w", ErrInvalidInput)
	}

	switch strings.ToLower(strings.TrimSpace(req.Side)) {
	case "":
		return "", nil
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return "", fmt.Errorf("side %q 非法: %w", req.Side, ErrInvalidInput)
	}
}

func spreadBps(bid, ask, ltp float64) float64 {
	if ltp <= 0 {
		return 0
	}
	return math.Round((ask-bid)/ltp*10000*10) / 10
}

// aggregateConfidence 由紧迫度分值派生整体可信度，上限 0.99。
func aggregateConfidence(score int) float64 {
	confidence := math.Round((0.82+float64(score)/500)*100) / 100
	return math.Min(confidence, 0.99)
}

var instrumentNames = map[string]string{
	"RELIANCE.NS":   "RELIANCE INDS T+1",
	"INFY.NS":       "INFOSYS LTD T+1",
	"TCS.NS":        "TCS LTD T+1",
	"HDFCBANK.NS":   "HDFC BANK T+1",
	"ICICIBANK.NS":  "ICICI BANK T+1",
	"SBIN.NS":       "STATE BANK T+1",
	"BHARTIARTL.NS": "BHARTI AIRTEL T+1",
	"ITC.NS":        "ITC LTD T+1",
	"KOTAKBANK.NS":  "KOTAK BANK T+1",
	"LT.NS":         "LARSEN & TOUBRO T+1",
	"HINDUNILVR.NS": "HINDUSTAN UNILEVER T+1",
	"BAJFINANCE.NS": "BAJAJ FINANCE T+1",
	"MARUTI.NS":     "MARUTI SUZUKI T+1",
	"ASIANPAINT.NS": "ASIAN PAINTS T+1",
	"WIPRO.NS":      "WIPRO LTD T+1",
}

func instrumentName(symbol string) string {
	if name, ok := instrumentNames[symbol]; ok {
		return name
	}
	return fmt.Sprintf("%s T+1", symbol)
}

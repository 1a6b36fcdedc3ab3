package engine

import (
	"fmt"
	"math"
	"strings"

	"order-prefill/internal/session"
)

// CAS 限价相对参考价的固定偏移倍数。
const (
	casBuyAggressiveMult  = 1.008
	casBuyStandardMult    = 1.005
	casSellAggressiveMult = 0.992
	casSellStandardMult   = 0.995

	openingAuctionMinutes = 300
)

var (
	buyWords  = []string{"buy", "purchase", "long"}
	sellWords = []string{"sell", "liquidate", "short"}
)

// detectSide 推断买卖方向。用户显式指定优先；备注中买卖词其次；都没有则留空待人工选择。
func detectSide(notes, userSide string) Field[string] {
	if userSide != "" {
		return NewField(userSide, ConfidenceHigh, "User-specified side")
	}

	text := strings.ToLower(notes)
	for _, w := range buyWords {
		if strings.Contains(text, w) {
			return NewField(SideBuy, ConfidenceHigh, "Order notes indicate buy instruction")
		}
	}
	for _, w := range sellWords {
		if strings.Contains(text, w) {
			return NewField(SideSell, ConfidenceHigh, "Order notes indicate sell instruction")
		}
	}

	return NullField[string](ConfidenceLow, "Require manual selection")
}

// selectOrderType 返回订单类型与价格类型。CAS 窗口强制限价。
func selectOrderType(score int, casActive bool, urgencyFactor, volatility float64) (Field[string], Field[string]) {
	if casActive {
		r := "CAS window detected. Limit order required for auction participation within ±3% band."
		return NewField("Limit", ConfidenceHigh, r), NewField("Limit", ConfidenceHigh, "Limit pricing")
	}
	if score > 80 && urgencyFactor > 0.7 {
		r := "High urgency + low price sensitivity → Market order for guaranteed fill"
		return NewField("Market", ConfidenceHigh, r), NewField("Market", ConfidenceHigh, "Market pricing")
	}
	if volatility > 2.5 {
		r := fmt.Sprintf("High volatility (%v%%) → Limit order to avoid adverse selection", volatility)
		return NewField("Limit", ConfidenceHigh, r), NewField("Limit", ConfidenceHigh, "Limit pricing")
	}

	return NewField("Limit", ConfidenceMedium, "Standard limit order for price protection"),
		NewField("Limit", ConfidenceMedium, "Limit pricing")
}

// calcLimitPrice 计算限价。方向未定时按买方向计算，不影响对外报告的方向字段。
// CAS 下价格区间是硬性上下限，乘数结果越界时贴边。
func calcLimitPrice(side string, score int, sess session.State, bid, ask float64) Field[float64] {
	if side == "" {
		side = SideBuy
	}

	if sess.CASActive {
		ref := sess.ReferencePrice
		if side == SideBuy {
			mult, pct := casBuyStandardMult, "+0.5%"
			if score > 80 {
				mult, pct = casBuyAggressiveMult, "+0.8%"
			}
			limit := math.Min(round1(ref*mult), sess.UpperBand)
			rationale := fmt.Sprintf("CAS: Aggressive limit at %s for high fill probability (Band: %.1f - %.1f)",
				pct, sess.LowerBand, sess.UpperBand)
			return NewField(limit, ConfidenceHigh, rationale)
		}

		mult, pct := casSellStandardMult, "-0.5%"
		if score > 80 {
			mult, pct = casSellAggressiveMult, "-0.8%"
		}
		limit := math.Max(round1(ref*mult), sess.LowerBand)
		rationale := fmt.Sprintf("CAS: Aggressive limit at %s for high fill probability (Band: %.1f - %.1f)",
			pct, sess.LowerBand, sess.UpperBand)
		return NewField(limit, ConfidenceHigh, rationale)
	}

	mid := round1((bid + ask) / 2)
	if side == SideBuy {
		switch {
		case score > 70:
			return NewField(ask, ConfidenceHigh, "High urgency: Limit at ask price for immediate execution")
		case score > 40:
			return NewField(mid, ConfidenceHigh, "Medium urgency: Mid-price balances cost and fill probability")
		default:
			return NewField(round1(bid+0.1), ConfidenceHigh, "Low urgency: Patient limit near bid for better price")
		}
	}

	switch {
	case score > 70:
		return NewField(bid, ConfidenceHigh, "High urgency: Limit at bid price for immediate execution")
	case score > 40:
		return NewField(mid, ConfidenceHigh, "Medium urgency: Mid-price balances cost and fill probability")
	default:
		return NewField(round1(ask-0.1), ConfidenceHigh, "Low urgency: Patient limit near ask for better price")
	}
}

// selectTIF 选择订单有效期。CAS 标签仅在集合竞价窗口有效。
func selectTIF(score int, casActive bool, notes string) Field[string] {
	if casActive {
		return NewField("CAS", ConfidenceHigh, "CAS session: Order valid only for closing auction window")
	}
	if score > 90 && strings.Contains(strings.ToLower(notes), "immediate") {
		return NewField("IOC", ConfidenceMedium, "Critical urgency: IOC ensures immediate execution attempt")
	}
	return NewField("GFD", ConfidenceHigh, "Standard day order: Valid until market close")
}

// algoChoice 是算法选择结果。
type algoChoice struct {
	strategy   string
	useAlgo    bool
	service    string
	confidence Confidence
	rationale  string
}

// selectAlgo 选择执行算法。备注中显式的 vwap/twap 优先于规模与紧迫度规则。
func selectAlgo(score int, casActive bool, notes string, sizeRatio float64) algoChoice {
	text := strings.ToLower(notes)

	if casActive {
		return algoChoice{
			useAlgo:    false,
			service:    "Market",
			confidence: ConfidenceHigh,
			rationale:  "CAS window: Direct limit order to closing auction (no algo needed)",
		}
	}
	if strings.Contains(text, "vwap") {
		return algoChoice{
			strategy:   "VWAP",
			useAlgo:    true,
			service:    "BlueBox 2",
			confidence: ConfidenceHigh,
			rationale:  "Client explicitly requires VWAP benchmark execution",
		}
	}
	if strings.Contains(text, "twap") {
		return algoChoice{
			strategy:   "TWAP",
			useAlgo:    true,
			service:    "BlueBox 2",
			confidence: ConfidenceHigh,
			rationale:  "Client explicitly requires TWAP execution",
		}
	}
	if score > 70 && sizeRatio > 3 {
		return algoChoice{
			strategy:   "POV",
			useAlgo:    true,
			service:    "BlueBox 2",
			confidence: ConfidenceHigh,
			rationale:  "High urgency with large order requires aggressive participation (POV)",
		}
	}
	if sizeRatio > 2 {
		return algoChoice{
			strategy:   "VWAP",
			useAlgo:    true,
			service:    "BlueBox 2",
			confidence: ConfidenceMedium,
			rationale:  "Standard VWAP execution balances cost and completion",
		}
	}

	return algoChoice{
		useAlgo:    false,
		service:    "Market",
		confidence: ConfidenceHigh,
		rationale:  "Small order - direct market execution sufficient",
	}
}

// algoParams 是算法附属参数，无论是否选中算法都会计算并呈现。
type algoParams struct {
	pricing        Field[string]
	layering       Field[string]
	urgencySetting Field[string]
	getDone        Field[string]
	openingPrint   Field[string]
	openingPct     Field[int]
	closingPrint   Field[string]
	closingPct     Field[int]
}

func (e *Engine) buildAlgoParams(score int, notes string, timeToClose int, volatility float64) algoParams {
	text := strings.ToLower(notes)
	var params algoParams

	switch {
	case score > 70:
		params.pricing = NewField("Adaptive", ConfidenceHigh,
			"High urgency: Adaptive pricing crosses spread when necessary")
	case volatility > 2.5:
		params.pricing = NewField("Passive", ConfidenceHigh,
			"High volatility: Passive pricing avoids adverse selection")
	default:
		params.pricing = NewField("Adaptive", ConfidenceHigh,
			"Standard adaptive pricing balances aggression and patience")
	}

	params.layering = NewField("Auto", ConfidenceHigh,
		"Auto-layering optimizes order book placement dynamically")

	switch {
	case score > 80:
		params.urgencySetting = NewField("High", ConfidenceHigh,
			fmt.Sprintf("Urgency score: %d/100 → High", score))
	case score > 50:
		params.urgencySetting = NewField("Auto", ConfidenceHigh,
			"Auto urgency adapts to market conditions")
	default:
		params.urgencySetting = NewField("Low", ConfidenceHigh,
			"Low urgency allows patient accumulation")
	}

	if score > 75 || strings.Contains(text, "must complete") {
		params.getDone = NewField("True", ConfidenceHigh, "Force completion by end time")
	} else {
		params.getDone = NewField("False", ConfidenceHigh, "Allow unfilled quantity to remain")
	}

	if timeToClose > openingAuctionMinutes {
		params.openingPrint = NewField("True", ConfidenceHigh,
			"Participate in opening auction for early liquidity")
		params.openingPct = NewField(10, ConfidenceMedium, "Max % in opening auction")
	} else {
		params.openingPrint = NewField("False", ConfidenceHigh, "Order entered after open")
		params.openingPct = NewField(0, ConfidenceMedium, "Max % in opening auction")
	}

	if timeToClose < e.cfg.PreCloseMinutes {
		pct := 20
		if score > 80 {
			pct = 30
		}
		params.closingPrint = NewField("True", ConfidenceHigh,
			"Approaching close - participate in closing auction")
		params.closingPct = NewField(pct, ConfidenceMedium, fmt.Sprintf("Max %d%% in closing auction", pct))
	} else {
		params.closingPrint = NewField("False", ConfidenceHigh, "Sufficient time remaining")
		params.closingPct = NewField(0, ConfidenceMedium, "Max 0% in closing auction")
	}

	return params
}

// crossingParams 是大宗撮合控制参数。
type crossingParams struct {
	minQty      Field[int64]
	maxQty      Field[int64]
	unit        Field[string]
	activeSlice Field[string]
}

func (e *Engine) buildCrossing(size int64, sizeRatio float64) crossingParams {
	unit := NewField("Shares", ConfidenceHigh, "Standard unit")
	activeSlice := NewField("False", ConfidenceHigh, "Avoid over-execution during cross")

	if sizeRatio > e.cfg.CrossingSizeThreshold {
		rationale := "Large order: Enable crossing for 20-50% blocks"
		minQty := int64(math.Round(float64(size) * e.cfg.CrossingMinPct))
		maxQty := int64(math.Round(float64(size) * e.cfg.CrossingMaxPct))
		return crossingParams{
			minQty:      NewField(minQty, ConfidenceMedium, rationale),
			maxQty:      NewField(maxQty, ConfidenceMedium, rationale),
			unit:        unit,
			activeSlice: activeSlice,
		}
	}

	return crossingParams{
		minQty:      NullField[int64](ConfidenceMedium, "Not applicable"),
		maxQty:      NullField[int64](ConfidenceMedium, "Not applicable"),
		unit:        unit,
		activeSlice: activeSlice,
	}
}

// buildIWould 计算机会性挂单。仅在低紧迫度下启用，价格朝对手方让出 0.5%。
func (e *Engine) buildIWould(score int, side string, size int64, ltp float64) (Field[float64], Field[int64]) {
	if score >= e.cfg.IWouldUrgencyThreshold {
		return NullField[float64](ConfidenceMedium, "Not applicable for urgent orders"),
			NullField[int64](ConfidenceMedium, "Not applicable")
	}

	var price float64
	if side == SideSell {
		price = round1(ltp * (1 + e.cfg.IWouldPriceOffset))
	} else {
		price = round1(ltp * (1 - e.cfg.IWouldPriceOffset))
	}
	qty := int64(math.Round(float64(size) * e.cfg.IWouldQtyPct))

	return NewField(price, ConfidenceMedium, "Opportunistic execution price"),
		NewField(qty, ConfidenceMedium, "30% of total order")
}

// limitAdjustment 是限价钉住/偏移设置。
type limitAdjustment struct {
	option Field[string]
	offset Field[int]
	unit   Field[string]
}

func (e *Engine) buildLimitAdjustment(score int, side string) limitAdjustment {
	unit := NewField("Tick", ConfidenceHigh, "Standard tick-based offset")

	if score >= e.cfg.LimitPegUrgencyThreshold {
		option := "Primary Best Bid"
		if side == SideSell {
			option = "Primary Best Ask"
		}
		return limitAdjustment{
			option: NewField(option, ConfidenceMedium, "Peg to best price for aggressive fill"),
			offset: NewField(1, ConfidenceHigh, "1 tick offset"),
			unit:   unit,
		}
	}

	return limitAdjustment{
		option: NewField("Order Limit", ConfidenceHigh, "Static limit price from order"),
		offset: NewField(0, ConfidenceHigh, "No offset"),
		unit:   unit,
	}
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

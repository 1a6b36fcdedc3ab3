package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"order-prefill/internal/intent"
	"order-prefill/internal/session"
	"order-prefill/internal/store"
	"order-prefill/internal/urgency"
)

type mockSource struct {
	markets map[string]store.MarketSnapshot
	clients map[string]store.ClientProfile
}

func (m *mockSource) MarketSnapshot(ctx context.Context, symbol string) (store.MarketSnapshot, error) {
	snap, ok := m.markets[symbol]
	if !ok {
		return store.MarketSnapshot{}, fmt.Errorf("行情 %s: %w", symbol, store.ErrNotFound)
	}
	return snap, nil
}

func (m *mockSource) ClientProfile(ctx context.Context, cptyID string) (store.ClientProfile, error) {
	profile, ok := m.clients[cptyID]
	if !ok {
		return store.ClientProfile{}, fmt.Errorf("客户 %s: %w", cptyID, store.ErrNotFound)
	}
	return profile, nil
}

func newTestEngine(t *testing.T, source DataSource) *Engine {
	t.Helper()
	e, err := New(testEngineConfig(), source, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return e
}

func TestComputePrefill_CASUrgentSell(t *testing.T) {
	source := &mockSource{
		markets: map[string]store.MarketSnapshot{
			"RELIANCE.NS": {Symbol: "RELIANCE.NS", LTP: 2845.5, Bid: 2845.0, Ask: 2846.0,
				TimeToClose: 20, VolatilityPct: 1.5, AvgTradeSize: 5000},
		},
		clients: map[string]store.ClientProfile{
			"CP001": {CptyID: "CP001", ClientName: "Alpha Capital", UrgencyFactor: 0.85},
		},
	}
	e := newTestEngine(t, source)

	got, err := e.ComputePrefill(context.Background(), Request{
		Symbol: "RELIANCE.NS",
		CptyID: "CP001",
		Size:   50000,
		Notes:  "urgent sell - eod compliance",
	})
	if err != nil {
		t.Fatalf("ComputePrefill returned error: %v", err)
	}

	if got.Score != 87 {
		t.Errorf("urgency score = %d, want 87", got.Score)
	}
	if got.Classification != urgency.ClassCritical {
		t.Errorf("classification = %s, want CRITICAL", got.Classification)
	}
	if got.MarketContext.MarketState != session.StateCAS || !got.MarketContext.CASActive {
		t.Errorf("market state = %s (active=%v), want CAS", got.MarketContext.MarketState, got.MarketContext.CASActive)
	}
	if !almostEqual(got.MarketContext.CASUpperBand, 2930.9) || !almostEqual(got.MarketContext.CASLowerBand, 2760.1) {
		t.Errorf("bands = (%v, %v), want (2930.9, 2760.1)", got.MarketContext.CASUpperBand, got.MarketContext.CASLowerBand)
	}
	if !almostEqual(got.MarketContext.SpreadBps, 3.5) {
		t.Errorf("spread bps = %v, want 3.5", got.MarketContext.SpreadBps)
	}

	p := got.Params
	if p.Side.ValueOr("") != SideSell {
		t.Errorf("side = %q, want Sell", p.Side.ValueOr(""))
	}
	if p.OrderType.ValueOr("") != "Limit" {
		t.Errorf("order type = %q, want Limit", p.OrderType.ValueOr(""))
	}
	if !almostEqual(p.LimitPrice.ValueOr(0), 2822.7) {
		t.Errorf("limit price = %v, want 2822.7", p.LimitPrice.ValueOr(0))
	}
	if p.TIF.ValueOr("") != "CAS" {
		t.Errorf("tif = %q, want CAS", p.TIF.ValueOr(""))
	}
	if p.UseAlgo {
		t.Errorf("use_algo = true, want false in CAS window")
	}
	if p.Executor.Value != nil {
		t.Errorf("executor = %v, want null", *p.Executor.Value)
	}
	if p.Capacity.ValueOr("") != "Principal" {
		t.Errorf("capacity = %q, want Principal", p.Capacity.ValueOr(""))
	}
	if p.LimitOption.ValueOr("") != "Primary Best Ask" {
		t.Errorf("limit option = %q, want Primary Best Ask", p.LimitOption.ValueOr(""))
	}
	if p.MinCrossQty.ValueOr(0) != 10000 || p.MaxCrossQty.ValueOr(0) != 25000 {
		t.Errorf("cross qty = (%d, %d), want (10000, 25000)", p.MinCrossQty.ValueOr(0), p.MaxCrossQty.ValueOr(0))
	}
	if p.IWouldPrice.Value != nil {
		t.Errorf("iwould price should be null for urgent order")
	}
	if p.ClosingPrint.ValueOr("") != "True" || p.ClosingPct.ValueOr(-1) != 30 {
		t.Errorf("closing = (%q, %d), want (True, 30)", p.ClosingPrint.ValueOr(""), p.ClosingPct.ValueOr(-1))
	}

	if got.Intent.UrgencyLevel != intent.UrgencyHigh {
		t.Errorf("intent urgency = %s, want HIGH", got.Intent.UrgencyLevel)
	}
	if got.Intent.PriceSensitivity != intent.SensitivityUrgentFill {
		t.Errorf("intent sensitivity = %s, want URGENT_FILL", got.Intent.PriceSensitivity)
	}
	if got.Metadata.ConfidenceScore != 0.99 {
		t.Errorf("confidence score = %v, want 0.99", got.Metadata.ConfidenceScore)
	}
	if got.Metadata.EngineVersion != Version {
		t.Errorf("engine version = %q, want %q", got.Metadata.EngineVersion, Version)
	}
}

func TestComputePrefill_PassiveVWAPBuy(t *testing.T) {
	source := &mockSource{
		markets: map[string]store.MarketSnapshot{
			"INFY.NS": {Symbol: "INFY.NS", LTP: 100, Bid: 99.8, Ask: 100.2,
				TimeToClose: 240, VolatilityPct: 1.8, AvgTradeSize: 5000},
		},
		clients: map[string]store.ClientProfile{
			"CP003": {CptyID: "CP003", UrgencyFactor: 0.3},
		},
	}
	e := newTestEngine(t, source)

	got, err := e.ComputePrefill(context.Background(), Request{
		Symbol: "INFY.NS",
		CptyID: "CP003",
		Size:   100000,
		Notes:  "buy 100000 via vwap, work patiently to minimize market impact",
	})
	if err != nil {
		t.Fatalf("ComputePrefill returned error: %v", err)
	}

	if got.Score != 41 {
		t.Errorf("urgency score = %d, want 41", got.Score)
	}
	if got.Classification != urgency.ClassMedium {
		t.Errorf("classification = %s, want MEDIUM", got.Classification)
	}
	if got.MarketContext.MarketState != session.StateContinuous {
		t.Errorf("market state = %s, want Continuous", got.MarketContext.MarketState)
	}

	p := got.Params
	if p.Side.ValueOr("") != SideBuy {
		t.Errorf("side = %q, want Buy", p.Side.ValueOr(""))
	}
	if !p.UseAlgo || p.Executor.ValueOr("") != "VWAP" {
		t.Errorf("algo = (%v, %q), want VWAP", p.UseAlgo, p.Executor.ValueOr(""))
	}
	if p.Service.ValueOr("") != "BlueBox 2" {
		t.Errorf("service = %q, want BlueBox 2", p.Service.ValueOr(""))
	}
	if p.OrderType.ValueOr("") != "Limit" {
		t.Errorf("order type = %q, want Limit", p.OrderType.ValueOr(""))
	}
	if !almostEqual(p.LimitPrice.ValueOr(0), 100.0) {
		t.Errorf("limit price = %v, want mid 100.0", p.LimitPrice.ValueOr(0))
	}
	if p.TIF.ValueOr("") != "GFD" {
		t.Errorf("tif = %q, want GFD", p.TIF.ValueOr(""))
	}
	if p.MinCrossQty.ValueOr(0) != 20000 || p.MaxCrossQty.ValueOr(0) != 50000 {
		t.Errorf("cross qty = (%d, %d), want (20000, 50000)", p.MinCrossQty.ValueOr(0), p.MaxCrossQty.ValueOr(0))
	}
	if p.IWouldPrice.Value != nil {
		t.Errorf("iwould price should be null at medium urgency")
	}
	if p.Capacity.ValueOr("") != "Agent" {
		t.Errorf("capacity = %q, want Agent", p.Capacity.ValueOr(""))
	}
	if p.UrgencySetting.ValueOr("") != "Low" {
		t.Errorf("urgency setting = %q, want Low", p.UrgencySetting.ValueOr(""))
	}

	if got.Intent.AlgoStrategy != intent.AlgoVWAP {
		t.Errorf("intent algo = %s, want VWAP", got.Intent.AlgoStrategy)
	}
	if got.Intent.ExecutionStyle != intent.StylePassive {
		t.Errorf("intent style = %s, want PASSIVE", got.Intent.ExecutionStyle)
	}
	if got.Intent.PriceSensitivity != intent.SensitivityMinimizeImpact {
		t.Errorf("intent sensitivity = %s, want MINIMIZE_IMPACT", got.Intent.PriceSensitivity)
	}
}

func TestComputePrefill_StandardSmallOrder(t *testing.T) {
	source := &mockSource{
		markets: map[string]store.MarketSnapshot{
			"TCS.NS": {Symbol: "TCS.NS", LTP: 100, Bid: 99.8, Ask: 100.2,
				TimeToClose: 180, VolatilityPct: 1.5, AvgTradeSize: 5000},
		},
		clients: map[string]store.ClientProfile{
			"CP002": {CptyID: "CP002", UrgencyFactor: 0.5},
		},
	}
	e := newTestEngine(t, source)

	got, err := e.ComputePrefill(context.Background(), Request{
		Symbol: "TCS.NS",
		CptyID: "CP002",
		Size:   1000,
		Notes:  "standard order",
	})
	if err != nil {
		t.Fatalf("ComputePrefill returned error: %v", err)
	}

	if got.Score != 32 {
		t.Errorf("urgency score = %d, want 32", got.Score)
	}
	if got.Classification != urgency.ClassLow {
		t.Errorf("classification = %s, want LOW", got.Classification)
	}
	if got.Intent.Confidence != 0.95 {
		t.Errorf("intent confidence = %v, want 0.95", got.Intent.Confidence)
	}

	p := got.Params
	if p.Side.Value != nil {
		t.Errorf("side = %v, want null pending manual selection", *p.Side.Value)
	}
	if !almostEqual(p.LimitPrice.ValueOr(0), 99.9) {
		t.Errorf("limit price = %v, want patient 99.9", p.LimitPrice.ValueOr(0))
	}
	if p.UseAlgo {
		t.Errorf("use_algo = true, want false for small order")
	}
	if !almostEqual(p.IWouldPrice.ValueOr(0), 99.5) {
		t.Errorf("iwould price = %v, want 99.5", p.IWouldPrice.ValueOr(0))
	}
	if p.IWouldQty.ValueOr(0) != 300 {
		t.Errorf("iwould qty = %d, want 300", p.IWouldQty.ValueOr(0))
	}
	if p.MinCrossQty.Value != nil {
		t.Errorf("cross qty should be null for small order")
	}
	if p.LimitOption.ValueOr("") != "Order Limit" {
		t.Errorf("limit option = %q, want Order Limit", p.LimitOption.ValueOr(""))
	}
	if got.Metadata.ConfidenceScore != 0.88 {
		t.Errorf("confidence score = %v, want 0.88", got.Metadata.ConfidenceScore)
	}
}

func TestComputePrefill_CriticalWithTTCOverride(t *testing.T) {
	source := &mockSource{
		markets: map[string]store.MarketSnapshot{
			"SBIN.NS": {Symbol: "SBIN.NS", LTP: 815.6, Bid: 815.3, Ask: 815.9,
				TimeToClose: 120, VolatilityPct: 2.0, AvgTradeSize: 1000},
		},
		clients: map[string]store.ClientProfile{
			"CP004": {CptyID: "CP004", UrgencyFactor: 0.9},
		},
	}
	e := newTestEngine(t, source)

	override := 40
	got, err := e.ComputePrefill(context.Background(), Request{
		Symbol:              "SBIN.NS",
		CptyID:              "CP004",
		Size:                30000,
		Notes:               "buy immediately - must complete asap",
		TimeToCloseOverride: &override,
	})
	if err != nil {
		t.Fatalf("ComputePrefill returned error: %v", err)
	}

	if got.MarketContext.TimeToClose != 40 {
		t.Errorf("time to close = %d, want override 40", got.MarketContext.TimeToClose)
	}
	if got.MarketContext.MarketState != session.StatePreClose {
		t.Errorf("market state = %s, want Pre_Close", got.MarketContext.MarketState)
	}
	if got.Score != 94 {
		t.Errorf("urgency score = %d, want 94", got.Score)
	}

	p := got.Params
	if p.OrderType.ValueOr("") != "Market" {
		t.Errorf("order type = %q, want Market", p.OrderType.ValueOr(""))
	}
	if p.TIF.ValueOr("") != "IOC" {
		t.Errorf("tif = %q, want IOC", p.TIF.ValueOr(""))
	}
	if p.Executor.ValueOr("") != "POV" || !p.UseAlgo {
		t.Errorf("executor = %q (use_algo=%v), want POV", p.Executor.ValueOr(""), p.UseAlgo)
	}
	if p.GetDone.ValueOr("") != "True" {
		t.Errorf("get done = %q, want True", p.GetDone.ValueOr(""))
	}
	if p.UrgencySetting.ValueOr("") != "High" {
		t.Errorf("urgency setting = %q, want High", p.UrgencySetting.ValueOr(""))
	}
	if p.ClosingPrint.ValueOr("") != "True" || p.ClosingPct.ValueOr(-1) != 30 {
		t.Errorf("closing = (%q, %d), want (True, 30)", p.ClosingPrint.ValueOr(""), p.ClosingPct.ValueOr(-1))
	}
	if p.LimitOption.ValueOr("") != "Primary Best Bid" {
		t.Errorf("limit option = %q, want Primary Best Bid", p.LimitOption.ValueOr(""))
	}
}

func TestComputePrefill_NotFoundPropagation(t *testing.T) {
	source := &mockSource{
		markets: map[string]store.MarketSnapshot{
			"RELIANCE.NS": {Symbol: "RELIANCE.NS", LTP: 100, Bid: 99, Ask: 101, TimeToClose: 120, AvgTradeSize: 100},
		},
		clients: map[string]store.ClientProfile{
			"CP001": {CptyID: "CP001"},
		},
	}
	e := newTestEngine(t, source)

	_, err := e.ComputePrefill(context.Background(), Request{Symbol: "UNKNOWN.NS", CptyID: "CP001", Size: 100})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown symbol: err = %v, want ErrNotFound", err)
	}

	_, err = e.ComputePrefill(context.Background(), Request{Symbol: "RELIANCE.NS", CptyID: "CP999", Size: 100})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown client: err = %v, want ErrNotFound", err)
	}
}

func TestComputePrefill_InvalidInput(t *testing.T) {
	e := newTestEngine(t, &mockSource{})

	negative := -1
	cases := []Request{
		{Symbol: "", CptyID: "CP001", Size: 100},
		{Symbol: "RELIANCE.NS", CptyID: "", Size: 100},
		{Symbol: "RELIANCE.NS", CptyID: "CP001", Size: 0},
		{Symbol: "RELIANCE.NS", CptyID: "CP001", Size: -5},
		{Symbol: "RELIANCE.NS", CptyID: "CP001", Size: 100, Side: "hold"},
		{Symbol: "RELIANCE.NS", CptyID: "CP001", Size: 100, TimeToCloseOverride: &negative},
	}
	for i, req := range cases {
		if _, err := e.ComputePrefill(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := New(testEngineConfig(), nil, nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}

func TestInstrumentName(t *testing.T) {
	if got := instrumentName("RELIANCE.NS"); got != "RELIANCE INDS T+1" {
		t.Errorf("known symbol = %q", got)
	}
	if got := instrumentName("NEWCO.NS"); got != "NEWCO.NS T+1" {
		t.Errorf("fallback = %q", got)
	}
}

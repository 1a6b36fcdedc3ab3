package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	baseConfidence     = 0.5
	standardConfidence = 0.95
	shortConfidence    = 0.3
	minNotesLength     = 5
)

// Parser 把非结构化的交易员备注解析为结构化 Intent。
// 模式表在构造时编译完成，Parse 本身无状态，可并发调用。
type Parser struct {
	urgency []compiledUrgency
	algos   []compiledAlgo

	passive    []*regexp.Regexp
	aggressive []*regexp.Regexp

	cas     []*regexp.Regexp
	opening []*regexp.Regexp
	// closingGuard 匹配 "closing"，捕获组标记其后是否紧跟 "auction"；
	// 仅当存在不带 auction 的出现时才算普通收盘意图。
	closingGuard *regexp.Regexp
	closingExtra []*regexp.Regexp

	completion []*regexp.Regexp
	neutral    []*regexp.Regexp

	impact     *regexp.Regexp
	urgentWord *regexp.Regexp

	deadline12h *regexp.Regexp
	deadline24h *regexp.Regexp

	instructions []compiledInstruction
}

type compiledUrgency struct {
	level UrgencyLevel
	res   []*regexp.Regexp
}

type compiledAlgo struct {
	strategy AlgoStrategy
	res      []*regexp.Regexp
}

type compiledInstruction struct {
	tag string
	re  *regexp.Regexp
}

// NewParser 编译模式表并返回解析器。
func NewParser(rules Rules) (*Parser, error) {
	p := &Parser{}

	for _, rule := range rules.Urgency {
		res, err := compileAll(rule.Patterns)
		if err != nil {
			return nil, fmt.Errorf("编译紧迫度模式失败 (%s): %w", rule.Level, err)
		}
		p.urgency = append(p.urgency, compiledUrgency{level: rule.Level, res: res})
	}

	for _, rule := range rules.Algos {
		res, err := compileAll(rule.Patterns)
		if err != nil {
			return nil, fmt.Errorf("编译算法模式失败 (%s): %w", rule.Strategy, err)
		}
		p.algos = append(p.algos, compiledAlgo{strategy: rule.Strategy, res: res})
	}

	var err error
	if p.passive, err = compileAll(rules.StylePassive); err != nil {
		return nil, fmt.Errorf("编译被动风格模式失败: %w", err)
	}
	if p.aggressive, err = compileAll(rules.StyleAggressive); err != nil {
		return nil, fmt.Errorf("编译激进风格模式失败: %w", err)
	}
	if p.cas, err = compileAll(rules.SessionCAS); err != nil {
		return nil, fmt.Errorf("编译CAS时段模式失败: %w", err)
	}
	if p.opening, err = compileAll(rules.SessionOpening); err != nil {
		return nil, fmt.Errorf("编译开盘时段模式失败: %w", err)
	}
	if p.closingExtra, err = compileAll(rules.SessionClosingExtra); err != nil {
		return nil, fmt.Errorf("编译收盘时段模式失败: %w", err)
	}
	if p.completion, err = compileAll(rules.Completion); err != nil {
		return nil, fmt.Errorf("编译完成要求模式失败: %w", err)
	}
	if p.neutral, err = compileAll(rules.Neutral); err != nil {
		return nil, fmt.Errorf("编译中性备注模式失败: %w", err)
	}
	if p.impact, err = regexp.Compile(rules.ImpactPhrase); err != nil {
		return nil, fmt.Errorf("编译冲击规避模式失败: %w", err)
	}
	if p.urgentWord, err = regexp.Compile(rules.UrgentWords); err != nil {
		return nil, fmt.Errorf("编译紧急词模式失败: %w", err)
	}
	if p.deadline12h, err = regexp.Compile(rules.Deadline12H); err != nil {
		return nil, fmt.Errorf("编译12小时截止时间模式失败: %w", err)
	}
	if p.deadline24h, err = regexp.Compile(rules.Deadline24H); err != nil {
		return nil, fmt.Errorf("编译24小时截止时间模式失败: %w", err)
	}

	p.closingGuard = regexp.MustCompile(`\bclosing\b(\s*auction\b)?`)

	for _, rule := range rules.Instructions {
		re, compileErr := regexp.Compile(rule.Pattern)
		if compileErr != nil {
			return nil, fmt.Errorf("编译指令模式失败 (%s): %w", rule.Tag, compileErr)
		}
		p.instructions = append(p.instructions, compiledInstruction{tag: rule.Tag, re: re})
	}

	return p, nil
}

// Parse 解析备注文本，永不失败；空白备注返回固定默认意图。
func (p *Parser) Parse(notes string) Intent {
	text := strings.ToLower(strings.TrimSpace(notes))
	if text == "" {
		return defaultIntent()
	}

	isStandard := matchAny(p.neutral, text)

	return Intent{
		UrgencyLevel:         p.extractUrgency(text, isStandard),
		AlgoStrategy:         p.extractAlgo(text, isStandard),
		ExecutionStyle:       p.extractStyle(text, isStandard),
		SessionTarget:        p.extractSessionTarget(text),
		DeadlineTime:         p.extractDeadline(text),
		MustComplete:         matchAny(p.completion, text),
		PriceSensitivity:     p.extractSensitivity(text, isStandard),
		ExplicitInstructions: p.extractInstructions(text),
		Confidence:           p.scoreConfidence(text, isStandard),
	}
}

func (p *Parser) extractUrgency(text string, isStandard bool) UrgencyLevel {
	if isStandard {
		return UrgencyMedium
	}
	for _, group := range p.urgency {
		if matchAny(group.res, text) {
			return group.level
		}
	}
	return UrgencyMedium
}

func (p *Parser) extractAlgo(text string, isStandard bool) AlgoStrategy {
	if isStandard {
		return AlgoNone
	}

	// 要求降低市场冲击且未显式提到 VWAP 时归到冰山单。
	if p.impact.MatchString(text) && !matchAny(p.algoPatterns(AlgoVWAP), text) {
		return AlgoIceberg
	}

	for _, group := range p.algos {
		if matchAny(group.res, text) {
			return group.strategy
		}
	}
	return AlgoNone
}

func (p *Parser) extractStyle(text string, isStandard bool) ExecutionStyle {
	if isStandard {
		return StyleNeutral
	}
	if matchAny(p.passive, text) {
		return StylePassive
	}
	if matchAny(p.aggressive, text) {
		return StyleAggressive
	}
	return StyleNeutral
}

func (p *Parser) extractSessionTarget(text string) SessionTarget {
	if matchAny(p.cas, text) {
		return SessionCAS
	}
	if matchAny(p.opening, text) {
		return SessionOpening
	}
	if p.matchesPlainClosing(text) || matchAny(p.closingExtra, text) {
		return SessionClosing
	}
	return SessionNone
}

// matchesPlainClosing 判断文本是否包含不属于 "closing auction" 的 "closing"。
func (p *Parser) matchesPlainClosing(text string) bool {
	for _, m := range p.closingGuard.FindAllStringSubmatch(text, -1) {
		if m[1] == "" {
			return true
		}
	}
	return false
}

func (p *Parser) extractDeadline(text string) string {
	if m := p.deadline12h.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := m[2]
		if minute == "" {
			minute = "00"
		}
		switch {
		case m[3] == "pm" && hour != 12:
			hour += 12
		case m[3] == "am" && hour == 12:
			hour = 0
		}
		return fmt.Sprintf("%02d:%s", hour, minute)
	}

	if m := p.deadline24h.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", hour, m[2])
	}

	return ""
}

func (p *Parser) extractSensitivity(text string, isStandard bool) PriceSensitivity {
	if isStandard {
		return SensitivityStandard
	}
	if p.impact.MatchString(text) {
		return SensitivityMinimizeImpact
	}
	if p.urgentWord.MatchString(text) {
		return SensitivityUrgentFill
	}
	return SensitivityStandard
}

func (p *Parser) extractInstructions(text string) []string {
	tags := make([]string, 0, 2)
	for _, inst := range p.instructions {
		if inst.re.MatchString(text) {
			tags = append(tags, inst.tag)
		}
	}
	return tags
}

func (p *Parser) scoreConfidence(text string, isStandard bool) float64 {
	if len(text) < minNotesLength {
		return shortConfidence
	}
	if isStandard {
		return standardConfidence
	}

	confidence := baseConfidence

	if matchAny(p.algoPatterns(AlgoVWAP), text) || matchAny(p.algoPatterns(AlgoTWAP), text) {
		confidence += 0.2
	}

	criticalHit := matchAny(p.urgencyPatterns(UrgencyCritical), text)
	if criticalHit || matchAny(p.urgencyPatterns(UrgencyHigh), text) {
		confidence += 0.15
	}

	if p.extractSessionTarget(text) != SessionNone {
		confidence += 0.15
	}

	if criticalHit && matchAny(p.urgencyPatterns(UrgencyLow), text) {
		confidence -= 0.2
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func (p *Parser) algoPatterns(strategy AlgoStrategy) []*regexp.Regexp {
	for _, group := range p.algos {
		if group.strategy == strategy {
			return group.res
		}
	}
	return nil
}

func (p *Parser) urgencyPatterns(level UrgencyLevel) []*regexp.Regexp {
	for _, group := range p.urgency {
		if group.level == level {
			return group.res
		}
	}
	return nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("模式 %q 非法: %w", pattern, err)
		}
		res = append(res, re)
	}
	return res, nil
}

func matchAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

package intent

// UrgencyRule 将一组正则模式映射到一个紧迫等级，按声明顺序逐条判定。
type UrgencyRule struct {
	Level    UrgencyLevel
	Patterns []string
}

// AlgoRule 将一组正则模式映射到一个算法策略。
type AlgoRule struct {
	Strategy AlgoStrategy
	Patterns []string
}

// InstructionRule 将一条正则模式映射到一个显式指令标签。
type InstructionRule struct {
	Tag     string
	Pattern string
}

// Rules 是解析器使用的全部模式表。顺序即优先级，先匹配者生效。
type Rules struct {
	Urgency []UrgencyRule
	Algos   []AlgoRule

	StylePassive    []string
	StyleAggressive []string

	SessionCAS     []string
	SessionOpening []string
	// SessionClosingExtra 是 "closing" 之外的普通收盘模式；
	// "closing" 本身由解析器单独处理，避免把 "closing auction" 重复计入。
	SessionClosingExtra []string

	Completion []string
	Neutral    []string

	ImpactPhrase string
	UrgentWords  string

	Deadline12H string
	Deadline24H string

	Instructions []InstructionRule
}

// DefaultRules 返回内置模式表。
func DefaultRules() Rules {
	return Rules{
		Urgency: []UrgencyRule{
			{Level: UrgencyCritical, Patterns: []string{
				`\basap\b`, `\bimmediate\b`, `\bcritic`, `\brush\b`,
				`\bextreme\s*urgency\b`, `\bfast\s*as\s*possible\b`,
			}},
			{Level: UrgencyHigh, Patterns: []string{
				`\burgent\b`, `\beod\s*compliance\b`, `\bmust\s*complete\b`,
				`\bhigh\s*priority\b`, `\btime[\s-]sensitive\b`,
			}},
			{Level: UrgencyLow, Patterns: []string{
				`\bpassive\b`, `\bpatient\b`, `\bno\s*rush\b`,
				`\bno\s*urgency\b`, `\brelaxed\b`, `\bwork\s*it\b`,
			}},
		},
		Algos: []AlgoRule{
			{Strategy: AlgoVWAP, Patterns: []string{`\bvwap\b`, `\bvolume[\s-]weighted\b`, `\bbenchmark\s*vwap\b`}},
			{Strategy: AlgoTWAP, Patterns: []string{`\btwap\b`, `\btime[\s-]weighted\b`}},
			{Strategy: AlgoPOV, Patterns: []string{`\bpov\b`, `\bparticipation\b`, `\bpercentage\s*of\s*volume\b`}},
			{Strategy: AlgoIceberg, Patterns: []string{`\biceberg\b`, `\bhide\s*size\b`, `\bdark\s*pool\b`}},
		},
		StylePassive: []string{
			`\bpassive\b`, `\bavoid\s*impact\b`, `\bminimize\s*impact\b`,
			`\bminimize\s*market\s*impact\b`, `\bpatient\b`, `\bwork\b`,
		},
		StyleAggressive: []string{
			`\baggressive\b`, `\bcross\s*spread\b`, `\btake\s*liquidity\b`,
			`\bimmediate\s*fill\b`,
		},
		SessionCAS: []string{
			`\bcas\b`, `\bclosing\s*auction\b`, `\bclose\s*auction\b`,
			`\bauction\s*close\b`, `\bat\s*close\b`,
		},
		SessionOpening: []string{
			`\bopening\s*auction\b`, `\bopen\s*auction\b`, `\bat\s*open\b`,
		},
		SessionClosingExtra: []string{
			`\bby\s*close\b`, `\btoward\s*close\b`,
		},
		Completion: []string{
			`\bmust\s*complete\b`, `\bensure\s*complete\b`, `\bguarantee\s*fill\b`,
			`\bget\s*done\b`, `\bcomplete\s*by\b`, `\bfill\s*or\s*kill\b`,
		},
		Neutral: []string{
			`\bstandard\s*order\b`, `\bexecute\s*normally\b`,
			`\bno\s*special\s*instructions\b`, `\bregular\b`,
		},
		ImpactPhrase: `\b(minimize|avoid)\s*(market\s*)?impact\b`,
		UrgentWords:  `\b(urgent|asap|immediate|critical)\b`,
		Deadline12H:  `by\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)`,
		Deadline24H:  `(?:by|until)\s*(\d{1,2}):(\d{2})`,
		Instructions: []InstructionRule{
			{Tag: "NO_CROSS_SPREAD", Pattern: `\bdo\s*not\s*cross\b`},
			{Tag: "LIMIT_ONLY", Pattern: `\blimit\s*only\b`},
			{Tag: "NO_MARKET", Pattern: `\bno\s*market\s*orders?\b`},
			{Tag: "BENCHMARK", Pattern: `\bbenchmark\b`},
			{Tag: "WORK_ORDER", Pattern: `\bwork\s*(the\s*)?order\b`},
			{Tag: "PARTICIPATE", Pattern: `\bparticipate\b`},
			{Tag: "DISCRETION", Pattern: `\buse\s*discretion\b`},
		},
	}
}

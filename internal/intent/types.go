package intent

// UrgencyLevel 表示从备注里解析出的紧迫程度。
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

// AlgoStrategy 表示算法执行策略，空串表示未指定。
type AlgoStrategy string

const (
	AlgoVWAP    AlgoStrategy = "VWAP"
	AlgoTWAP    AlgoStrategy = "TWAP"
	AlgoPOV     AlgoStrategy = "POV"
	AlgoIceberg AlgoStrategy = "ICEBERG"
	AlgoNone    AlgoStrategy = ""
)

// ExecutionStyle 表示执行风格。
type ExecutionStyle string

const (
	StylePassive    ExecutionStyle = "PASSIVE"
	StyleNeutral    ExecutionStyle = "NEUTRAL"
	StyleAggressive ExecutionStyle = "AGGRESSIVE"
)

// SessionTarget 表示目标交易时段，空串表示未指定。
type SessionTarget string

const (
	SessionCAS     SessionTarget = "CAS"
	SessionOpening SessionTarget = "OPENING"
	SessionClosing SessionTarget = "CLOSING"
	SessionNone    SessionTarget = ""
)

// PriceSensitivity 表示价格敏感度分类。
type PriceSensitivity string

const (
	SensitivityMinimizeImpact PriceSensitivity = "MINIMIZE_IMPACT"
	SensitivityStandard       PriceSensitivity = "STANDARD"
	SensitivityUrgentFill     PriceSensitivity = "URGENT_FILL"
)

// Intent 是一次备注解析的结构化结果，解析后不再修改。
type Intent struct {
	UrgencyLevel         UrgencyLevel     `json:"urgency_level"`
	AlgoStrategy         AlgoStrategy     `json:"algo_strategy,omitempty"`
	ExecutionStyle       ExecutionStyle   `json:"execution_style"`
	SessionTarget        SessionTarget    `json:"session_target,omitempty"`
	DeadlineTime         string           `json:"deadline_time,omitempty"`
	MustComplete         bool             `json:"must_complete"`
	PriceSensitivity     PriceSensitivity `json:"price_sensitivity"`
	ExplicitInstructions []string         `json:"explicit_instructions"`
	Confidence           float64          `json:"confidence"`
}

func defaultIntent() Intent {
	return Intent{
		UrgencyLevel:         UrgencyMedium,
		AlgoStrategy:         AlgoNone,
		ExecutionStyle:       StyleNeutral,
		SessionTarget:        SessionNone,
		DeadlineTime:         "",
		MustComplete:         false,
		PriceSensitivity:     SensitivityStandard,
		ExplicitInstructions: []string{},
		Confidence:           0.5,
	}
}

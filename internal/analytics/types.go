package analytics

import "time"

// RawCostRow is a single billing row as returned by the cost feed.
// Cost may arrive as a JSON number or a string with currency symbols;
// DateKey is an 8-digit YYYYMMDD string.
type RawCostRow struct {
	Cost        any    `json:"cost"`
	DateKey     string `json:"dateKey"`
	ServiceName string `json:"serviceName"`
}

// ServiceCost is a per-service cost entry within a single day.
type ServiceCost struct {
	ServiceName string  `json:"serviceName"`
	Cost        float64 `json:"cost"`
	Currency    string  `json:"currency"`
	Trend       string  `json:"trend,omitempty"`
}

// DailyCostRecord aggregates all billing rows of one calendar date.
// TotalCost always equals the sum of the breakdown costs.
type DailyCostRecord struct {
	Date             time.Time     `json:"date"`
	TotalCost        float64       `json:"totalCost"`
	ServiceBreakdown []ServiceCost `json:"serviceBreakdown"`
}

// SpikeEvent describes a day whose cost jumped versus the prior day.
type SpikeEvent struct {
	Date               time.Time     `json:"date"`
	PreviousCost       float64       `json:"previousCost"`
	CurrentCost        float64       `json:"currentCost"`
	PercentageIncrease float64       `json:"percentageIncrease"`
	AbsoluteIncrease   float64       `json:"absoluteIncrease"`
	AffectedServices   []ServiceCost `json:"affectedServices"`
}

// PatternKind classifies a seasonality pattern.
type PatternKind string

const (
	PatternWeekly  PatternKind = "weekly"
	PatternMonthly PatternKind = "monthly"
	PatternDaily   PatternKind = "daily"
)

// SeasonalityPattern is a recurring above-average cost concentration
// tied to a day-of-week or day-of-month bucket.
type SeasonalityPattern struct {
	Kind             PatternKind `json:"kind"`
	Description      string      `json:"description"`
	ImpactPercentage float64     `json:"impactPercentage"`
}

// ChangeEvent is an infrastructure change record from the activity feed.
type ChangeEvent struct {
	EventTimestamp time.Time `json:"eventTimestamp"`
	OperationName  string    `json:"operationName"`
	ResourceGroup  string    `json:"resourceGroup"`
	ResourceType   string    `json:"resourceType"`
	ResourceName   string    `json:"resourceName"`
}

// RootCauseEntry links a spike to the change events that plausibly caused it.
type RootCauseEntry struct {
	SpikeDate        string   `json:"spikeDate"`
	SpikeDescription string   `json:"spikeDescription"`
	Causes           []string `json:"causes"`
}

// BudgetInput is the raw budget record from the consumption feed.
type BudgetInput struct {
	Amount        float64 `json:"amount"`
	CurrentSpend  float64 `json:"currentSpend"`
	ForecastSpend float64 `json:"forecastSpend"`
}

// BudgetStatus is the evaluated budget position plus alerting decision.
type BudgetStatus struct {
	Amount                float64 `json:"amount"`
	CurrentSpend          float64 `json:"currentSpend"`
	ForecastSpend         float64 `json:"forecastSpend"`
	UtilizationPercentage float64 `json:"utilizationPercentage"`
	Remaining             float64 `json:"remaining"`
	IsOverBudget          bool    `json:"isOverBudget"`
	Alert                 string  `json:"alert,omitempty"`
}

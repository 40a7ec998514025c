package analytics

import "fmt"

// lowRemainingUtilizationPct is the utilization level at which the urgent
// low-remaining-budget alert fires.
const lowRemainingUtilizationPct = 90

// EvaluateBudget derives utilization, remaining budget, and the alerting
// decision from a single budget record. The two alert tiers are mutually
// exclusive and first match wins: utilization >= 90% beats an over-budget
// forecast. A non-positive amount short-circuits everything: no division,
// no alert.
func EvaluateBudget(in BudgetInput) BudgetStatus {
	status := BudgetStatus{
		Amount:        in.Amount,
		CurrentSpend:  in.CurrentSpend,
		ForecastSpend: in.ForecastSpend,
	}

	if in.Amount <= 0 {
		return status
	}

	status.UtilizationPercentage = in.CurrentSpend / in.Amount * 100
	status.Remaining = in.Amount - in.CurrentSpend
	status.IsOverBudget = in.ForecastSpend > in.Amount

	switch {
	case status.UtilizationPercentage >= lowRemainingUtilizationPct:
		status.Alert = fmt.Sprintf("URGENT: budget %.2f%% consumed, only $%.2f remaining", status.UtilizationPercentage, status.Remaining)
	case status.IsOverBudget:
		status.Alert = fmt.Sprintf("Forecast spend of $%.2f exceeds budget by $%.2f", in.ForecastSpend, in.ForecastSpend-in.Amount)
	}

	return status
}

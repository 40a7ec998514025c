package azure

import (
	"context"
	"fmt"

	"github.com/costpilot/costpilot/internal/analytics"
)

const budgetsAPIVersion = "2023-05-01"

type budgetsResponse struct {
	Value []struct {
		Name       string `json:"name"`
		Properties struct {
			Amount       float64 `json:"amount"`
			CurrentSpend struct {
				Amount float64 `json:"amount"`
			} `json:"currentSpend"`
			ForecastSpend struct {
				Amount float64 `json:"amount"`
			} `json:"forecastSpend"`
		} `json:"properties"`
	} `json:"value"`
}

// Budget returns the subscription's consumption budget as evaluator input.
// A tenant with no budget configured is not an error: the zero BudgetInput
// is returned and the evaluator's amount guard suppresses alerting. When
// several budgets exist the first is used.
func (c *Client) Budget(ctx context.Context) (analytics.BudgetInput, error) {
	reqURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Consumption/budgets?api-version=%s",
		c.armBase, c.creds.SubscriptionID, budgetsAPIVersion)

	var decoded budgetsResponse
	if err := c.getJSON(ctx, reqURL, &decoded); err != nil {
		return analytics.BudgetInput{}, fmt.Errorf("fetching budgets: %w", err)
	}
	if len(decoded.Value) == 0 {
		return analytics.BudgetInput{}, nil
	}

	b := decoded.Value[0].Properties
	return analytics.BudgetInput{
		Amount:        b.Amount,
		CurrentSpend:  b.CurrentSpend.Amount,
		ForecastSpend: b.ForecastSpend.Amount,
	}, nil
}

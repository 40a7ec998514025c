package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/costpilot/costpilot/internal/analytics"
)

const costQueryAPIVersion = "2023-03-01"

// costQueryRequest is the Cost Management query body: daily actual cost,
// summed, grouped by service name.
type costQueryRequest struct {
	Type       string         `json:"type"`
	Timeframe  string         `json:"timeframe"`
	TimePeriod *costPeriod    `json:"timePeriod,omitempty"`
	Dataset    costQueryModel `json:"dataset"`
}

type costPeriod struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type costQueryModel struct {
	Granularity string                 `json:"granularity"`
	Aggregation map[string]costAggExpr `json:"aggregation"`
	Grouping    []costGroupingExpr     `json:"grouping"`
}

type costAggExpr struct {
	Name     string `json:"name"`
	Function string `json:"function"`
}

type costGroupingExpr struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type costQueryResponse struct {
	Properties struct {
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		Rows [][]any `json:"rows"`
	} `json:"properties"`
}

// CostRows runs a Cost Management query for the given time range and returns
// raw per-service daily rows. This is the primary cost feed: callers must
// treat an error here as fatal to the report rather than degrading.
func (c *Client) CostRows(ctx context.Context, tr analytics.TimeRange) ([]analytics.RawCostRow, error) {
	body := costQueryRequest{
		Type:      "ActualCost",
		Timeframe: string(tr.Timeframe),
		Dataset: costQueryModel{
			Granularity: "Daily",
			Aggregation: map[string]costAggExpr{
				"totalCost": {Name: "Cost", Function: "Sum"},
			},
			Grouping: []costGroupingExpr{
				{Type: "Dimension", Name: "ServiceName"},
			},
		},
	}
	if tr.Timeframe == analytics.TimeframeCustom {
		body.Timeframe = "Custom"
		body.TimePeriod = &costPeriod{
			From: tr.Start.Format(time.RFC3339),
			To:   tr.End.Format(time.RFC3339),
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding cost query: %w", err)
	}

	reqURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.CostManagement/query?api-version=%s",
		c.armBase, c.creds.SubscriptionID, costQueryAPIVersion)

	resp, err := c.doARMRequest(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("cost query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cost query returned status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded costQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding cost query response: %w", err)
	}

	return costRowsFromResponse(decoded), nil
}

// costRowsFromResponse maps the columnar query response onto raw rows by
// column name, so column reordering in the API never misassigns values.
func costRowsFromResponse(resp costQueryResponse) []analytics.RawCostRow {
	costIdx, dateIdx, serviceIdx := -1, -1, -1
	for i, col := range resp.Properties.Columns {
		switch col.Name {
		case "Cost", "totalCost", "PreTaxCost":
			costIdx = i
		case "UsageDate":
			dateIdx = i
		case "ServiceName":
			serviceIdx = i
		}
	}
	if costIdx < 0 || dateIdx < 0 {
		return nil
	}

	rows := make([]analytics.RawCostRow, 0, len(resp.Properties.Rows))
	for _, r := range resp.Properties.Rows {
		if costIdx >= len(r) || dateIdx >= len(r) {
			continue
		}
		row := analytics.RawCostRow{
			Cost:    r[costIdx],
			DateKey: usageDateKey(r[dateIdx]),
		}
		if serviceIdx >= 0 && serviceIdx < len(r) {
			if name, ok := r[serviceIdx].(string); ok {
				row.ServiceName = name
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// usageDateKey normalizes the UsageDate cell, which arrives as a JSON number
// like 20250115, into the 8-digit string form.
func usageDateKey(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case float64:
		return fmt.Sprintf("%08.0f", d)
	case json.Number:
		return d.String()
	default:
		return ""
	}
}

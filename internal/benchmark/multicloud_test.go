package benchmark

import (
	"context"
	"math"
	"testing"

	"github.com/costpilot/costpilot/internal/analytics"
)

func TestParsePriceListItem(t *testing.T) {
	valid := `{
		"product": {"attributes": {"instanceType": "m5.large"}},
		"terms": {"OnDemand": {"X": {"priceDimensions": {"Y": {
			"unit": "Hrs", "pricePerUnit": {"USD": "0.096"}
		}}}}}
	}`
	instanceType, price, ok := parsePriceListItem(valid)
	if !ok {
		t.Fatal("expected valid item to parse")
	}
	if instanceType != "m5.large" || price != 0.096 {
		t.Errorf("got %q/%v, want m5.large/0.096", instanceType, price)
	}

	bad := []struct {
		name string
		json string
	}{
		{"not json", "{"},
		{"no instance type", `{"product":{"attributes":{}},"terms":{}}`},
		{"wrong unit", `{"product":{"attributes":{"instanceType":"m5.large"}},"terms":{"OnDemand":{"X":{"priceDimensions":{"Y":{"unit":"GB","pricePerUnit":{"USD":"1"}}}}}}}`},
		{"zero price", `{"product":{"attributes":{"instanceType":"m5.large"}},"terms":{"OnDemand":{"X":{"priceDimensions":{"Y":{"unit":"Hrs","pricePerUnit":{"USD":"0"}}}}}}}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := parsePriceListItem(tt.json); ok {
				t.Error("expected parse to fail")
			}
		})
	}
}

func TestCompareMultiCloudFallback(t *testing.T) {
	// No pricing client and no cache: fallback rates, marked estimated.
	e := &MultiCloudEstimator{}

	got := e.Compare(context.Background(), []analytics.ServiceCost{
		{ServiceName: "Virtual Machines", Cost: 100},
		{ServiceName: "Unmapped Service", Cost: 500},
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 comparison (unmapped omitted), got %d", len(got))
	}
	c := got[0]
	if !c.Estimated {
		t.Error("fallback rates should be flagged as estimated")
	}
	wantMonthly := fallbackAWSHourly["m5.large"] * hoursPerMonth
	if math.Abs(c.AWSEstimate-wantMonthly) > 0.01 {
		t.Errorf("AWSEstimate = %.2f, want %.2f", c.AWSEstimate, wantMonthly)
	}
	wantDiff := (100 - wantMonthly) / wantMonthly * 100
	if math.Abs(c.DifferencePct-wantDiff) > 0.01 {
		t.Errorf("DifferencePct = %.2f, want %.2f", c.DifferencePct, wantDiff)
	}
}

func TestCompareMultiCloudNilEstimator(t *testing.T) {
	var e *MultiCloudEstimator
	got := e.Compare(context.Background(), []analytics.ServiceCost{
		{ServiceName: "Virtual Machines", Cost: 100},
	})
	if len(got) != 1 {
		t.Fatalf("nil estimator should still answer from fallback, got %d", len(got))
	}
}

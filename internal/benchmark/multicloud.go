package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	awscfg "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/costpilot/costpilot/internal/analytics"
	"github.com/costpilot/costpilot/internal/store"
)

const (
	hoursPerMonth = 730

	// The AWS Pricing API is only served from us-east-1; rates are quoted
	// for that region too.
	pricingRegion = "us-east-1"
)

// awsEquivalents maps Azure service names to the AWS instance type used as
// the cross-provider comparison anchor.
var awsEquivalents = map[string]struct {
	instanceType string
	label        string
}{
	"Virtual Machines":         {"m5.large", "EC2 m5.large (2 vCPU, 8 GiB)"},
	"Azure Kubernetes Service": {"m5.xlarge", "EKS on m5.xlarge (4 vCPU, 16 GiB)"},
	"Azure SQL Database":       {"r5.large", "RDS-class r5.large (2 vCPU, 16 GiB)"},
	"App Service":              {"t3.medium", "EC2 t3.medium (2 vCPU, 4 GiB)"},
}

// fallbackAWSHourly holds us-east-1 Linux on-demand hourly rates used when
// the AWS Pricing API is unavailable. May become stale; live pricing is
// preferred whenever reachable.
var fallbackAWSHourly = map[string]float64{
	"m5.large":  0.096,
	"m5.xlarge": 0.192,
	"r5.large":  0.126,
	"t3.medium": 0.0416,
}

// MultiCloudComparison contrasts one Azure service's spend with the monthly
// cost of a comparable AWS primitive. Figures are illustrative estimates,
// never billing-grade.
type MultiCloudComparison struct {
	ServiceName   string  `json:"serviceName"`
	AzureCost     float64 `json:"azureCost"`
	AWSEstimate   float64 `json:"awsEstimate"`
	AWSEquivalent string  `json:"awsEquivalent"`
	DifferencePct float64 `json:"differencePercentage"`
	Estimated     bool    `json:"estimated"`
}

// MultiCloudEstimator looks up AWS on-demand prices through the Pricing API
// and turns them into monthly estimates comparable to Azure service spend.
type MultiCloudEstimator struct {
	pricingClient *pricing.Client
	cache         *store.RateCache
}

// NewMultiCloudEstimator builds an estimator. If AWS credentials cannot be
// loaded the estimator still works, answering from the cache or the static
// fallback rates. cache may be nil.
func NewMultiCloudEstimator(cache *store.RateCache) *MultiCloudEstimator {
	var client *pricing.Client
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(pricingRegion))
	if err == nil {
		client = pricing.NewFromConfig(cfg)
	} else {
		slog.Warn("benchmark: AWS config unavailable, multi-cloud estimates will use fallback rates", "error", err)
	}
	return &MultiCloudEstimator{pricingClient: client, cache: cache}
}

// Compare produces cross-provider comparisons for the services that have a
// mapped AWS equivalent. Unmapped services are omitted. Never fails: a
// pricing lookup error falls back to static rates with Estimated=true.
func (e *MultiCloudEstimator) Compare(ctx context.Context, services []analytics.ServiceCost) []MultiCloudComparison {
	hourly, estimated := e.hourlyRates(ctx)

	var out []MultiCloudComparison
	for _, svc := range services {
		eq, ok := awsEquivalents[svc.ServiceName]
		if !ok {
			continue
		}
		rate, ok := hourly[eq.instanceType]
		if !ok || rate <= 0 {
			continue
		}
		monthly := rate * hoursPerMonth
		diff := 0.0
		if monthly > 0 {
			diff = (svc.Cost - monthly) / monthly * 100
		}
		out = append(out, MultiCloudComparison{
			ServiceName:   svc.ServiceName,
			AzureCost:     svc.Cost,
			AWSEstimate:   monthly,
			AWSEquivalent: eq.label,
			DifferencePct: diff,
			Estimated:     estimated,
		})
	}
	return out
}

// hourlyRates returns per-instance-type hourly rates: cached, then live,
// then the static fallback. The bool reports whether the rates are fallback
// estimates rather than live quotes.
func (e *MultiCloudEstimator) hourlyRates(ctx context.Context) (map[string]float64, bool) {
	if e == nil {
		return fallbackAWSHourly, true
	}
	if cached, ok := e.cache.Get("aws", pricingRegion); ok {
		return cached, false
	}
	if e.pricingClient == nil {
		return fallbackAWSHourly, true
	}

	live, err := e.fetchLiveRates(ctx)
	if err != nil || len(live) == 0 {
		if err != nil {
			slog.Warn("benchmark: AWS pricing lookup failed, using fallback rates", "error", err)
		}
		return fallbackAWSHourly, true
	}
	if removed := store.SanitizeRates(live); removed > 0 {
		slog.Warn("benchmark: dropped out-of-bounds AWS rates", "removed", removed)
	}
	if len(live) == 0 {
		return fallbackAWSHourly, true
	}
	e.cache.Put("aws", pricingRegion, live)
	return live, false
}

// fetchLiveRates queries the AWS Pricing API for the on-demand Linux rates
// of the instance types used as comparison anchors.
func (e *MultiCloudEstimator) fetchLiveRates(ctx context.Context) (map[string]float64, error) {
	wanted := make(map[string]bool, len(awsEquivalents))
	for _, eq := range awsEquivalents {
		wanted[eq.instanceType] = true
	}

	filters := []pricingtypes.Filter{
		{Type: pricingtypes.FilterTypeTermMatch, Field: awscfg.String("ServiceCode"), Value: awscfg.String("AmazonEC2")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awscfg.String("regionCode"), Value: awscfg.String(pricingRegion)},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awscfg.String("operatingSystem"), Value: awscfg.String("Linux")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awscfg.String("tenancy"), Value: awscfg.String("Shared")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awscfg.String("preInstalledSw"), Value: awscfg.String("NA")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awscfg.String("capacitystatus"), Value: awscfg.String("Used")},
	}
	input := &pricing.GetProductsInput{
		ServiceCode: awscfg.String("AmazonEC2"),
		Filters:     filters,
		MaxResults:  awscfg.Int32(100),
	}

	rates := make(map[string]float64)
	const maxPages = 200 // safety limit to prevent unbounded pagination
	paginator := pricing.NewGetProductsPaginator(e.pricingClient, input)
	for page := 0; paginator.HasMorePages() && page < maxPages; page++ {
		result, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting pricing products: %w", err)
		}
		for _, priceListJSON := range result.PriceList {
			instanceType, hourlyPrice, ok := parsePriceListItem(priceListJSON)
			if !ok || !wanted[instanceType] {
				continue
			}
			if existing, found := rates[instanceType]; !found || hourlyPrice < existing {
				rates[instanceType] = hourlyPrice
			}
		}
		if len(rates) == len(wanted) {
			break
		}
	}
	return rates, nil
}

// parsePriceListItem extracts the instance type and on-demand hourly USD
// price from a single PriceList JSON document.
func parsePriceListItem(priceJSON string) (instanceType string, price float64, ok bool) {
	var item struct {
		Product struct {
			Attributes struct {
				InstanceType string `json:"instanceType"`
			} `json:"attributes"`
		} `json:"product"`
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					Unit         string            `json:"unit"`
					PricePerUnit map[string]string `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}

	if err := json.Unmarshal([]byte(priceJSON), &item); err != nil {
		return "", 0, false
	}
	instanceType = item.Product.Attributes.InstanceType
	if instanceType == "" {
		return "", 0, false
	}
	for _, offer := range item.Terms.OnDemand {
		for _, dim := range offer.PriceDimensions {
			if dim.Unit != "Hrs" {
				continue
			}
			usd, exists := dim.PricePerUnit["USD"]
			if !exists {
				continue
			}
			p, err := strconv.ParseFloat(usd, 64)
			if err != nil || p <= 0 {
				continue
			}
			return instanceType, p, true
		}
	}
	return "", 0, false
}

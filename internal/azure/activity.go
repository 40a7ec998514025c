package azure

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/costpilot/costpilot/internal/analytics"
)

const activityLogAPIVersion = "2015-04-01"

type activityLogResponse struct {
	Value []struct {
		EventTimestamp time.Time `json:"eventTimestamp"`
		OperationName  struct {
			Value string `json:"value"`
		} `json:"operationName"`
		ResourceGroupName string `json:"resourceGroupName"`
		ResourceType      struct {
			Value string `json:"value"`
		} `json:"resourceType"`
		ResourceID string `json:"resourceId"`
	} `json:"value"`
	NextLink string `json:"nextLink"`
}

// ChangeEvents returns the Activity Log management events for the one-day
// window starting at day 00:00. It implements analytics.ChangeEventSource.
func (c *Client) ChangeEvents(ctx context.Context, day time.Time) ([]analytics.ChangeEvent, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	// Half-open window: the end timestamp belongs to the next day.
	filter := fmt.Sprintf("eventTimestamp ge '%s' and eventTimestamp lt '%s'",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))

	params := url.Values{
		"api-version": {activityLogAPIVersion},
		"$filter":     {filter},
		"$select":     {"eventTimestamp,operationName,resourceGroupName,resourceType,resourceId"},
	}
	reqURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Insights/eventtypes/management/values?%s",
		c.armBase, c.creds.SubscriptionID, params.Encode())

	var events []analytics.ChangeEvent
	// The Activity Log pages its results; follow nextLink to a sane bound.
	const maxPages = 20
	for page := 0; reqURL != "" && page < maxPages; page++ {
		var decoded activityLogResponse
		if err := c.getJSON(ctx, reqURL, &decoded); err != nil {
			return nil, fmt.Errorf("fetching activity log: %w", err)
		}
		for _, v := range decoded.Value {
			events = append(events, analytics.ChangeEvent{
				EventTimestamp: v.EventTimestamp,
				OperationName:  v.OperationName.Value,
				ResourceGroup:  v.ResourceGroupName,
				ResourceType:   v.ResourceType.Value,
				ResourceName:   resourceNameFromID(v.ResourceID),
			})
		}
		reqURL = decoded.NextLink
	}
	return events, nil
}

// resourceNameFromID extracts the trailing resource name from an ARM
// resource ID path.
func resourceNameFromID(id string) string {
	if id == "" {
		return ""
	}
	last := id
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '/' {
			last = id[i+1:]
			break
		}
	}
	return last
}

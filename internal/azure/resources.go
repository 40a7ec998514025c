package azure

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/costpilot/costpilot/internal/hygiene"
)

const (
	networkAPIVersion = "2023-09-01"
	computeAPIVersion = "2024-03-01"
	metricsAPIVersion = "2023-10-01"
)

type publicIPListResponse struct {
	Value []struct {
		Name       string `json:"name"`
		ID         string `json:"id"`
		Properties struct {
			IPConfiguration *struct {
				ID string `json:"id"`
			} `json:"ipConfiguration"`
		} `json:"properties"`
	} `json:"value"`
}

type nsgListResponse struct {
	Value []struct {
		Name       string `json:"name"`
		ID         string `json:"id"`
		Properties struct {
			NetworkInterfaces []struct {
				ID string `json:"id"`
			} `json:"networkInterfaces"`
			Subnets []struct {
				ID string `json:"id"`
			} `json:"subnets"`
			SecurityRules []struct {
				Name       string `json:"name"`
				Properties struct {
					Direction            string `json:"direction"`
					Access               string `json:"access"`
					SourceAddressPrefix  string `json:"sourceAddressPrefix"`
					DestinationPortRange string `json:"destinationPortRange"`
				} `json:"properties"`
			} `json:"securityRules"`
		} `json:"properties"`
	} `json:"value"`
}

type lbListResponse struct {
	Value []struct {
		Name string `json:"name"`
		ID   string `json:"id"`
		Sku  struct {
			Name string `json:"name"`
		} `json:"sku"`
		Properties struct {
			BackendAddressPools []struct {
				Properties struct {
					BackendIPConfigurations []struct {
						ID string `json:"id"`
					} `json:"backendIPConfigurations"`
				} `json:"properties"`
			} `json:"backendAddressPools"`
		} `json:"properties"`
	} `json:"value"`
}

type vmListResponse struct {
	Value []struct {
		Name       string `json:"name"`
		ID         string `json:"id"`
		Properties struct {
			HardwareProfile struct {
				VMSize string `json:"vmSize"`
			} `json:"hardwareProfile"`
		} `json:"properties"`
	} `json:"value"`
}

type metricsResponse struct {
	Value []struct {
		Name struct {
			Value string `json:"value"`
		} `json:"name"`
		Timeseries []struct {
			Data []struct {
				Average *float64 `json:"average"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"value"`
}

// Inventory fetches the resource inventory hygiene analysis runs over. VM
// CPU telemetry failures do not fail the fetch: the VM is carried with
// AvgCPUPercent -1 and the analyzer skips it.
func (c *Client) Inventory(ctx context.Context) (hygiene.Inventory, error) {
	inv := hygiene.Inventory{}

	ips, err := c.publicIPs(ctx)
	if err != nil {
		return inv, fmt.Errorf("listing public IPs: %w", err)
	}
	inv.PublicIPs = ips

	nsgs, err := c.networkSecurityGroups(ctx)
	if err != nil {
		return inv, fmt.Errorf("listing NSGs: %w", err)
	}
	inv.NSGs = nsgs

	lbs, err := c.loadBalancers(ctx)
	if err != nil {
		return inv, fmt.Errorf("listing load balancers: %w", err)
	}
	inv.LoadBalancers = lbs

	vms, err := c.virtualMachines(ctx)
	if err != nil {
		return inv, fmt.Errorf("listing VMs: %w", err)
	}
	inv.VMs = vms

	return inv, nil
}

func (c *Client) publicIPs(ctx context.Context) ([]hygiene.PublicIP, error) {
	reqURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Network/publicIPAddresses?api-version=%s",
		c.armBase, c.creds.SubscriptionID, networkAPIVersion)

	var decoded publicIPListResponse
	if err := c.getJSON(ctx, reqURL, &decoded); err != nil {
		return nil, err
	}

	out := make([]hygiene.PublicIP, 0, len(decoded.Value))
	for _, v := range decoded.Value {
		out = append(out, hygiene.PublicIP{
			Name:          v.Name,
			ResourceGroup: resourceGroupFromID(v.ID),
			Associated:    v.Properties.IPConfiguration != nil,
		})
	}
	return out, nil
}

func (c *Client) networkSecurityGroups(ctx context.Context) ([]hygiene.NSG, error) {
	reqURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Network/networkSecurityGroups?api-version=%s",
		c.armBase, c.creds.SubscriptionID, networkAPIVersion)

	var decoded nsgListResponse
	if err := c.getJSON(ctx, reqURL, &decoded); err != nil {
		return nil, err
	}

	out := make([]hygiene.NSG, 0, len(decoded.Value))
	for _, v := range decoded.Value {
		nsg := hygiene.NSG{
			Name:          v.Name,
			ResourceGroup: resourceGroupFromID(v.ID),
			AttachedNICs:  len(v.Properties.NetworkInterfaces),
			Subnets:       len(v.Properties.Subnets),
		}
		for _, r := range v.Properties.SecurityRules {
			nsg.Rules = append(nsg.Rules, hygiene.SecurityRule{
				Name:            r.Name,
				Direction:       r.Properties.Direction,
				Access:          r.Properties.Access,
				SourcePrefix:    r.Properties.SourceAddressPrefix,
				DestinationPort: r.Properties.DestinationPortRange,
			})
		}
		out = append(out, nsg)
	}
	return out, nil
}

func (c *Client) loadBalancers(ctx context.Context) ([]hygiene.LoadBalancer, error) {
	reqURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Network/loadBalancers?api-version=%s",
		c.armBase, c.creds.SubscriptionID, networkAPIVersion)

	var decoded lbListResponse
	if err := c.getJSON(ctx, reqURL, &decoded); err != nil {
		return nil, err
	}

	out := make([]hygiene.LoadBalancer, 0, len(decoded.Value))
	for _, v := range decoded.Value {
		backends := 0
		for _, pool := range v.Properties.BackendAddressPools {
			backends += len(pool.Properties.BackendIPConfigurations)
		}
		out = append(out, hygiene.LoadBalancer{
			Name:          v.Name,
			ResourceGroup: resourceGroupFromID(v.ID),
			BackendCount:  backends,
			Sku:           v.Sku.Name,
		})
	}
	return out, nil
}

func (c *Client) virtualMachines(ctx context.Context) ([]hygiene.VM, error) {
	reqURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Compute/virtualMachines?api-version=%s",
		c.armBase, c.creds.SubscriptionID, computeAPIVersion)

	var decoded vmListResponse
	if err := c.getJSON(ctx, reqURL, &decoded); err != nil {
		return nil, err
	}

	out := make([]hygiene.VM, 0, len(decoded.Value))
	for _, v := range decoded.Value {
		vm := hygiene.VM{
			Name:          v.Name,
			ResourceGroup: resourceGroupFromID(v.ID),
			Size:          v.Properties.HardwareProfile.VMSize,
			PowerState:    "running",
			AvgCPUPercent: -1,
		}
		if avg, err := c.vmAverageCPU(ctx, v.ID); err == nil {
			vm.AvgCPUPercent = avg
		}
		out = append(out, vm)
	}
	return out, nil
}

// vmAverageCPU reads the Percentage CPU metric averaged over the last 7 days.
func (c *Client) vmAverageCPU(ctx context.Context, resourceID string) (float64, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)

	params := url.Values{
		"api-version": {metricsAPIVersion},
		"metricnames": {"Percentage CPU"},
		"aggregation": {"Average"},
		"timespan":    {start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339)},
		"interval":    {"P1D"},
	}
	reqURL := fmt.Sprintf("%s%s/providers/Microsoft.Insights/metrics?%s", c.armBase, resourceID, params.Encode())

	var decoded metricsResponse
	if err := c.getJSON(ctx, reqURL, &decoded); err != nil {
		return 0, err
	}

	sum, count := 0.0, 0
	for _, m := range decoded.Value {
		for _, ts := range m.Timeseries {
			for _, d := range ts.Data {
				if d.Average == nil {
					continue
				}
				sum += *d.Average
				count++
			}
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("no CPU datapoints for %s", resourceID)
	}
	return sum / float64(count), nil
}

// resourceGroupFromID extracts the resource group segment of an ARM ID.
func resourceGroupFromID(id string) string {
	parts := strings.Split(id, "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}

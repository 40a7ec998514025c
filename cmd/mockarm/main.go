// Command mockarm serves a fake subset of the Azure Resource Manager API so
// costpilot can be exercised locally without a real tenant. Point the client
// at it by overriding the management and login endpoints.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

func main() {
	port := flag.Int("port", 9090, "Mock ARM port")
	flag.Parse()

	mux := http.NewServeMux()

	// Token endpoint: any tenant path is accepted.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/oauth2/v2.0/token") || strings.HasSuffix(r.URL.Path, "/metadata/identity/oauth2/token") {
			writeJSON(w, map[string]any{
				"access_token": "mock-token",
				"expires_in":   "3600",
				"token_type":   "Bearer",
			})
			return
		}
		switch {
		case strings.Contains(r.URL.Path, "Microsoft.CostManagement/query"):
			writeJSON(w, costQueryResult())
		case strings.Contains(r.URL.Path, "Microsoft.Insights/eventtypes/management/values"):
			writeJSON(w, activityLog())
		case strings.Contains(r.URL.Path, "Microsoft.Consumption/budgets"):
			writeJSON(w, budgets())
		case strings.Contains(r.URL.Path, "Microsoft.Network/publicIPAddresses"):
			writeJSON(w, publicIPs())
		case strings.Contains(r.URL.Path, "Microsoft.Network/networkSecurityGroups"):
			writeJSON(w, networkSecurityGroups())
		case strings.Contains(r.URL.Path, "Microsoft.Network/loadBalancers"):
			writeJSON(w, loadBalancers())
		case strings.Contains(r.URL.Path, "Microsoft.Insights/metrics"):
			writeJSON(w, cpuMetrics())
		case strings.Contains(r.URL.Path, "Microsoft.Compute/virtualMachines"):
			writeJSON(w, virtualMachines())
		default:
			http.NotFound(w, r)
		}
	})

	log.Printf("Mock ARM API listening on :%d", *port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", *port), mux))
}

// costQueryResult builds 30 days of per-service rows with a deliberate
// spike on day 25 so spike detection has something to find.
func costQueryResult() any {
	services := map[string]float64{
		"Virtual Machines":         95,
		"Azure Kubernetes Service": 60,
		"Storage":                  22,
		"Azure SQL Database":       45,
	}

	rows := make([][]any, 0, 30*len(services))
	start := time.Now().UTC().AddDate(0, 0, -30)
	for day := 0; day < 30; day++ {
		date := start.AddDate(0, 0, day)
		for svc, base := range services {
			cost := base + rand.Float64()*base*0.1
			if day == 25 && svc == "Virtual Machines" {
				cost *= 3
			}
			rows = append(rows, []any{cost, date.Format("20060102"), svc, "USD"})
		}
	}

	return map[string]any{
		"properties": map[string]any{
			"columns": []map[string]string{
				{"name": "Cost", "type": "Number"},
				{"name": "UsageDate", "type": "String"},
				{"name": "ServiceName", "type": "String"},
				{"name": "Currency", "type": "String"},
			},
			"rows": rows,
		},
	}
}

func activityLog() any {
	now := time.Now().UTC()
	event := func(age time.Duration, op, rg, rt, id string) map[string]any {
		return map[string]any{
			"eventTimestamp":    now.Add(-age).Format(time.RFC3339),
			"operationName":     map[string]string{"value": op},
			"resourceGroupName": rg,
			"resourceType":      map[string]string{"value": rt},
			"resourceId":        id,
		}
	}
	return map[string]any{
		"value": []map[string]any{
			event(4*time.Hour, "Microsoft.Compute/virtualMachines/Write", "rg-prod", "Microsoft.Compute/virtualMachines",
				"/subscriptions/mock/resourceGroups/rg-prod/providers/Microsoft.Compute/virtualMachines/web-03"),
			event(7*time.Hour, "Microsoft.Sql/servers/databases/Update", "rg-prod", "Microsoft.Sql/servers/databases",
				"/subscriptions/mock/resourceGroups/rg-prod/providers/Microsoft.Sql/servers/sql01/databases/orders"),
			event(10*time.Hour, "Microsoft.Compute/virtualMachines/read", "rg-prod", "Microsoft.Compute/virtualMachines",
				"/subscriptions/mock/resourceGroups/rg-prod/providers/Microsoft.Compute/virtualMachines/web-01"),
		},
	}
}

func budgets() any {
	return map[string]any{
		"value": []map[string]any{
			{
				"name": "monthly-budget",
				"properties": map[string]any{
					"amount":        8000.0,
					"currentSpend":  map[string]any{"amount": 6900.0},
					"forecastSpend": map[string]any{"amount": 8200.0},
				},
			},
		},
	}
}

func publicIPs() any {
	return map[string]any{
		"value": []map[string]any{
			{
				"name": "pip-web",
				"id":   "/subscriptions/mock/resourceGroups/rg-prod/providers/Microsoft.Network/publicIPAddresses/pip-web",
				"properties": map[string]any{
					"ipConfiguration": map[string]string{"id": "/subscriptions/mock/ipconfig/web"},
				},
			},
			{
				"name":       "pip-orphan",
				"id":         "/subscriptions/mock/resourceGroups/rg-old/providers/Microsoft.Network/publicIPAddresses/pip-orphan",
				"properties": map[string]any{},
			},
		},
	}
}

func networkSecurityGroups() any {
	return map[string]any{
		"value": []map[string]any{
			{
				"name": "nsg-web",
				"id":   "/subscriptions/mock/resourceGroups/rg-prod/providers/Microsoft.Network/networkSecurityGroups/nsg-web",
				"properties": map[string]any{
					"networkInterfaces": []map[string]string{{"id": "/subscriptions/mock/nic/web01"}},
					"subnets":           []map[string]string{},
					"securityRules": []map[string]any{
						{
							"name": "allow-ssh-anywhere",
							"properties": map[string]string{
								"direction":            "Inbound",
								"access":               "Allow",
								"sourceAddressPrefix":  "*",
								"destinationPortRange": "22",
							},
						},
					},
				},
			},
			{
				"name": "nsg-orphan",
				"id":   "/subscriptions/mock/resourceGroups/rg-old/providers/Microsoft.Network/networkSecurityGroups/nsg-orphan",
				"properties": map[string]any{
					"networkInterfaces": []map[string]string{},
					"subnets":           []map[string]string{},
					"securityRules":     []map[string]any{},
				},
			},
		},
	}
}

func loadBalancers() any {
	return map[string]any{
		"value": []map[string]any{
			{
				"name": "lb-idle",
				"id":   "/subscriptions/mock/resourceGroups/rg-old/providers/Microsoft.Network/loadBalancers/lb-idle",
				"sku":  map[string]string{"name": "Standard"},
				"properties": map[string]any{
					"backendAddressPools": []map[string]any{
						{"properties": map[string]any{"backendIPConfigurations": []map[string]string{}}},
					},
				},
			},
		},
	}
}

func virtualMachines() any {
	vm := func(name, rg, size string) map[string]any {
		return map[string]any{
			"name": name,
			"id":   fmt.Sprintf("/subscriptions/mock/resourceGroups/%s/providers/Microsoft.Compute/virtualMachines/%s", rg, name),
			"properties": map[string]any{
				"hardwareProfile": map[string]string{"vmSize": size},
			},
		}
	}
	return map[string]any{
		"value": []map[string]any{
			vm("web-01", "rg-prod", "Standard_D2s_v3"),
			vm("web-03", "rg-prod", "Standard_D4s_v3"),
			vm("batch-old", "rg-old", "Standard_B2s"),
		},
	}
}

func cpuMetrics() any {
	data := make([]map[string]any, 0, 7)
	for day := 0; day < 7; day++ {
		data = append(data, map[string]any{"average": 2 + rand.Float64()*4})
	}
	return map[string]any{
		"value": []map[string]any{
			{
				"name":       map[string]string{"value": "Percentage CPU"},
				"timeseries": []map[string]any{{"data": data}},
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

package hygiene

import (
	"fmt"
	"sort"
	"strings"
)

// Thresholds controls what counts as waste.
type Thresholds struct {
	// IdleCPUPercent is the average CPU below which a running VM is
	// flagged as underutilized.
	IdleCPUPercent float64
}

// DefaultThresholds matches the common FinOps starting point.
var DefaultThresholds = Thresholds{IdleCPUPercent: 5}

// Finding is one wasteful or risky resource.
type Finding struct {
	ResourceName         string  `json:"resourceName"`
	ResourceGroup        string  `json:"resourceGroup"`
	Description          string  `json:"description"`
	EstimatedMonthlyCost float64 `json:"estimatedMonthlyCost"`
}

// NetworkFinding is a security misconfiguration on a network resource.
type NetworkFinding struct {
	ResourceName  string `json:"resourceName"`
	ResourceGroup string `json:"resourceGroup"`
	RuleName      string `json:"ruleName"`
	Description   string `json:"description"`
	Severity      string `json:"severity"`
}

// Findings groups the analyzer output by category. Every slice is non-nil
// so serialized output always carries explicit empty lists.
type Findings struct {
	UnusedPublicIPs       []Finding        `json:"unusedPublicIPs"`
	OrphanedNSGs          []Finding        `json:"orphanedNSGs"`
	IdleLoadBalancers     []Finding        `json:"idleLoadBalancers"`
	UnderutilizedVMs      []Finding        `json:"underutilizedVMs"`
	NetworkFindings       []NetworkFinding `json:"networkFindings"`
	EstimatedMonthlyWaste float64          `json:"estimatedMonthlyWaste"`
}

// EmptyFindings returns a Findings with every category explicitly empty.
func EmptyFindings() Findings {
	return Findings{
		UnusedPublicIPs:   []Finding{},
		OrphanedNSGs:      []Finding{},
		IdleLoadBalancers: []Finding{},
		UnderutilizedVMs:  []Finding{},
		NetworkFindings:   []NetworkFinding{},
	}
}

// Static monthly price anchors for waste estimates. These are deliberately
// coarse; the point is triage ordering, not billing accuracy.
const (
	publicIPMonthlyCost = 3.65
	basicLBMonthlyCost  = 18.25
)

// vmMonthlyCost maps common Azure VM sizes to approximate monthly on-demand
// cost. Sizes not listed fall back to a conservative default.
var vmMonthlyCost = map[string]float64{
	"Standard_B2s":     30.37,
	"Standard_B2ms":    60.74,
	"Standard_D2s_v3":  70.08,
	"Standard_D4s_v3":  140.16,
	"Standard_D8s_v3":  280.32,
	"Standard_E2s_v3":  92.00,
	"Standard_E4s_v3":  184.00,
	"Standard_F2s_v2":  61.76,
	"Standard_F4s_v2":  123.52,
	"Standard_DS1_v2":  53.29,
	"Standard_DS2_v2":  106.58,
}

const defaultVMMonthlyCost = 100.0

// sensitivePorts are destination ports that should never accept traffic
// from the whole internet.
var sensitivePorts = map[string]string{
	"22":    "SSH",
	"3389":  "RDP",
	"1433":  "SQL Server",
	"3306":  "MySQL",
	"5432":  "PostgreSQL",
	"27017": "MongoDB",
	"6379":  "Redis",
}

// Analyze inspects the inventory and returns categorized findings. Pure:
// no I/O, deterministic output ordering.
func Analyze(inv Inventory, t Thresholds) Findings {
	if t.IdleCPUPercent <= 0 {
		t.IdleCPUPercent = DefaultThresholds.IdleCPUPercent
	}
	out := EmptyFindings()

	for _, ip := range inv.PublicIPs {
		if ip.Associated {
			continue
		}
		out.UnusedPublicIPs = append(out.UnusedPublicIPs, Finding{
			ResourceName:         ip.Name,
			ResourceGroup:        ip.ResourceGroup,
			Description:          fmt.Sprintf("Public IP %q is not associated with any resource", ip.Name),
			EstimatedMonthlyCost: publicIPMonthlyCost,
		})
	}

	for _, nsg := range inv.NSGs {
		if nsg.AttachedNICs == 0 && nsg.Subnets == 0 {
			out.OrphanedNSGs = append(out.OrphanedNSGs, Finding{
				ResourceName:  nsg.Name,
				ResourceGroup: nsg.ResourceGroup,
				Description:   fmt.Sprintf("NSG %q is not attached to any NIC or subnet", nsg.Name),
			})
		}
		out.NetworkFindings = append(out.NetworkFindings, openRuleFindings(nsg)...)
	}

	for _, lb := range inv.LoadBalancers {
		if lb.BackendCount > 0 {
			continue
		}
		out.IdleLoadBalancers = append(out.IdleLoadBalancers, Finding{
			ResourceName:         lb.Name,
			ResourceGroup:        lb.ResourceGroup,
			Description:          fmt.Sprintf("Load balancer %q has no backend pool members", lb.Name),
			EstimatedMonthlyCost: basicLBMonthlyCost,
		})
	}

	for _, vm := range inv.VMs {
		if vm.PowerState != "" && !strings.EqualFold(vm.PowerState, "running") {
			continue
		}
		if vm.AvgCPUPercent < 0 || vm.AvgCPUPercent >= t.IdleCPUPercent {
			continue
		}
		cost, ok := vmMonthlyCost[vm.Size]
		if !ok {
			cost = defaultVMMonthlyCost
		}
		out.UnderutilizedVMs = append(out.UnderutilizedVMs, Finding{
			ResourceName:  vm.Name,
			ResourceGroup: vm.ResourceGroup,
			Description: fmt.Sprintf("VM %q (%s) averages %.1f%% CPU, below the %.0f%% idle threshold",
				vm.Name, vm.Size, vm.AvgCPUPercent, t.IdleCPUPercent),
			EstimatedMonthlyCost: cost,
		})
	}

	for _, f := range out.UnusedPublicIPs {
		out.EstimatedMonthlyWaste += f.EstimatedMonthlyCost
	}
	for _, f := range out.IdleLoadBalancers {
		out.EstimatedMonthlyWaste += f.EstimatedMonthlyCost
	}
	for _, f := range out.UnderutilizedVMs {
		out.EstimatedMonthlyWaste += f.EstimatedMonthlyCost
	}

	sortFindings(out.UnusedPublicIPs)
	sortFindings(out.OrphanedNSGs)
	sortFindings(out.IdleLoadBalancers)
	sortFindings(out.UnderutilizedVMs)
	sort.Slice(out.NetworkFindings, func(i, j int) bool {
		if out.NetworkFindings[i].ResourceName != out.NetworkFindings[j].ResourceName {
			return out.NetworkFindings[i].ResourceName < out.NetworkFindings[j].ResourceName
		}
		return out.NetworkFindings[i].RuleName < out.NetworkFindings[j].RuleName
	})

	return out
}

// openRuleFindings flags inbound allow rules reachable from the whole
// internet. Sensitive ports are high severity, everything else medium.
func openRuleFindings(nsg NSG) []NetworkFinding {
	var out []NetworkFinding
	for _, rule := range nsg.Rules {
		if !strings.EqualFold(rule.Direction, "Inbound") || !strings.EqualFold(rule.Access, "Allow") {
			continue
		}
		if rule.SourcePrefix != "*" && rule.SourcePrefix != "0.0.0.0/0" && !strings.EqualFold(rule.SourcePrefix, "Internet") {
			continue
		}

		severity := "medium"
		desc := fmt.Sprintf("Rule %q allows inbound traffic from any source to port %s", rule.Name, rule.DestinationPort)
		if svc, sensitive := sensitivePorts[rule.DestinationPort]; sensitive {
			severity = "high"
			desc = fmt.Sprintf("Rule %q exposes %s (port %s) to the entire internet", rule.Name, svc, rule.DestinationPort)
		} else if rule.DestinationPort == "*" {
			severity = "high"
			desc = fmt.Sprintf("Rule %q allows inbound traffic from any source to all ports", rule.Name)
		}

		out = append(out, NetworkFinding{
			ResourceName:  nsg.Name,
			ResourceGroup: nsg.ResourceGroup,
			RuleName:      rule.Name,
			Description:   desc,
			Severity:      severity,
		})
	}
	return out
}

func sortFindings(fs []Finding) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].ResourceName < fs[j].ResourceName })
}

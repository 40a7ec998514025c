package hygiene

import (
	"math"
	"testing"
)

func TestAnalyzeUnusedPublicIPs(t *testing.T) {
	inv := Inventory{
		PublicIPs: []PublicIP{
			{Name: "ip-attached", ResourceGroup: "rg", Associated: true},
			{Name: "ip-floating", ResourceGroup: "rg", Associated: false},
		},
	}
	got := Analyze(inv, DefaultThresholds)
	if len(got.UnusedPublicIPs) != 1 {
		t.Fatalf("expected 1 unused IP, got %d", len(got.UnusedPublicIPs))
	}
	if got.UnusedPublicIPs[0].ResourceName != "ip-floating" {
		t.Errorf("flagged %q, want ip-floating", got.UnusedPublicIPs[0].ResourceName)
	}
	if got.UnusedPublicIPs[0].EstimatedMonthlyCost <= 0 {
		t.Error("unused IP should carry a waste estimate")
	}
}

func TestAnalyzeOrphanedNSGs(t *testing.T) {
	inv := Inventory{
		NSGs: []NSG{
			{Name: "nsg-used", AttachedNICs: 2},
			{Name: "nsg-subnet", Subnets: 1},
			{Name: "nsg-orphan"},
		},
	}
	got := Analyze(inv, DefaultThresholds)
	if len(got.OrphanedNSGs) != 1 {
		t.Fatalf("expected 1 orphaned NSG, got %d", len(got.OrphanedNSGs))
	}
	if got.OrphanedNSGs[0].ResourceName != "nsg-orphan" {
		t.Errorf("flagged %q, want nsg-orphan", got.OrphanedNSGs[0].ResourceName)
	}
}

func TestAnalyzeIdleLoadBalancers(t *testing.T) {
	inv := Inventory{
		LoadBalancers: []LoadBalancer{
			{Name: "lb-busy", BackendCount: 3},
			{Name: "lb-idle", BackendCount: 0},
		},
	}
	got := Analyze(inv, DefaultThresholds)
	if len(got.IdleLoadBalancers) != 1 || got.IdleLoadBalancers[0].ResourceName != "lb-idle" {
		t.Fatalf("expected lb-idle flagged, got %+v", got.IdleLoadBalancers)
	}
}

func TestAnalyzeUnderutilizedVMs(t *testing.T) {
	inv := Inventory{
		VMs: []VM{
			{Name: "vm-busy", Size: "Standard_D2s_v3", PowerState: "running", AvgCPUPercent: 45},
			{Name: "vm-idle", Size: "Standard_D2s_v3", PowerState: "running", AvgCPUPercent: 2},
			{Name: "vm-stopped", Size: "Standard_D2s_v3", PowerState: "deallocated", AvgCPUPercent: 0},
			{Name: "vm-no-telemetry", Size: "Standard_D2s_v3", PowerState: "running", AvgCPUPercent: -1},
		},
	}
	got := Analyze(inv, Thresholds{IdleCPUPercent: 5})
	if len(got.UnderutilizedVMs) != 1 {
		t.Fatalf("expected only vm-idle flagged, got %+v", got.UnderutilizedVMs)
	}
	f := got.UnderutilizedVMs[0]
	if f.ResourceName != "vm-idle" {
		t.Errorf("flagged %q, want vm-idle", f.ResourceName)
	}
	if f.EstimatedMonthlyCost != vmMonthlyCost["Standard_D2s_v3"] {
		t.Errorf("EstimatedMonthlyCost = %v, want size-table value", f.EstimatedMonthlyCost)
	}
}

func TestAnalyzeUnknownVMSizeUsesDefaultCost(t *testing.T) {
	inv := Inventory{
		VMs: []VM{{Name: "vm-exotic", Size: "Standard_X99", PowerState: "running", AvgCPUPercent: 1}},
	}
	got := Analyze(inv, DefaultThresholds)
	if len(got.UnderutilizedVMs) != 1 {
		t.Fatal("expected exotic VM flagged")
	}
	if got.UnderutilizedVMs[0].EstimatedMonthlyCost != defaultVMMonthlyCost {
		t.Errorf("EstimatedMonthlyCost = %v, want default", got.UnderutilizedVMs[0].EstimatedMonthlyCost)
	}
}

func TestAnalyzeNetworkFindings(t *testing.T) {
	inv := Inventory{
		NSGs: []NSG{{
			Name:         "nsg-web",
			AttachedNICs: 1,
			Rules: []SecurityRule{
				{Name: "allow-ssh-any", Direction: "Inbound", Access: "Allow", SourcePrefix: "*", DestinationPort: "22"},
				{Name: "allow-https-any", Direction: "Inbound", Access: "Allow", SourcePrefix: "0.0.0.0/0", DestinationPort: "443"},
				{Name: "allow-all-any", Direction: "Inbound", Access: "Allow", SourcePrefix: "Internet", DestinationPort: "*"},
				{Name: "allow-internal", Direction: "Inbound", Access: "Allow", SourcePrefix: "10.0.0.0/8", DestinationPort: "22"},
				{Name: "deny-all", Direction: "Inbound", Access: "Deny", SourcePrefix: "*", DestinationPort: "*"},
				{Name: "outbound-any", Direction: "Outbound", Access: "Allow", SourcePrefix: "*", DestinationPort: "*"},
			},
		}},
	}
	got := Analyze(inv, DefaultThresholds)
	if len(got.NetworkFindings) != 3 {
		t.Fatalf("expected 3 network findings, got %d: %+v", len(got.NetworkFindings), got.NetworkFindings)
	}

	bySeverity := map[string]string{}
	for _, f := range got.NetworkFindings {
		bySeverity[f.RuleName] = f.Severity
	}
	if bySeverity["allow-ssh-any"] != "high" {
		t.Errorf("SSH open to internet should be high, got %q", bySeverity["allow-ssh-any"])
	}
	if bySeverity["allow-all-any"] != "high" {
		t.Errorf("all-ports rule should be high, got %q", bySeverity["allow-all-any"])
	}
	if bySeverity["allow-https-any"] != "medium" {
		t.Errorf("non-sensitive port should be medium, got %q", bySeverity["allow-https-any"])
	}
}

func TestAnalyzeWasteTotal(t *testing.T) {
	inv := Inventory{
		PublicIPs:     []PublicIP{{Name: "ip-1"}},
		LoadBalancers: []LoadBalancer{{Name: "lb-1"}},
		VMs:           []VM{{Name: "vm-1", Size: "Standard_B2s", PowerState: "running", AvgCPUPercent: 1}},
	}
	got := Analyze(inv, DefaultThresholds)
	want := publicIPMonthlyCost + basicLBMonthlyCost + vmMonthlyCost["Standard_B2s"]
	if math.Abs(got.EstimatedMonthlyWaste-want) > 0.001 {
		t.Errorf("EstimatedMonthlyWaste = %v, want %v", got.EstimatedMonthlyWaste, want)
	}
}

func TestAnalyzeEmptyInventory(t *testing.T) {
	got := Analyze(Inventory{}, DefaultThresholds)
	if got.UnusedPublicIPs == nil || got.OrphanedNSGs == nil || got.IdleLoadBalancers == nil ||
		got.UnderutilizedVMs == nil || got.NetworkFindings == nil {
		t.Error("every category must be an explicit empty slice, not nil")
	}
	if got.EstimatedMonthlyWaste != 0 {
		t.Errorf("EstimatedMonthlyWaste = %v, want 0", got.EstimatedMonthlyWaste)
	}
}

func TestAnalyzeZeroThresholdFallsBackToDefault(t *testing.T) {
	inv := Inventory{
		VMs: []VM{{Name: "vm-idle", Size: "Standard_B2s", PowerState: "running", AvgCPUPercent: 2}},
	}
	got := Analyze(inv, Thresholds{})
	if len(got.UnderutilizedVMs) != 1 {
		t.Error("zero threshold should fall back to the default idle threshold")
	}
}

// Package hygiene finds waste and risk in a tenant's resource inventory:
// unattached public IPs, orphaned network security groups, idle load
// balancers, underutilized VMs, and security rules open to the internet.
// All analysis is pure; fetching the inventory belongs to the azure package.
package hygiene

// PublicIP is a provisioned public IP address.
type PublicIP struct {
	Name          string
	ResourceGroup string
	Associated    bool // attached to a NIC or load balancer frontend
}

// SecurityRule is one inbound rule of a network security group.
type SecurityRule struct {
	Name            string
	Direction       string // Inbound or Outbound
	Access          string // Allow or Deny
	SourcePrefix    string
	DestinationPort string
}

// NSG is a network security group with its attachment state and rules.
type NSG struct {
	Name          string
	ResourceGroup string
	AttachedNICs  int
	Subnets       int
	Rules         []SecurityRule
}

// LoadBalancer is a load balancer with backend pool membership counts.
type LoadBalancer struct {
	Name          string
	ResourceGroup string
	BackendCount  int
	Sku           string
}

// VM is a virtual machine with its size and observed CPU utilization.
type VM struct {
	Name          string
	ResourceGroup string
	Size          string
	PowerState    string
	AvgCPUPercent float64 // average over the telemetry window; <0 when unknown
}

// Inventory is everything the analyzer needs, fetched in one pass.
type Inventory struct {
	PublicIPs     []PublicIP
	NSGs          []NSG
	LoadBalancers []LoadBalancer
	VMs           []VM
}

package schemas

// -- Scan Submission Schemas --

// Scan wizard modes. Each mode owns its own option defaults; the backend
// re-validates everything, the client-side preview is advisory only.
const (
	ScanModeEasy             = "easy"
	ScanModeHard             = "hard"
	ScanModeRFC1918Discovery = "rfc1918_discovery"
)

// ScanOptions is the structured option set sent with a scan submission.
// The backend builds the actual invocation from these fields; the rendered
// preview string never leaves the client.
type ScanOptions struct {
	Discovery         bool   `json:"discovery"`
	HostDiscoveryOnly bool   `json:"host_discovery_only"`
	SkipDNS           bool   `json:"skip_dns"`
	ARPPing           bool   `json:"arp_ping"`
	ForcePn           bool   `json:"force_pn"`
	Timing            string `json:"timing"`
	TopPorts          int    `json:"top_ports"`
	FullPorts         bool   `json:"full_ports"`
	ServiceDetection  bool   `json:"service_detection"`
	DefaultScripts    bool   `json:"default_scripts"`
	OSDetection       bool   `json:"os_detection"`
	Aggressive        bool   `json:"aggressive"`
	VulnScripts       bool   `json:"vuln_scripts"`
}

// ScanRequest is the structured payload of the scan submission endpoint.
type ScanRequest struct {
	Targets   []string    `json:"targets"`
	ScanMode  string      `json:"scan_mode"`
	Options   ScanOptions `json:"scan_options"`
	ExtraArgs string      `json:"nmap_args"`
	Discovery bool        `json:"discovery"`
}

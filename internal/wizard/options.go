// File: internal/wizard/options.go
package wizard

import (
	"strings"
)

// Mode selects one of the wizard's scan profiles. Each mode owns its own
// option subset and its own target-range defaults.
type Mode string

const (
	ModeEasy             Mode = "easy"
	ModeHard             Mode = "hard"
	ModeRFC1918Discovery Mode = "rfc1918_discovery"
)

// The three private address ranges offered by the discovery sweep.
const (
	Range10  = "10.0.0.0/8"
	Range172 = "172.16.0.0/12"
	Range192 = "192.168.0.0/16"
)

// Options is the full wizard option surface. Which fields are active depends
// on the mode; switching modes resets everything to that mode's defaults.
type Options struct {
	Discovery         bool
	HostDiscoveryOnly bool
	SkipDNS           bool
	ARPPing           bool
	ForcePn           bool
	Timing            string
	// TopPorts is kept as raw operator input so validation can report exactly
	// what was typed.
	TopPorts         string
	FullPorts        bool
	ServiceDetection bool
	DefaultScripts   bool
	OSDetection      bool
	Aggressive       bool
	VulnScripts      bool

	// RFC1918 range checkboxes; active only in rfc1918_discovery mode. The
	// other modes keep them cleared and disabled.
	Range10  bool
	Range172 bool
	Range192 bool
}

// defaultsFor returns the option defaults a mode resets to.
func defaultsFor(mode Mode) Options {
	switch mode {
	case ModeHard:
		return Options{
			Discovery:        false,
			SkipDNS:          true,
			Timing:           "T4",
			TopPorts:         "1000",
			FullPorts:        true,
			ServiceDetection: true,
			DefaultScripts:   true,
			OSDetection:      true,
		}
	case ModeRFC1918Discovery:
		return Options{
			Discovery:         true,
			HostDiscoveryOnly: true,
			SkipDNS:           true,
			Timing:            "T3",
			TopPorts:          "100",
			Range10:           true,
			Range172:          true,
			Range192:          true,
		}
	default: // ModeEasy
		return Options{
			Discovery:        true,
			SkipDNS:          true,
			Timing:           "T3",
			TopPorts:         "1000",
			ServiceDetection: true,
			DefaultScripts:   true,
		}
	}
}

// RangesEnabled reports whether the RFC1918 checkboxes are active for a mode.
func RangesEnabled(mode Mode) bool {
	return mode == ModeRFC1918Discovery
}

// selectedRanges returns the checked private ranges in canonical order.
func (o Options) selectedRanges() []string {
	var ranges []string
	if o.Range10 {
		ranges = append(ranges, Range10)
	}
	if o.Range172 {
		ranges = append(ranges, Range172)
	}
	if o.Range192 {
		ranges = append(ranges, Range192)
	}
	return ranges
}

// normalizeTiming clamps a timing template to nmap's T0..T5, defaulting to T3.
func normalizeTiming(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "T3"
	}
	if !strings.HasPrefix(value, "T") {
		value = "T" + value
	}
	switch value {
	case "T0", "T1", "T2", "T3", "T4", "T5":
		return value
	}
	return "T3"
}

// portFieldApplies reports whether the top-ports count takes part in
// validation and command assembly: not in a host-discovery-only sweep, and
// not when a full port scan supersedes it.
func (o Options) portFieldApplies() bool {
	return !o.HostDiscoveryOnly && !o.FullPorts
}

// File: internal/wizard/wizard.go
package wizard

import (
	"fmt"
	"strings"

	"github.com/periscope-sec/periscope-cli/api/schemas"
)

// Wizard is the scan command wizard's state machine: three pages, a selected
// mode with mode-owned option defaults, and a one-shot submit lock that only
// releases once at least one input has changed since the wizard was opened
// or reset.
//
// The wizard is owned by a single UI execution context. It is not safe for
// concurrent use and does not need to be: every mutation happens through the
// methods below, from one goroutine.
type Wizard struct {
	page     int
	mode     Mode
	lastMode Mode
	// dirty releases the submit lock; it flips on the first input change and
	// is only re-armed by Reset.
	dirty bool

	binary       string
	targetsRaw   string
	extraArgs    string
	outputPrefix string
	opts         Options
}

// Validation is the outcome of the wizard's local rule check. Reason is a
// human-readable explanation tied to the failing rule; it never reaches the
// network.
type Validation struct {
	OK     bool
	Reason string
}

// New opens a fresh wizard: page 1, easy-mode defaults, submit lock armed.
func New() *Wizard {
	return &Wizard{
		page:         1,
		mode:         ModeEasy,
		lastMode:     ModeEasy,
		binary:       "nmap",
		outputPrefix: "scan",
		opts:         defaultsFor(ModeEasy),
	}
}

// Page returns the current page, in [1,3].
func (w *Wizard) Page() int { return w.page }

// Mode returns the selected scan mode.
func (w *Wizard) Mode() Mode { return w.mode }

// LastMode returns the mode selected before the current one.
func (w *Wizard) LastMode() Mode { return w.lastMode }

// Options returns a copy of the current option set.
func (w *Wizard) Options() Options { return w.opts }

// SubmitLocked reports whether the one-shot submit lock is still armed.
func (w *Wizard) SubmitLocked() bool { return !w.dirty }

// SelectMode switches modes. Switching always re-applies the new mode's
// option defaults and target-range controls before anything else; stale
// options from the previous mode never leak through. From page 1, selecting
// a mode auto-advances to page 2.
func (w *Wizard) SelectMode(mode Mode) {
	switch mode {
	case ModeEasy, ModeHard, ModeRFC1918Discovery:
	default:
		return
	}
	w.lastMode = w.mode
	w.mode = mode
	w.opts = defaultsFor(mode)
	w.dirty = true
	if w.page == 1 {
		w.page = 2
	}
}

// Next advances one page, clamped at page 3.
func (w *Wizard) Next() {
	if w.page < 3 {
		w.page++
	}
}

// Back retreats one page, clamped at page 1.
func (w *Wizard) Back() {
	if w.page > 1 {
		w.page--
	}
}

// Reset returns to page 1 with easy-mode defaults and the submit lock re-armed.
func (w *Wizard) Reset() {
	w.page = 1
	w.lastMode = w.mode
	w.mode = ModeEasy
	w.opts = defaultsFor(ModeEasy)
	w.targetsRaw = ""
	w.extraArgs = ""
	w.dirty = false
}

// -- Input setters. Every accepted change releases the submit lock. --

// SetTargets replaces the explicit target text (whitespace or comma separated).
func (w *Wizard) SetTargets(raw string) {
	w.targetsRaw = raw
	w.dirty = true
}

// SetExtraArgs replaces the user-supplied extra argument string.
func (w *Wizard) SetExtraArgs(raw string) {
	w.extraArgs = raw
	w.dirty = true
}

// SetOutputPrefix replaces the output file prefix.
func (w *Wizard) SetOutputPrefix(prefix string) {
	w.outputPrefix = prefix
	w.dirty = true
}

// SetBinary replaces the scanner binary path used in the preview.
func (w *Wizard) SetBinary(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	w.binary = strings.TrimSpace(path)
	w.dirty = true
}

// SetTiming sets the timing template (T0..T5; invalid values fall back to T3
// at assembly time).
func (w *Wizard) SetTiming(timing string) {
	w.opts.Timing = timing
	w.dirty = true
}

// SetTopPorts sets the raw top-ports count field.
func (w *Wizard) SetTopPorts(raw string) {
	w.opts.TopPorts = raw
	w.dirty = true
}

// SetFullPorts toggles the full port scan. Enabling it disables the top-ports
// field and excludes it from validation.
func (w *Wizard) SetFullPorts(on bool) {
	w.opts.FullPorts = on
	w.dirty = true
}

// SetHostDiscoveryOnly toggles the host-discovery-only sweep.
func (w *Wizard) SetHostDiscoveryOnly(on bool) {
	w.opts.HostDiscoveryOnly = on
	w.dirty = true
}

// SetDiscovery toggles host discovery (off forces -Pn).
func (w *Wizard) SetDiscovery(on bool) {
	w.opts.Discovery = on
	w.dirty = true
}

// SetSkipDNS toggles DNS resolution skipping.
func (w *Wizard) SetSkipDNS(on bool) {
	w.opts.SkipDNS = on
	w.dirty = true
}

// SetARPPing toggles ARP ping in the discovery sweep.
func (w *Wizard) SetARPPing(on bool) {
	w.opts.ARPPing = on
	w.dirty = true
}

// SetForcePn forces -Pn regardless of the discovery toggle.
func (w *Wizard) SetForcePn(on bool) {
	w.opts.ForcePn = on
	w.dirty = true
}

// SetServiceDetection toggles -sV.
func (w *Wizard) SetServiceDetection(on bool) {
	w.opts.ServiceDetection = on
	w.dirty = true
}

// SetDefaultScripts toggles -sC.
func (w *Wizard) SetDefaultScripts(on bool) {
	w.opts.DefaultScripts = on
	w.dirty = true
}

// SetOSDetection toggles -O.
func (w *Wizard) SetOSDetection(on bool) {
	w.opts.OSDetection = on
	w.dirty = true
}

// SetAggressive toggles -A, which supersedes the individual detection flags.
func (w *Wizard) SetAggressive(on bool) {
	w.opts.Aggressive = on
	w.dirty = true
}

// SetVulnScripts toggles the vulnerability script set.
func (w *Wizard) SetVulnScripts(on bool) {
	w.opts.VulnScripts = on
	w.dirty = true
}

// SetRange checks or unchecks one RFC1918 range. Outside the discovery mode
// the checkboxes are disabled, so the call is ignored entirely.
func (w *Wizard) SetRange(cidr string, checked bool) {
	if !RangesEnabled(w.mode) {
		return
	}
	switch cidr {
	case Range10:
		w.opts.Range10 = checked
	case Range172:
		w.opts.Range172 = checked
	case Range192:
		w.opts.Range192 = checked
	default:
		return
	}
	w.dirty = true
}

// ExplicitTargets parses the target text into tokens.
func (w *Wizard) ExplicitTargets() []string {
	fields := strings.FieldsFunc(w.targetsRaw, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	targets := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			targets = append(targets, f)
		}
	}
	return targets
}

// ResolvedTargets is the final target token list: explicit targets first,
// then (in discovery mode) the checked private ranges in canonical order.
func (w *Wizard) ResolvedTargets() []string {
	targets := w.ExplicitTargets()
	if w.mode == ModeRFC1918Discovery {
		targets = append(targets, w.opts.selectedRanges()...)
	}
	return targets
}

// Validate runs every local rule. All rules must hold before submission is
// possible; failures never reach the network.
func (w *Wizard) Validate() Validation {
	if len(w.ResolvedTargets()) == 0 {
		if w.mode == ModeRFC1918Discovery {
			return Validation{Reason: "Target required: select at least one private range or enter explicit targets."}
		}
		return Validation{Reason: "Target required: enter at least one scan target."}
	}

	if w.opts.portFieldApplies() {
		if _, err := ParseIntInRange(w.opts.TopPorts, 1, 65535); err != nil {
			return Validation{Reason: fmt.Sprintf("%s: top ports must be a whole number between 1 and 65535.", modeLabel(w.mode))}
		}
	}

	if _, err := SplitArgs(w.extraArgs); err != nil {
		return Validation{Reason: fmt.Sprintf("Extra arguments: %v.", err)}
	}

	return Validation{OK: true}
}

// CanSubmit reports whether submission is reachable right now: page 3, the
// submit lock released, and validation passing.
func (w *Wizard) CanSubmit() bool {
	return w.page == 3 && w.dirty && w.Validate().OK
}

// Request builds the structured scan request. It refuses to build one the
// backend would have to reject: validation must pass first.
func (w *Wizard) Request() (*schemas.ScanRequest, error) {
	if v := w.Validate(); !v.OK {
		return nil, fmt.Errorf("scan request is not valid: %s", v.Reason)
	}
	opts := w.opts
	return &schemas.ScanRequest{
		Targets:   w.ResolvedTargets(),
		ScanMode:  string(w.mode),
		Discovery: opts.Discovery,
		ExtraArgs: strings.TrimSpace(w.extraArgs),
		Options: schemas.ScanOptions{
			Discovery:         opts.Discovery,
			HostDiscoveryOnly: opts.HostDiscoveryOnly,
			SkipDNS:           opts.SkipDNS,
			ARPPing:           opts.ARPPing,
			ForcePn:           opts.ForcePn,
			Timing:            normalizeTiming(opts.Timing),
			TopPorts:          w.topPortsValue(),
			FullPorts:         opts.FullPorts,
			ServiceDetection:  opts.ServiceDetection,
			DefaultScripts:    opts.DefaultScripts,
			OSDetection:       opts.OSDetection,
			Aggressive:        opts.Aggressive,
			VulnScripts:       opts.VulnScripts,
		},
	}, nil
}

// topPortsValue resolves the numeric top-ports count for the request and the
// preview. When the field is excluded (discovery-only or full port scan) the
// mode default is carried so the payload stays well-formed.
func (w *Wizard) topPortsValue() int {
	if value, err := ParseIntInRange(w.opts.TopPorts, 1, 65535); err == nil {
		return value
	}
	fallback, _ := ParseIntInRange(defaultsFor(w.mode).TopPorts, 1, 65535)
	return fallback
}

func modeLabel(mode Mode) string {
	switch mode {
	case ModeEasy:
		return "Easy scan"
	case ModeHard:
		return "Hard scan"
	case ModeRFC1918Discovery:
		return "Discovery sweep"
	}
	return "Scan"
}

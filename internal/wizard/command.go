// File: internal/wizard/command.go
package wizard

import (
	"strconv"
	"strings"
)

// commandTokens assembles the scanner invocation in a fixed order so the
// preview is reproducible for identical inputs:
//
//	binary, probe/timing flags, port selection, detection flags, script
//	selection, extra arguments (with progress reporting injected when
//	absent), targets, output prefix.
//
// Invalid extra-argument text is reported by Validate; here it simply
// contributes nothing.
func (w *Wizard) commandTokens() []string {
	opts := w.opts
	tokens := []string{w.binary}

	if opts.HostDiscoveryOnly {
		tokens = append(tokens, "-sn")
		if opts.SkipDNS {
			tokens = append(tokens, "-n")
		}
		if opts.ARPPing {
			tokens = append(tokens, "-PR")
		}
		tokens = append(tokens, "-"+normalizeTiming(opts.Timing))
	} else {
		if opts.ForcePn || !opts.Discovery {
			tokens = append(tokens, "-Pn")
		}
		if opts.SkipDNS {
			tokens = append(tokens, "-n")
		}
		tokens = append(tokens, "-"+normalizeTiming(opts.Timing))

		if opts.FullPorts {
			tokens = append(tokens, "-p-")
		} else {
			tokens = append(tokens, "--top-ports", strconv.Itoa(w.topPortsValue()))
		}

		if opts.Aggressive {
			tokens = append(tokens, "-A")
		} else {
			if opts.ServiceDetection {
				tokens = append(tokens, "-sV")
			}
			if opts.DefaultScripts {
				tokens = append(tokens, "-sC")
			}
			if opts.OSDetection {
				tokens = append(tokens, "-O")
			}
		}

		if opts.VulnScripts {
			tokens = append(tokens, "--script", "vuln")
		}
	}

	extra, err := SplitArgs(w.extraArgs)
	if err != nil {
		extra = nil
	}
	tokens = append(tokens, withStatsEvery(extra)...)

	tokens = append(tokens, w.ResolvedTargets()...)

	if w.outputPrefix != "" {
		tokens = append(tokens, "-oA", w.outputPrefix)
	}
	return tokens
}

// Preview renders the command line the backend is expected to run, with every
// token quoted for a POSIX shell. It is display text, never executed locally.
func (w *Wizard) Preview() string {
	return JoinTokens(w.commandTokens())
}

// withStatsEvery appends periodic progress reporting unless the operator
// already asked for it in the extra arguments.
func withStatsEvery(extra []string) []string {
	for _, token := range extra {
		if token == "--stats-every" || strings.HasPrefix(token, "--stats-every=") {
			return extra
		}
	}
	return append(extra, "--stats-every", "15s")
}

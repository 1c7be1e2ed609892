// File: cmd/scan.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/periscope-sec/periscope-cli/api/schemas"
	"github.com/periscope-sec/periscope-cli/internal/client"
	"github.com/periscope-sec/periscope-cli/internal/observability"
	"github.com/periscope-sec/periscope-cli/internal/wizard"
)

// jobPollInterval is the fixed cadence for following a submitted job to its
// terminal state.
const jobPollInterval = 2 * time.Second

// newScanCmd creates the `scan` command. It drives the same wizard engine the
// interactive console uses: mode defaults, local validation and the command
// preview all come from one place.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [targets...]",
		Short: "Submit a scan to the backend and follow the job to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			wiz, err := wizardFromFlags(cmd, args)
			if err != nil {
				return err
			}

			// Walk the wizard to its confirmation page; the submit lock was
			// already released by the flag-driven inputs.
			wiz.Next()
			if !wiz.CanSubmit() {
				v := wiz.Validate()
				return fmt.Errorf("scan request rejected: %s", v.Reason)
			}

			preview := wiz.Preview()
			fmt.Printf("Command preview:\n  %s\n", preview)

			if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
				logger.Info("Dry run requested, not submitting", zap.String("preview", preview))
				return nil
			}

			req, err := wiz.Request()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			api := client.New(cfg.Server, logger)
			accepted, err := api.SubmitScan(ctx, req)
			if err != nil {
				return fmt.Errorf("scan submission failed: %w", err)
			}
			if accepted.Job == nil {
				return fmt.Errorf("backend accepted the scan but returned no job")
			}

			logger.Info("Scan submitted",
				zap.Int("job_id", accepted.Job.ID),
				zap.String("mode", string(wiz.Mode())),
				zap.Strings("targets", req.Targets),
			)
			fmt.Printf("Job %d queued.\n", accepted.Job.ID)

			if noWait, _ := cmd.Flags().GetBool("no-wait"); noWait {
				return nil
			}
			return followJob(ctx, api, accepted.Job.ID, logger)
		},
	}

	scanCmd.Flags().StringP("mode", "m", string(wizard.ModeEasy), "scan mode: 'easy', 'hard' or 'rfc1918_discovery'")
	scanCmd.Flags().String("timing", "", "timing template T0..T5 (overrides the mode default)")
	scanCmd.Flags().String("top-ports", "", "number of top ports to scan, 1 to 65535 (overrides the mode default)")
	scanCmd.Flags().Bool("full-ports", false, "scan all 65535 ports instead of a top-ports subset")
	scanCmd.Flags().BoolP("aggressive", "A", false, "enable aggressive detection (-A)")
	scanCmd.Flags().Bool("vuln-scripts", false, "run the vulnerability script set")
	scanCmd.Flags().StringSlice("ranges", nil, "private ranges for the discovery sweep (default: all three)")
	scanCmd.Flags().String("args", "", "extra arguments appended to the scanner invocation")
	scanCmd.Flags().String("output-prefix", "scan", "output file prefix passed to the scanner")
	scanCmd.Flags().Bool("dry-run", false, "print the command preview and exit without submitting")
	scanCmd.Flags().Bool("no-wait", false, "submit the job and exit without following it")

	return scanCmd
}

// wizardFromFlags builds a wizard in the requested mode and applies every
// flag the operator actually set on top of the mode defaults.
func wizardFromFlags(cmd *cobra.Command, args []string) (*wizard.Wizard, error) {
	mode, _ := cmd.Flags().GetString("mode")
	switch wizard.Mode(mode) {
	case wizard.ModeEasy, wizard.ModeHard, wizard.ModeRFC1918Discovery:
	default:
		return nil, fmt.Errorf("unknown scan mode %q", mode)
	}

	wiz := wizard.New()
	wiz.SelectMode(wizard.Mode(mode))

	if len(args) > 0 {
		targets := args[0]
		for _, arg := range args[1:] {
			targets += " " + arg
		}
		wiz.SetTargets(targets)
	}

	if cmd.Flags().Changed("timing") {
		timing, _ := cmd.Flags().GetString("timing")
		wiz.SetTiming(timing)
	}
	if cmd.Flags().Changed("top-ports") {
		topPorts, _ := cmd.Flags().GetString("top-ports")
		wiz.SetTopPorts(topPorts)
	}
	if cmd.Flags().Changed("full-ports") {
		fullPorts, _ := cmd.Flags().GetBool("full-ports")
		wiz.SetFullPorts(fullPorts)
	}
	if cmd.Flags().Changed("aggressive") {
		aggressive, _ := cmd.Flags().GetBool("aggressive")
		wiz.SetAggressive(aggressive)
	}
	if cmd.Flags().Changed("vuln-scripts") {
		vuln, _ := cmd.Flags().GetBool("vuln-scripts")
		wiz.SetVulnScripts(vuln)
	}
	if cmd.Flags().Changed("ranges") {
		selected, _ := cmd.Flags().GetStringSlice("ranges")
		for _, cidr := range []string{wizard.Range10, wizard.Range172, wizard.Range192} {
			wiz.SetRange(cidr, containsString(selected, cidr))
		}
	}
	if cmd.Flags().Changed("args") {
		extra, _ := cmd.Flags().GetString("args")
		wiz.SetExtraArgs(extra)
	}
	if prefix, _ := cmd.Flags().GetString("output-prefix"); prefix != "" {
		wiz.SetOutputPrefix(prefix)
	}

	return wiz, nil
}

// followJob polls the job at a fixed cadence until it reaches a terminal
// state or the context is cancelled.
func followJob(ctx context.Context, api *client.Client, jobID int, logger *zap.Logger) error {
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()

	lastStatus := ""
	for {
		job, err := api.Job(ctx, jobID)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("job %d lookup failed: %w", jobID, err)
			}
			// Transient transport failures are logged and retried at the
			// same cadence.
			logger.Warn("Job poll failed, retrying", zap.Int("job_id", jobID), zap.Error(err))
		} else {
			if job.Status != lastStatus {
				fmt.Printf("Job %d: %s\n", jobID, job.Status)
				lastStatus = job.Status
			}
			if job.Terminal() {
				if job.Status != schemas.JobCompleted {
					if job.Error != "" {
						return fmt.Errorf("job %d finished %s: %s", jobID, job.Status, job.Error)
					}
					return fmt.Errorf("job %d finished %s", jobID, job.Status)
				}
				fmt.Printf("Job %d completed.\n", jobID)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

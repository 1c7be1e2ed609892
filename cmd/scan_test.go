// File: cmd/scan_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periscope-sec/periscope-cli/internal/wizard"
)

func parseScanFlags(t *testing.T, flags ...string) *wizard.Wizard {
	t.Helper()
	cmd := newScanCmd()
	require.NoError(t, cmd.ParseFlags(flags))

	wiz, err := wizardFromFlags(cmd, cmd.Flags().Args())
	require.NoError(t, err)
	return wiz
}

func TestWizardFromFlags(t *testing.T) {
	t.Run("defaults to an easy scan", func(t *testing.T) {
		wiz := parseScanFlags(t, "192.168.1.10")
		assert.Equal(t, wizard.ModeEasy, wiz.Mode())
		assert.Equal(t, []string{"192.168.1.10"}, wiz.ResolvedTargets())
		assert.True(t, wiz.Validate().OK)
	})

	t.Run("maps option flags onto the wizard", func(t *testing.T) {
		wiz := parseScanFlags(t,
			"--mode", "hard",
			"--timing", "T5",
			"--aggressive",
			"--vuln-scripts",
			"--args", "--min-rate 500",
			"10.0.0.5",
		)
		opts := wiz.Options()
		assert.Equal(t, wizard.ModeHard, wiz.Mode())
		assert.Equal(t, "T5", opts.Timing)
		assert.True(t, opts.Aggressive)
		assert.True(t, opts.VulnScripts)
		assert.Contains(t, wiz.Preview(), "--min-rate 500")
	})

	t.Run("restricts the discovery sweep to the requested ranges", func(t *testing.T) {
		wiz := parseScanFlags(t,
			"--mode", "rfc1918_discovery",
			"--ranges", wizard.Range10,
		)
		assert.Equal(t, []string{wizard.Range10}, wiz.ResolvedTargets())
		assert.True(t, wiz.Validate().OK)
	})

	t.Run("rejects an unknown mode", func(t *testing.T) {
		cmd := newScanCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--mode", "yolo"}))
		_, err := wizardFromFlags(cmd, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown scan mode")
	})

	t.Run("flag-driven input releases the submit lock", func(t *testing.T) {
		wiz := parseScanFlags(t, "192.168.1.10")
		wiz.Next()
		assert.True(t, wiz.CanSubmit())
	})
}

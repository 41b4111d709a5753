package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/attendance-agent-go/internal/config"
)

// NewSyncCommand creates the sync command, a one-shot queue drain for
// provisioning scripts and troubleshooting.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and exit",
		Long: `Drain the offline punch queue against the HRIS backend once.

Useful from provisioning scripts or when diagnosing a kiosk that has
accumulated unsynced punches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			application, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer application.close()

			report, err := application.engine.SyncNow(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "submitted:       %d\n", report.Submitted)
			fmt.Fprintf(out, "skipped (server): %d\n", report.SkippedServer)
			fmt.Fprintf(out, "merged:          %d\n", report.Merged)
			fmt.Fprintf(out, "failed:          %d\n", report.Failed)
			fmt.Fprintf(out, "invalid:         %d\n", report.Invalid)
			fmt.Fprintf(out, "remaining:       %d\n", report.Remaining)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/attendance-agent-go/internal/config"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show queue depth and today's attendance state",
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

			ctx := cmd.Context()
			count, err := application.attendanceService.UnsyncedCount(ctx)
			if err != nil {
				return fmt.Errorf("failed to count unsynced punches: %w", err)
			}

			state, err := application.attendanceService.TodayState(ctx)
			if err != nil {
				return fmt.Errorf("failed to load today's state: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "employee:       %s\n", cfg.Device.EmployeeID)
			fmt.Fprintf(out, "store:          %s\n", cfg.Store.Driver)
			fmt.Fprintf(out, "unsynced:       %d\n", count)
			if state == nil {
				fmt.Fprintln(out, "today:          no punches recorded")
				return nil
			}
			fmt.Fprintf(out, "checked in:     %t", state.HasCheckedIn)
			if state.CheckInTime != nil {
				fmt.Fprintf(out, " (%s)", *state.CheckInTime)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "checked out:    %t", state.HasCheckedOut)
			if state.CheckOutTime != nil {
				fmt.Fprintf(out, " (%s)", *state.CheckOutTime)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/attendance-agent-go/internal/config"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/jwt"
)

// NewTokenCommand creates the token command. The kiosk UI is handed
// its bearer token out of band at provisioning time, so minting lives
// in the CLI rather than behind a login endpoint.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "token",
		Short:         "Mint a UI token for the enrolled employee",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			jwtService := jwt.NewJWTService(cfg.Device.JWTSecret)
			token, expiresAt, err := jwtService.GenerateUIToken(cfg.Device.EmployeeID)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires: %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
			return nil
		},
	}
}

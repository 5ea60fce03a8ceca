package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pocketflix-portal/internal/config"
	"pocketflix-portal/internal/identity"
)

// NewTokenCmd issues a session token for a principal in jwt mode.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		name  string
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <principal>",
		Short: "Issue a signed session token (jwt auth mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Mode != "jwt" {
				return errors.New("tokens can only be issued in jwt auth mode")
			}
			p, err := identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Cookie)
			if err != nil {
				return err
			}
			token, err := p.Issue(identity.Identity{Principal: args[0], Name: name, Email: email}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

package cli

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/BlankParticle/preview-pkg/internal/cli/auth"
	"github.com/BlankParticle/preview-pkg/internal/config"
	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/github"
)

func newLoginCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with GitHub via device flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Github.ClientID == "" {
				return fmt.Errorf("no GitHub OAuth client id configured (set github.client_id or PREVIEW_PKG_GITHUB_CLIENT_ID)")
			}

			ctx := cmd.Context()
			gh := github.NewClient()

			// A credential already on disk that still resolves gets a
			// confirmation prompt before being replaced.
			if creds, err := auth.Load(); err == nil {
				if identity, err := gh.User(ctx, creds.Token); err == nil {
					replace := false
					prompt := &survey.Confirm{
						Message: fmt.Sprintf("Already logged in as %s. Log in again?", identity),
					}
					if err := survey.AskOne(prompt, &replace); err != nil {
						return err
					}
					if !replace {
						return nil
					}
				}
			} else if !errors.Is(err, domain.ErrNoCredentials) {
				return err
			}

			creds, err := auth.DeviceFlow(ctx, gh, cfg.Github.ClientID, cfg.Github.Scopes)
			if err != nil {
				return err
			}

			identity, err := gh.User(ctx, creds.Token)
			if err != nil {
				return fmt.Errorf("authenticated but failed to resolve identity: %w", err)
			}
			color.Green("Logged in as %s", identity)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.Delete(); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity the stored token authenticates as",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := auth.Load()
			if err != nil {
				return err
			}
			identity, err := github.NewClient().User(cmd.Context(), creds.Token)
			if err != nil {
				return fmt.Errorf("failed to resolve identity: %w", err)
			}
			cmd.Println(identity)
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BlankParticle/preview-pkg/internal/cli/auth"
	"github.com/BlankParticle/preview-pkg/internal/client"
	"github.com/BlankParticle/preview-pkg/internal/config"
	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/packer"
	"github.com/BlankParticle/preview-pkg/internal/publish"
)

func newPublishCmd(configPath *string) *cobra.Command {
	var (
		versionFlag  string
		toolFlag     string
		registryFlag string
		identityFlag string
		keepArtifact bool
	)

	cmd := &cobra.Command{
		Use:   "publish [patterns...]",
		Short: "Publish packages to the preview registry",
		Long: `Publish one or more local packages to the preview registry. Patterns
are glob patterns naming package directories; with no patterns the current
directory (or the project config's packages list) is used.

Without --version the publish version is derived from the current git
revision.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			proj, err := config.LoadProject(".")
			if err != nil {
				return err
			}

			patterns := args
			if len(patterns) == 0 {
				patterns = proj.Packages
			}

			toolName := firstNonEmpty(toolFlag, proj.Tool, "npm")
			tool, err := packer.ParseTool(toolName)
			if err != nil {
				return err
			}

			registryURL := firstNonEmpty(registryFlag, cfg.Client.RegistryURL)

			creds, err := auth.Load()
			if err != nil {
				return err
			}

			// SIGINT mid-run still restores mutated manifests: the
			// orchestrator finishes its restore pass before honoring
			// cancellation.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Derive the publish identity from the token. An explicit
			// --identity that disagrees is fatal, never retried.
			probe := client.New(registryURL, creds.Token, "")
			identity, err := probe.Whoami(ctx)
			if err != nil {
				return fmt.Errorf("failed to resolve publish identity: %w", err)
			}
			if identityFlag != "" && identityFlag != identity {
				return fmt.Errorf("%w: authenticated as %q, requested %q",
					domain.ErrIdentityMismatch, identity, identityFlag)
			}

			reg := client.New(registryURL, creds.Token, identity)
			orch := publish.NewOrchestrator(
				&packer.CommandPacker{KeepArtifact: keepArtifact || proj.KeepArtifact},
				reg,
				&publish.GitVersionResolver{},
			)

			summary, runErr := orch.Run(ctx, publish.Options{
				Identity: identity,
				Version:  versionFlag,
				BaseURL:  registryURL,
				Tool:     tool,
			}, patterns)

			renderSummary(cmd.OutOrStdout(), summary)

			if runErr != nil {
				return runErr
			}
			if !summary.OK() {
				return fmt.Errorf("publish failed: no package reached the registry")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&versionFlag, "version", "", "Explicit publish version (default: short git revision)")
	cmd.Flags().StringVarP(&toolFlag, "tool", "t", "", "Packaging tool: npm, yarn, pnpm, or bun")
	cmd.Flags().StringVarP(&registryFlag, "registry", "r", "", "Registry base URL")
	cmd.Flags().StringVar(&identityFlag, "identity", "", "Identity to publish under (must match the authenticated identity)")
	cmd.Flags().BoolVar(&keepArtifact, "keep-artifact", false, "Keep packed tarballs on disk after upload")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

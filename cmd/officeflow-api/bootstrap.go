package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"officeflow-api/internal/config"
	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"

	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the first admin and, optionally, the root workspace",
	Long: `Create the first user with the Admin role. Refused once any user exists.

With --workspace the root workspace is created as well, owned by the new
admin. The master password is read from MASTER_PASSWORD.`,
	RunE: runBootstrap,
}

var (
	bootstrapAdminID   string
	bootstrapAdminName string
	bootstrapWorkspace string
)

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapAdminID, "admin-id", "", "id of the admin user (generated when empty)")
	bootstrapCmd.Flags().StringVar(&bootstrapAdminName, "admin-name", "Administrator", "display name of the admin user")
	bootstrapCmd.Flags().StringVar(&bootstrapWorkspace, "workspace", "", "name of the root workspace to create")
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a, err := openApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	return bootstrap(ctx, a, cmd.OutOrStdout(), bootstrapAdminID, bootstrapAdminName, bootstrapWorkspace, os.Getenv("MASTER_PASSWORD"))
}

func bootstrap(ctx context.Context, a *app, out io.Writer, adminID, adminName, workspace, masterPassword string) error {
	admin, err := a.users.BootstrapAdmin(ctx, adminID, adminName)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	fmt.Fprintf(out, "✓ Admin %q created\n", admin.ID)

	if workspace == "" {
		return nil
	}
	ws, err := a.workspaces.CreateWorkspace(ctx, admin.ID, &domain.CreateWorkspaceRequest{
		Name:           workspace,
		MasterPassword: masterPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	fmt.Fprintf(out, "✓ Workspace %q created (id %s)\n", ws.Name, ws.ID)
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/wa-handoff-panel/internal/repo"
)

func newTenantCmd(a *app) *cobra.Command {
	tenant := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	var name string
	setToken := &cobra.Command{
		Use:   "set-token <clientId> <token>",
		Short: "Store a tenant's WhatsApp access token",
		Long: `Store a tenant's WhatsApp access token, creating the tenant if needed.

The client id is the tenant's WhatsApp phone-number id; manual replies are
sent through the Graph API with this token.

Examples:
  panel tenant set-token 1234567890 EAAG...
  panel tenant set-token 1234567890 EAAG... --name "Acme Dental"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, token := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			if clientID == "" || token == "" {
				return fmt.Errorf("clientId and token must not be empty")
			}
			db, closeDB, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.UpsertTenantToken(cmd.Context(), db, clientID, strings.TrimSpace(name), token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token stored for tenant %s\n", clientID)
			return nil
		},
	}
	setToken.Flags().StringVar(&name, "name", "", "display name of the tenant")

	tenant.AddCommand(setToken)
	return tenant
}

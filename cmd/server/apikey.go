package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a bearer token for a tenant",
	Long: `Create a bearer token for a tenant. Only the token's hash is stored, so
the token is printed once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, _ := cmd.Flags().GetString("tenant")
		token, _ := cmd.Flags().GetString("token")
		description, _ := cmd.Flags().GetString("description")
		if token == "" {
			token = uuid.NewString()
		}

		ctx := context.Background()
		a, closeDB, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := a.APIKeys.Add(ctx, tenantID, token, description); err != nil {
			return fmt.Errorf("failed to add api key: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s for tenant %s\n%s\n", green("✓ API key created"), tenantID, token)
		return nil
	},
}

func init() {
	apikeyAddCmd.Flags().String("tenant", "", "Tenant ID (required)")
	apikeyAddCmd.Flags().String("token", "", "Token to register (generated when empty)")
	apikeyAddCmd.Flags().String("description", "", "Free-text description")
	_ = apikeyAddCmd.MarkFlagRequired("tenant")
	apikeyCmd.AddCommand(apikeyAddCmd)
	rootCmd.AddCommand(apikeyCmd)
}

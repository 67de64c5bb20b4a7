package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/ganot/cropline/internal/mcp"
	"github.com/spf13/cobra"
)

var importPlanCmd = &cobra.Command{
	Use:   "import-plan <file>",
	Short: "Import a species growth plan from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, _ := cmd.Flags().GetString("tenant")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var def species.PlanDefinition
		if strings.EqualFold(filepath.Ext(args[0]), ".json") {
			def, err = species.ParsePlanJSON(data)
		} else {
			def, err = species.ParsePlanYAML(data)
		}
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, closeDB, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		plan, err := a.Species.ImportPlan(ctx, tenantID, def)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s %s\n", green("✓ Imported"), plan.Species.Name, gray(plan.Species.ID))
		for _, st := range plan.Stages {
			fmt.Fprintf(out, "  %d. %-24s %d events %s\n", st.Stage.SequenceNumber+1, st.Stage.Name, len(st.Events), gray(st.Stage.ID))
		}
		return nil
	},
}

func init() {
	importPlanCmd.Flags().String("tenant", mcp.DefaultTenant, "Tenant ID")
	rootCmd.AddCommand(importPlanCmd)
}

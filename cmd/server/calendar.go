package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/export"
	"github.com/ganot/cropline/internal/mcp"
	"github.com/spf13/cobra"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the task calendar",
	Long: `Print every projected task across the tenant's crops, ordered by due date.

Examples:
  cropline calendar                          # All crops
  cropline calendar --filter ongoing         # Only crops not yet harvested
  cropline calendar --crop c1 --crop c2      # Selected crops
  cropline calendar --xlsx calendar.xlsx     # Also write a spreadsheet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, _ := cmd.Flags().GetString("tenant")
		cropIDs, _ := cmd.Flags().GetStringSlice("crop")
		filter, _ := cmd.Flags().GetString("filter")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")

		ctx := context.Background()
		a, closeDB, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		tasks, err := a.Calendar.ProjectCalendar(ctx, tenantID, calendar.Query{
			CropIDs: cropIDs,
			Filter:  crop.ListFilter(filter),
		})
		if err != nil {
			return err
		}

		printCalendar(cmd.OutOrStdout(), tasks)

		if xlsxPath != "" {
			f, err := os.Create(xlsxPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := export.WriteCalendarXLSX(f, tasks); err != nil {
				return fmt.Errorf("failed to write spreadsheet: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %d tasks to %s\n", len(tasks), xlsxPath)
		}
		return nil
	},
}

func init() {
	calendarCmd.Flags().String("tenant", mcp.DefaultTenant, "Tenant ID")
	calendarCmd.Flags().StringSlice("crop", nil, "Restrict to crop IDs (repeatable)")
	calendarCmd.Flags().String("filter", "", "Crop filter: ongoing or finished")
	calendarCmd.Flags().String("xlsx", "", "Also write the calendar to this .xlsx file")
	rootCmd.AddCommand(calendarCmd)
}

func printCalendar(w io.Writer, tasks []calendar.Task) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	magenta := color.New(color.FgMagenta, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s\n\n", cyan("=== Crop Calendar ==="))
	if len(tasks) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("No tasks"))
		return
	}

	for _, t := range tasks {
		due := "unscheduled"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		if t.Estimated {
			due += "~"
		}

		status := yellow("○")
		if t.Done() {
			status = green("●")
		}

		name := t.Name
		switch t.Class {
		case calendar.ClassStageFinish:
			name = "finish " + name
		case calendar.ClassCropFinish:
			name = magenta("harvest")
		}

		fmt.Fprintf(w, "  %s %-12s %-28s %s\n", status, due, name, gray(t.SpeciesName+" "+shortID(t.CropID)))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
)

var inspectPlan string

var inspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Show a user's usage record",
	Long: `Prints the stored usage record for a user as JSON.

Without --plan the record is shown exactly as stored. With --plan the
record is normalized against that plan first (period counters reset on
plan change or rollover) and the normalized form is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Inspect requires a storage connection.")
			return nil
		}

		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}

		ctx := cmd.Context()
		if inspectPlan != "" {
			plan := entitlement.NormalizePlan(entitlement.PlanID(inspectPlan))
			rec, err := app.Usage.GetUsageForUser(ctx, userID, plan)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		}

		rec, err := app.Records.Get(ctx, userID)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No usage record found.")
			return nil
		}
		return printJSON(cmd, rec)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	inspectCmd.Flags().StringVar(&inspectPlan, "plan", "", "normalize against this plan before printing")
	rootCmd.AddCommand(inspectCmd)
}

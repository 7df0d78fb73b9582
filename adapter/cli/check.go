package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
	"github.com/careerlift/quota/internal/usage/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check <user-id> <feature>",
	Short: "Check whether a feature invocation would be allowed",
	Long: `Evaluates the user's stored usage record against their plan limits
and reports the decision the ledger would make, without recording usage.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Check requires a storage connection.")
			return nil
		}

		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		feature := entitlement.FeatureKey(args[1])

		result, err := app.Usage.CheckFeatureAllowed(cmd.Context(), userID, feature)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Plan:    %s\n", result.Plan)
		fmt.Fprintf(out, "Feature: %s\n", feature)
		if result.Allowed {
			fmt.Fprintln(out, "Allowed: yes")
		} else {
			fmt.Fprintf(out, "Allowed: no (%s)\n", result.Reason)
		}
		if result.Limit == entitlement.Unlimited {
			fmt.Fprintf(out, "Usage:   %d (unlimited)\n", result.Used)
		} else {
			fmt.Fprintf(out, "Usage:   %d/%d\n", result.Used, result.Limit)
		}

		status, err := app.Usage.CooldownStatus(cmd.Context(), userID, feature, app.Config.CooldownWindow)
		if err != nil {
			return err
		}
		printCooldown(cmd, status)
		return nil
	},
}

func printCooldown(cmd *cobra.Command, status domain.CooldownStatus) {
	if status.OnCooldown {
		fmt.Fprintf(cmd.OutOrStdout(), "Cooldown: %s remaining\n", status.Remaining)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

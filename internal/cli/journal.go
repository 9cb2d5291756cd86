package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/spotskip/spotskip/internal/reporter"
)

const defaultHistoryLimit = 20

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent restarts from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return errors.Errorf("limit must be positive, got %d", limit)
			}

			repo, closeDB, err := a.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			events, err := repo.GetRecentRestarts(limit)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), reporter.New(repo).FormatHistoryText(events))
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "number of restarts to show")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "report [day|week|month]",
		Short:     "Summarise restarts for a period",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"day", "week", "month"},
		RunE: func(cmd *cobra.Command, args []string) error {
			periodType := "day"
			if len(args) > 0 {
				periodType = args[0]
			}
			jsonOutput, _ := cmd.Flags().GetBool("json")

			repo, closeDB, err := a.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			rep := reporter.New(repo)
			report, err := rep.GenerateReport(periodType)
			if err != nil {
				return errors.Wrap(err, "failed to generate report")
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				jsonStr, err := rep.FormatReportJSON(report)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, jsonStr)
				return nil
			}

			fmt.Fprint(out, rep.FormatReportText(report))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the report as JSON")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all journaled restarts and errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			out := cmd.OutOrStdout()

			if !yes {
				fmt.Fprint(out, "This will delete all journaled restarts. Are you sure? (yes/no): ")
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.ToLower(strings.TrimSpace(response))
				if response != "yes" && response != "y" {
					fmt.Fprintln(out, subtleStyle.Render("Operation cancelled"))
					return nil
				}
			}

			repo, closeDB, err := a.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, successStyle.Render("Journal cleared successfully"))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

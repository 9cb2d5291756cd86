package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spotskip/spotskip/internal/classifier"
	"github.com/spotskip/spotskip/internal/daemon"
	"github.com/spotskip/spotskip/pkg/detector"
	"github.com/spotskip/spotskip/pkg/utils"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state, the player's windows and the last restart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, titleStyle.Render("spotskip status"))

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			switch {
			case err != nil:
				fmt.Fprintln(out, field("Daemon:", errorStyle.Render(err.Error())))
			case running:
				fmt.Fprintln(out, field("Daemon:", successStyle.Render(fmt.Sprintf("running (PID: %d)", pid))))
			default:
				fmt.Fprintln(out, field("Daemon:", warningStyle.Render("not running")))
			}
			fmt.Fprintln(out, field("Poll Interval:", cfg.Monitor.PollInterval))
			fmt.Fprintln(out, field("Cooldown:", cfg.Monitor.Cooldown))
			fmt.Fprintln(out, field("Display Server:", detector.DetectDisplayServer()))

			det, err := detector.New(cfg.Target.AppName, zerolog.Nop())
			if err != nil {
				fmt.Fprintln(out, field("Platform:", errorStyle.Render(err.Error())))
				return nil
			}
			defer det.Close()

			fmt.Fprintln(out, boxStyle.Render(strings.TrimSpace(det.GetStatus())))

			targetRunning, err := det.Processes().IsProcessRunning(cfg.Target.ProcessName)
			if err != nil {
				fmt.Fprintln(out, field(cfg.Target.AppName+":", errorStyle.Render(err.Error())))
			} else if !targetRunning {
				fmt.Fprintln(out, field(cfg.Target.AppName+":", warningStyle.Render("not running")))
			} else {
				fmt.Fprintln(out, field(cfg.Target.AppName+":", successStyle.Render("running")))
				titles, err := det.VisibleWindowTitles(cfg.Target.ProcessName)
				if err != nil {
					fmt.Fprintln(out, field("Windows:", errorStyle.Render(err.Error())))
				}
				printClassified(out, classifier.New(cfg.Classifier, cfg.Target.AppName), titles)
			}

			if !cfg.Database.Journal {
				fmt.Fprintln(out, field("Journal:", subtleStyle.Render("disabled")))
				return nil
			}

			repo, closeDB, err := a.openRepository()
			if err != nil {
				return nil
			}
			defer closeDB()

			latest, err := repo.GetLatest()
			if err == nil && latest != nil {
				ago := utils.FormatRounded(time.Since(latest.Timestamp))
				fmt.Fprintln(out, field("Last Restart:", fmt.Sprintf("%s ago (%s, %s)", ago, latest.TriggerTitle, latest.Phase)))
			}
			return nil
		},
	}
}

func newWindowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List top-level windows and how their titles classify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			title, _ := cmd.Flags().GetString("title")
			out := cmd.OutOrStdout()

			det, err := detector.New(cfg.Target.AppName, zerolog.Nop())
			if err != nil {
				return err
			}
			defer det.Close()

			if title != "" {
				h, found, err := det.FindWindowByTitle(title)
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("No window titled %q", title)))
					return nil
				}
				fmt.Fprintln(out, field("Window:", fmt.Sprintf("0x%x", uint64(h))))
				return nil
			}

			windows, err := det.Windows()
			if err != nil {
				return err
			}

			cls := classifier.New(cfg.Classifier, cfg.Target.AppName)
			fmt.Fprintf(out, "%-12s %-8s %-16s %-8s %-14s %s\n", "Handle", "PID", "Process", "Visible", "Class", "Title")
			shown := 0
			for _, w := range windows {
				if !all && !strings.EqualFold(w.ProcessName, cfg.Target.ProcessName) {
					continue
				}
				shown++
				fmt.Fprintf(out, "0x%-10x %-8d %-16s %-8v %-14s %s\n",
					uint64(w.Handle), w.PID, w.ProcessName, w.Visible,
					cls.Classify(w.Title), w.Title)
			}
			if shown == 0 {
				fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("No windows owned by %s (use --all to list every window)", cfg.Target.ProcessName)))
			}
			return nil
		},
	}
	cmd.Flags().BoolP("all", "a", false, "list windows of every process")
	cmd.Flags().StringP("title", "t", "", "only look up the window with this exact title")
	return cmd
}

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <title>...",
		Short: "Show how window titles would be classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			printClassified(cmd.OutOrStdout(), classifier.New(cfg.Classifier, cfg.Target.AppName), args)
			return nil
		},
	}
}

func printClassified(out io.Writer, cls *classifier.Classifier, titles []string) {
	for _, title := range titles {
		d := cls.Explain(title)
		rule := string(d.Rule)
		if d.Marker != "" {
			rule += " " + d.Marker
		}
		fmt.Fprintf(out, "%s %s %s\n", resultBadge(d.Result), subtleStyle.Render("("+rule+")"), fmt.Sprintf("%q", title))
	}
}

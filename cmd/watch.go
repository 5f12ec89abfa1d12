package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmate/internal/browser"
	"github.com/abhisek/quizmate/internal/solver"
	"github.com/abhisek/quizmate/internal/ui/theme"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a quiz page and answer questions as they appear",
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL, _ := cmd.Flags().GetString("url")
		if cmd.Flags().Changed("quiet") {
			cfg.Watch.Quiet, _ = cmd.Flags().GetDuration("quiet")
		}
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless, _ = cmd.Flags().GetBool("headless")
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		e, err := openEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		b, err := browser.Launch(ctx, cfg.Browser, log)
		if err != nil {
			return err
		}
		defer b.Close()

		page, err := b.Open(ctx, pageURL)
		if err != nil {
			return err
		}
		defer page.Close()

		events, err := page.Mutations(ctx)
		if err != nil {
			return err
		}

		r := cardRenderer(os.Stdout)
		rep, err := e.solver.Run(ctx, page, r, solver.RunOptions{})
		switch {
		case err == nil:
			fmt.Println(theme.Summary(rep))
		case errors.Is(err, solver.ErrNoQuestions), errors.Is(err, solver.ErrAutoSolveDisabled):
			fmt.Println(theme.Hint.Render(describeRunError(err)))
		default:
			return fmt.Errorf("%s", describeRunError(err))
		}

		fmt.Println(theme.Hint.Render("Watching for new questions. Press Ctrl+C to stop."))
		if err := e.solver.Watch(ctx, events, page, r, cfg.Watch.Quiet); err != nil && !errors.Is(err, ctx.Err()) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringP("url", "u", "", "Quiz page URL")
	watchCmd.Flags().Duration("quiet", 0, "How long the page must stay unchanged before a scan")
	watchCmd.Flags().Bool("headless", true, "Run Chrome without a window")
	_ = watchCmd.MarkFlagRequired("url")
}

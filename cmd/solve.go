package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmate/internal/browser"
	"github.com/abhisek/quizmate/internal/solver"
	"github.com/abhisek/quizmate/internal/ui/theme"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve every question on a page once",
	Long: `Solve every question on a page once.

With --file the page is read from a saved HTML file and --url only supplies
the course and quiz identifiers; --out writes the page back with the answers
selected. Without --file, --url is opened in Chrome and answered in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		pageURL, _ := cmd.Flags().GetString("url")
		out, _ := cmd.Flags().GetString("out")
		if file == "" && pageURL == "" {
			return fmt.Errorf("one of --file or --url is required")
		}
		if cmd.Flags().Changed("explain") {
			cfg.Solver.IncludeExplanation, _ = cmd.Flags().GetBool("explain")
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		e, err := openEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		var page solver.Page
		var static *browser.StaticPage
		if file != "" {
			static, err = browser.OpenFile(file, pageURL)
			if err != nil {
				return err
			}
			page = static
		} else {
			b, err := browser.Launch(ctx, cfg.Browser, log)
			if err != nil {
				return err
			}
			defer b.Close()
			p, err := b.Open(ctx, pageURL)
			if err != nil {
				return err
			}
			defer p.Close()
			page = p
		}

		rep, err := e.solver.Run(ctx, page, cardRenderer(os.Stdout), solver.RunOptions{Manual: true})
		if rep != nil {
			fmt.Println(theme.Summary(rep))
		}
		if err != nil {
			return fmt.Errorf("%s", describeRunError(err))
		}

		if static != nil && out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			if err := static.Render(f); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Println(theme.Hint.Render("Answered page written to " + out))
		}
		return nil
	},
}

func init() {
	solveCmd.Flags().StringP("file", "f", "", "Saved quiz page to solve")
	solveCmd.Flags().StringP("url", "u", "", "Quiz page URL")
	solveCmd.Flags().StringP("out", "o", "", "With --file, write the answered page here")
	solveCmd.Flags().Bool("explain", true, "Ask for a one-sentence explanation per answer")
}

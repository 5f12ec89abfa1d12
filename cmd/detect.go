package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmate/internal/browser"
	"github.com/abhisek/quizmate/internal/detect"
	"github.com/abhisek/quizmate/internal/prompt"
	"github.com/abhisek/quizmate/internal/ui/theme"
)

type detectedQuestion struct {
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

var detectCmd = &cobra.Command{
	Use:   "detect <file.html>",
	Short: "List the questions found in a saved quiz page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		page, err := browser.OpenFile(args[0], "")
		if err != nil {
			return err
		}
		doc, err := page.Document(cmd.Context())
		if err != nil {
			return err
		}
		questions := detect.New(detect.DefaultConfig(), log).Detect(doc)

		if asJSON {
			out := make([]detectedQuestion, 0, len(questions))
			for _, q := range questions {
				out = append(out, detectedQuestion{Text: q.Text, Type: string(q.Type), Options: q.OptionTexts()})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if len(questions) == 0 {
			fmt.Println("No questions found.")
			return nil
		}
		for i, q := range questions {
			fmt.Println(theme.Title.Render(fmt.Sprintf("Q%d", i+1)), theme.Hint.Render("("+string(q.Type)+")"))
			fmt.Println(theme.Body.Render(q.Text))
			for j, o := range q.Options {
				text := strings.ReplaceAll(o.Text, "\n", "\n   ")
				fmt.Printf("  %s. %s\n", prompt.Letter(j), text)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().Bool("json", false, "Print questions as JSON")
}

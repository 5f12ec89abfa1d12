package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Inspect or clear remembered wrong answers",
}

var blockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quizzes with remembered wrong answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer e.Close()

		quizzes, err := e.blocker.Quizzes(cmd.Context())
		if err != nil {
			return fmt.Errorf("list wrong answers: %w", err)
		}
		if len(quizzes) == 0 {
			fmt.Println("No wrong answers recorded.")
			return nil
		}

		fmt.Printf("%-24s  %-16s  %9s  %6s\n", "Course", "Quiz", "Questions", "Wrong")
		fmt.Println(strings.Repeat("─", 61))
		for _, q := range quizzes {
			fmt.Printf("%-24s  %-16s  %9d  %6d\n",
				truncate(q.CourseID, 24), truncate(q.QuizID, 16), q.Questions, q.WrongAnswers)
		}
		return nil
	},
}

var blockClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget wrong answers for one quiz, or all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		course, _ := cmd.Flags().GetString("course")
		quizID, _ := cmd.Flags().GetString("quiz")
		if (course == "") != (quizID == "") {
			return fmt.Errorf("--course and --quiz go together")
		}

		e, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.blocker.Clear(cmd.Context(), course, quizID); err != nil {
			return fmt.Errorf("clear wrong answers: %w", err)
		}
		if course == "" {
			fmt.Println("All wrong answers cleared.")
		} else {
			fmt.Printf("Wrong answers cleared for %s/%s.\n", course, quizID)
		}
		return nil
	},
}

func init() {
	blockClearCmd.Flags().String("course", "", "Course identifier")
	blockClearCmd.Flags().String("quiz", "", "Quiz identifier")

	blockCmd.AddCommand(blockListCmd)
	blockCmd.AddCommand(blockClearCmd)
}

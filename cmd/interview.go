package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/interview"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("role", "r", "", "target role (asked for when unset)")
	interviewCmd.Flags().StringP("level", "l", "", "seniority level: junior, intermediate, senior or lead")
	interviewCmd.Flags().String("cv", "", "file with the candidate CV as plain text")
	interviewCmd.Flags().String("job-description", "", "file with the target job description")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	assistant, err := newAssistant(ctx, config.AI, nil, logger)
	if err != nil {
		logger.Fatal("building the ai assistant", zap.Error(err))
	}

	draft, err := askDraft(cmd)
	if err != nil {
		logger.Fatal("preparing the interview", zap.Error(err))
	}

	session := interview.NewSession(assistant, assistant,
		interview.WithNextQuestionDelay(config.Interview.NextQuestionDelay),
		interview.WithLogger(logger),
	)
	defer session.Close()

	if _, err := session.UpdateDraft(draft); err != nil {
		logger.Fatal("preparing the interview", zap.Error(err))
	}

	logger.Info("generating questions", zap.String("role", draft.Role), zap.String("level", string(draft.Level)))

	state, err := session.Start(ctx)
	if err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	printed := printTurns(out, state.Transcript, 0)

	for state.Phase == interview.Active {
		question, _ := state.CurrentQuestion()
		answer, err := (&promptui.Prompt{
			Label:    fmt.Sprintf("Answer %d/%d", state.Current+1, state.QuestionCount()),
			Validate: notBlank("answer"),
		}).Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) {
				logger.Info("interview interrupted", zap.Int("answered", len(state.Scores)))
				return
			}
			logger.Fatal("reading the answer", zap.Error(err))
		}

		state, err = session.Submit(ctx, answer)
		if err != nil {
			logger.Warn("evaluation failed, answer the question again", zap.String("question", question.Text), zap.Error(err))
			continue
		}
		printed = printTurns(out, state.Transcript, printed)

		session.WaitPresented()
		state = session.State()
		printed = printTurns(out, state.Transcript, printed)
	}

	logger.Info("interview complete",
		zap.Int("questions", state.QuestionCount()),
		zap.String("mean_score", state.FormatMean()),
	)
}

func askDraft(cmd *cobra.Command) (interview.Draft, error) {
	draft := interview.DefaultDraft()

	role, _ := cmd.Flags().GetString("role")
	if strings.TrimSpace(role) == "" {
		var err error
		role, err = (&promptui.Prompt{Label: "Target role", Default: draft.Role, AllowEdit: true, Validate: notBlank("role")}).Run()
		if err != nil {
			return draft, err
		}
	}
	draft.Role = strings.TrimSpace(role)

	levelFlag, _ := cmd.Flags().GetString("level")
	if strings.TrimSpace(levelFlag) != "" {
		level, err := interview.ParseLevel(levelFlag)
		if err != nil {
			return draft, err
		}
		draft.Level = level
	} else {
		levelPrompt := promptui.Select{
			Label:     "Seniority level",
			Items:     interview.Levels,
			CursorPos: 2,
		}
		idx, _, err := levelPrompt.Run()
		if err != nil {
			return draft, err
		}
		draft.Level = interview.Levels[idx]
	}

	cv, err := readInput(cmd, "cv", "CV file")
	if err != nil {
		return draft, err
	}
	draft.CV = cv

	jd, err := readInput(cmd, "job-description", "Job description file (optional)")
	if err != nil {
		return draft, err
	}
	draft.JobDescription = jd

	return draft, nil
}

// readInput reads the file named by flag, asking for the path when the flag is unset.
// An empty path yields empty text.
func readInput(cmd *cobra.Command, flag, label string) (string, error) {
	path, _ := cmd.Flags().GetString(flag)
	if strings.TrimSpace(path) == "" {
		var err error
		path, err = (&promptui.Prompt{Label: label}).Run()
		if err != nil {
			return "", err
		}
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", flag, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func notBlank(name string) promptui.ValidateFunc {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		return nil
	}
}

// printTurns writes the transcript entries from index from on and returns the new length.
func printTurns(w io.Writer, turns []interview.Turn, from int) int {
	for _, turn := range turns[min(from, len(turns)):] {
		switch {
		case turn.Evaluation:
			fmt.Fprintf(w, "\n[feedback] %s\n", turn.Content)
		case turn.Speaker == interview.Bot:
			fmt.Fprintf(w, "\n[interviewer] %s\n", turn.Content)
			if turn.Context != "" {
				fmt.Fprintf(w, "  (%s)\n", turn.Context)
			}
		}
	}
	return len(turns)
}

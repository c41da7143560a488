package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaot623/legalflow/internal/app"
	"github.com/xiaot623/legalflow/internal/domain"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		file   string
		stream bool
		userID string
	)
	cmd := &cobra.Command{
		Use:   "analyze [case text...]",
		Short: "Analyze one case in-process and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readCase(file, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			input := domain.CaseInput{Description: text, UserID: userID}
			out := cmd.OutOrStdout()
			if stream {
				events, err := a.Service.StreamCase(cmd.Context(), input)
				if err != nil {
					return err
				}
				return printEvents(out, events)
			}

			analysis, err := a.Service.SubmitCase(cmd.Context(), input)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the case description from a file (- for stdin)")
	cmd.Flags().BoolVar(&stream, "stream", false, "print one UI event per line as the analysis progresses")
	cmd.Flags().StringVar(&userID, "user", "", "user id recorded with the run")
	return cmd
}

// readCase takes the case from a file, from args, or from stdin, in that
// order of preference.
func readCase(file string, args []string, stdin io.Reader) (string, error) {
	switch {
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read case file: %w", err)
		}
		return string(b), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("no case given: pass text arguments or --file")
	}
}

func printEvents(w io.Writer, events <-chan domain.UIEvent) error {
	enc := json.NewEncoder(w)
	var failed error
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if ev.Type == domain.UIEventError {
			failed = fmt.Errorf("analysis failed: %s", ev.Message)
		}
	}
	return failed
}

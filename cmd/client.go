package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/legalflow/internal/domain"
)

func newClientCmd() *cobra.Command {
	var (
		addr   string
		file   string
		userID string
	)
	cmd := &cobra.Command{
		Use:   "client [case text...]",
		Short: "Submit a case to a running server over WebSocket and follow its progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readCase(file, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Connecting to %s...\n", addr)
			c, err := dialAnalyze(addr)
			if err != nil {
				return err
			}
			defer c.Close()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			go func() {
				<-interrupt
				c.Close()
			}()

			return c.Analyze(domain.CaseInput{Description: text, UserID: userID}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8000/ws/analyze", "WebSocket server address")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the case description from a file (- for stdin)")
	cmd.Flags().StringVar(&userID, "user", "", "user id recorded with the run")
	return cmd
}

// wsClient is a WebSocket client for the analysis endpoint.
type wsClient struct {
	conn *websocket.Conn
}

func dialAnalyze(addr string) (*wsClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &wsClient{conn: conn}, nil
}

func (c *wsClient) Close() error {
	return c.conn.Close()
}

// Analyze sends the case and prints every event until the server closes the
// stream.
func (c *wsClient) Analyze(input domain.CaseInput, w io.Writer) error {
	if err := c.conn.WriteJSON(input); err != nil {
		return fmt.Errorf("write case: %w", err)
	}

	var failed error
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return failed
			}
			return fmt.Errorf("read: %w", err)
		}

		var ev domain.UIEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			fmt.Fprintf(w, "unreadable event: %s\n", data)
			continue
		}
		printEvent(w, ev)
		if ev.Type == domain.UIEventError {
			failed = fmt.Errorf("analysis failed: %s", ev.Message)
		}
	}
}

func printEvent(w io.Writer, ev domain.UIEvent) {
	switch ev.Type {
	case domain.UIEventStepStart:
		fmt.Fprintf(w, "\n[%d] %s\n    %s\n", ev.StepNumber, ev.Title, ev.Description)
	case domain.UIEventThinkingUpdate:
		for _, line := range strings.Split(ev.Text, "\n") {
			fmt.Fprintf(w, "    | %s\n", line)
		}
	case domain.UIEventStepComplete:
	case domain.UIEventComplete:
		fmt.Fprintf(w, "\n%s\n\n", ev.Message)
		if ev.Result != nil {
			fmt.Fprintln(w, ev.Result.FinalAnswer)
			if len(ev.Result.References) > 0 {
				fmt.Fprintln(w, "\nReferences:")
				for i, ref := range ev.Result.References {
					fmt.Fprintf(w, "  [%d] %s\n", i+1, ref)
				}
			}
		}
	default:
		fmt.Fprintf(w, "%s\n", ev.Message)
	}
}

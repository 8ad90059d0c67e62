package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"food-ordering-agent/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the agent from the terminal",
	Long: `chat runs an interactive conversation against the engine.

Type "pay <card number> <cvv> <MM/YY>" to book the proposed order, "quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		key := chatSession
		if key == "" {
			key = uuid.NewString()
		}
		return runChat(ctx, a.engine, a.orders, key, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "Session key to resume (default: a new one)")
}

type turnHandler interface {
	HandleInput(ctx context.Context, sessionKey, utterance string) (*models.Response, error)
}

type pendingBooker interface {
	BookPending(ctx context.Context, sessionKey string, payment models.CCDetails) (*models.Response, error)
}

func runChat(ctx context.Context, agent turnHandler, orders pendingBooker, key string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "session %s\n> ", key)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "quit" || line == "exit":
			return nil
		case strings.HasPrefix(line, "pay "):
			fields := strings.Fields(strings.TrimPrefix(line, "pay "))
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: pay <card number> <cvv> <MM/YY>")
				break
			}
			resp, err := orders.BookPending(ctx, key, models.CCDetails{CCNumber: fields[0], CVV: fields[1], Expiry: fields[2]})
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			printResponse(out, resp)
		default:
			resp, err := agent.HandleInput(ctx, key, line)
			if err != nil && resp == nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			printResponse(out, resp)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func printResponse(out io.Writer, resp *models.Response) {
	fmt.Fprintf(out, "[%s] %s\n", resp.Status, resp.Response)
	if resp.Order != nil {
		data, _ := json.MarshalIndent(resp.Order, "", "  ")
		fmt.Fprintln(out, string(data))
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/assistente-fontes/course-assistant/internal/auth"
	"github.com/assistente-fontes/course-assistant/internal/summary"
)

// readConversation accepts either a bare message array or {"messages": [...]}.
func readConversation(path string) ([]summary.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}
	var msgs []summary.Message
	if err := json.Unmarshal(data, &msgs); err == nil {
		return msgs, nil
	}
	var wrapped struct {
		Messages []summary.Message `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse conversation %s: %w", path, err)
	}
	return wrapped.Messages, nil
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <conversation.json>",
		Short: "Print the study summary of a conversation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := readConversation(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary.NewDefaultAnalyzer().Analyze(msgs))
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <conversation.json>",
		Short: "Print the plain-text summary report of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := readConversation(args[0])
			if err != nil {
				return err
			}
			return summary.WriteText(cmd.OutOrStdout(), summary.NewDefaultAnalyzer().Analyze(msgs), time.Now())
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for the USERS setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			if username != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", username, hash)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Prefix the hash with name: for pasting into USERS")
	return cmd
}

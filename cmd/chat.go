/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"dyebot/pkg/catalog"
	"dyebot/pkg/config"
	"dyebot/pkg/dialog"
	"dyebot/pkg/reply"
	"dyebot/pkg/session"

	"github.com/spf13/cobra"
)

const localSenderID = "local:console"

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive catalog conversation on the terminal",
	Long:  "Drives the same dialog flow the channel adapters use, reading turns from stdin. Button and list option ids are printed in brackets; type an id to select it.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg := localConfig()

		source, err := catalogSource(cfg)
		if err != nil {
			fmt.Printf("failed to open catalog: %v\n", err)
			return
		}

		ctx := context.Background()
		index, err := catalog.Load(ctx, source)
		if err != nil {
			fmt.Printf("failed to load catalog: %v\n", err)
			return
		}

		engine, err := dialog.NewEngine(index, session.NewStore(), nil, slog.Default())
		if err != nil {
			fmt.Printf("failed to initialize dialog engine: %v\n", err)
			return
		}

		runInteractive(ctx, engine)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// localConfig loads config.json when present and falls back to the embedded
// catalog otherwise, so chat works without any setup.
func localConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		return &config.Config{}
	}

	return cfg
}

func runInteractive(ctx context.Context, engine *dialog.Engine) {
	scanner := bufio.NewScanner(os.Stdin)

	greet, err := engine.ProcessEvent(ctx, localSenderID, dialog.TextEvent("hi"))
	if err != nil {
		fmt.Printf("conversation failed: %v\n", err)
		return
	}
	printMessages(greet)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Printf("input error: %v\n", err)
			}
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			return
		}

		messages, err := engine.ProcessEvent(ctx, localSenderID, consoleEvent(input))
		if err != nil {
			fmt.Printf("conversation failed: %v\n", err)
			continue
		}
		printMessages(messages)
	}
}

// consoleEvent treats known option ids typed on the console as selections,
// everything else as free text.
func consoleEvent(input string) dialog.Event {
	lowered := strings.ToLower(input)
	if reply.KnownSelectionID(lowered) {
		return dialog.SelectionEvent(lowered)
	}

	return dialog.TextEvent(input)
}

func printMessages(messages []reply.Message) {
	for _, message := range messages {
		for _, line := range messageLines(message) {
			fmt.Printf("bot> %s\n", line)
		}
	}
	if len(messages) > 0 {
		fmt.Println()
	}
}

func messageLines(message reply.Message) []string {
	switch m := message.(type) {
	case reply.Text:
		return splitLines(m.Body)
	case reply.ButtonPrompt:
		lines := splitLines(promptHeaderBody(m.Header, m.Body))
		for _, button := range m.Buttons {
			lines = append(lines, fmt.Sprintf("  [%s] %s", button.ID, button.Title))
		}
		return lines
	case reply.OptionList:
		lines := splitLines(promptHeaderBody(m.Header, m.Body))
		for _, section := range m.Sections {
			if section.Title != "" {
				lines = append(lines, section.Title+":")
			}
			for _, row := range section.Rows {
				line := fmt.Sprintf("  [%s] %s", row.ID, row.Title)
				if row.Description != "" {
					line += " - " + row.Description
				}
				lines = append(lines, line)
			}
		}
		return lines
	default:
		return nil
	}
}

func promptHeaderBody(header string, body string) string {
	if header == "" {
		return body
	}
	if body == "" {
		return header
	}

	return header + "\n" + body
}

func splitLines(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "\n")
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", ":q":
		return true
	default:
		return false
	}
}

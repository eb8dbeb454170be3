package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"dreamdelve/internal/transcript"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "review", "--review":
			runReviewMode()
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model, orch, cleanup, err := createApp(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	go func() {
		_ = orch.Run(ctx)
	}()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

// runReviewMode dumps the most recent transcript entries for prompt tuning.
func runReviewMode() {
	path := os.Getenv("DELVE_TRANSCRIPT_PATH")
	if path == "" {
		path = "./transcript.db"
	}

	recorder, err := transcript.NewRecorder(path)
	if err != nil {
		fmt.Printf("Failed to open transcript database: %v\n", err)
		return
	}
	defer recorder.Close()

	entries, err := recorder.Recent(10)
	if err != nil {
		fmt.Printf("Failed to read transcript: %v\n", err)
		return
	}

	if len(entries) == 0 {
		fmt.Println("No transcript entries found. Play the game first to generate data!")
		return
	}

	fmt.Printf("Recent generations (%d):\n\n", len(entries))

	for _, e := range entries {
		usage := fmt.Sprintf("%d tokens", e.TotalTokens)
		if e.EstimatedUsage {
			usage += " (estimated)"
		}
		fmt.Printf("[%d] %s | %s | %s | %s\n",
			e.ID,
			e.Timestamp.Format("15:04:05"),
			e.Purpose,
			e.Provider,
			usage)
		fmt.Printf("Prompt: %s\n", e.Prompt)
		fmt.Printf("Response: %s\n", e.Response)
		fmt.Println(strings.Repeat("-", 50))
	}

	prompt, completion, err := recorder.TotalUsage()
	if err == nil {
		fmt.Printf("\nTotal usage: %d prompt + %d completion tokens\n", prompt, completion)
	}
}

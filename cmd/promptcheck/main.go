package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"KaziAI/pkg/config"
	"KaziAI/pkg/prompt"
)

// promptcheck classifies a question and prints the fully assembled prompt,
// for eyeballing fragment wiring without running the server.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: promptcheck <question...>")
		os.Exit(2)
	}
	question := strings.Join(os.Args[1:], " ")

	lib, err := prompt.Load(config.PromptDir)
	if err != nil {
		log.Fatalf("failed to load prompt library from %s: %v", config.PromptDir, err)
	}

	if cat, ok := prompt.Classify(question); ok {
		fmt.Printf("category: %s\n", cat)
	} else {
		fmt.Println("category: (none, system prompt only)")
	}
	fmt.Println("--- assembled prompt ---")
	fmt.Print(lib.BuildPrompt(question))
}

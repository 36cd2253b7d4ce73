package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atinyakov/NoteKeeper/internal/client"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant about your notes",
	Run: func(cmd *cobra.Command, args []string) {
		c, _ := authedClient()

		question := strings.Join(args, " ")
		if err := client.PromptMissing(stdin, os.Stdout, client.PromptField{Label: "Question: ", Value: &question}); err != nil {
			fatal("Error reading input", err)
		}

		answer, err := c.Ask(context.Background(), question)
		if err != nil {
			fatal("Error asking assistant", err)
		}
		if jsonOutput {
			printJSON(map[string]string{"answer": answer})
			return
		}
		fmt.Println(answer)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

package main

import (
	"bufio"
	"cmp"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/atinyakov/NoteKeeper/internal/client"
)

const defaultURL = "http://localhost:3001"

var (
	sessionPath string
	serverURL   string
	jsonOutput  bool

	stdin = bufio.NewReader(os.Stdin)
)

var rootCmd = &cobra.Command{
	Use:   "notekeeper",
	Short: "Command-line client for the NoteKeeper server",
	Long: `notekeeper talks to a NoteKeeper server: it registers and logs in,
uploads notes with photos and recordings, searches them and asks the assistant.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", client.DefaultSessionFile, "path to the session file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "server base URL (default "+defaultURL+" or the one saved at login)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON")
}

// loadSession reads the session file and resolves the server URL from the
// flag, then the session, then the default.
func loadSession() *client.Session {
	sess, err := client.LoadSession(sessionPath)
	if err != nil {
		fatal("Error loading session", err)
	}
	switch {
	case serverURL != "":
		sess.BaseURL = serverURL
	case sess.BaseURL == "":
		sess.BaseURL = defaultURL
	}
	return sess
}

// authedClient returns a client for a logged-in session or exits.
func authedClient() (*client.Client, *client.Session) {
	sess := loadSession()
	if !sess.LoggedIn() {
		fatal("Error", client.ErrNotLoggedIn)
	}
	return client.New(sess.BaseURL, sess.Token), sess
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("Error encoding JSON", err)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "NoteKeeper client\nVersion: %s\nBuild Date: %s\n",
			cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

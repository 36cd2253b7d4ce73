package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atinyakov/NoteKeeper/internal/client"
)

var (
	authUsername    string
	authPassword    string
	authDisplayName string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := client.PromptMissing(stdin, os.Stdout,
			client.PromptField{Label: "Username: ", Value: &authUsername},
			client.PromptField{Label: "Password: ", Value: &authPassword},
		)
		if err != nil {
			fatal("Error reading input", err)
		}

		sess := loadSession()
		res, err := client.New(sess.BaseURL, "").Register(context.Background(), authUsername, authPassword, authDisplayName)
		if err != nil {
			fatal("Error registering", err)
		}
		remember(sess, res)
		fmt.Printf("Registered as %s\n", res.User.Username)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := client.PromptMissing(stdin, os.Stdout,
			client.PromptField{Label: "Username: ", Value: &authUsername},
			client.PromptField{Label: "Password: ", Value: &authPassword},
		)
		if err != nil {
			fatal("Error reading input", err)
		}

		sess := loadSession()
		res, err := client.New(sess.BaseURL, "").Login(context.Background(), authUsername, authPassword)
		if err != nil {
			fatal("Error logging in", err)
		}
		remember(sess, res)
		fmt.Printf("Logged in as %s\n", res.User.Username)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		sess := loadSession()
		sess.Clear()
		if err := sess.Save(sessionPath); err != nil {
			fatal("Error saving session", err)
		}
		fmt.Println("Logged out")
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, _ := authedClient()
		profile, err := c.Me(context.Background())
		if err != nil {
			fatal("Error fetching profile", err)
		}
		if jsonOutput {
			printJSON(profile)
			return
		}
		fmt.Printf("%s (%s), id %d\n", profile.Username, profile.DisplayName, profile.ID)
	},
}

func remember(sess *client.Session, res client.AuthResult) {
	sess.Token = res.Token
	sess.Username = res.User.Username
	if err := sess.Save(sessionPath); err != nil {
		fatal("Error saving session", err)
	}
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "account name")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "password (prompted when omitted)")
	}
	registerCmd.Flags().StringVar(&authDisplayName, "name", "", "display name")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, meCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/client"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/credential"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/local"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/tui"
)

func newTodoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Open the local todo list in a terminal UI",
		Long: `Opens an in-memory todo session in a terminal UI. Tasks live for
the duration of the session. With --server and a stored login, the
chat view talks to the backend's agent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(local.NewService(), loadBackend())
		},
	}

	cmd.Flags().StringVar(&flagServer, "server", "", "backend base URL for the chat view")
	return cmd
}

// loadBackend builds an authenticated backend client from the keyring,
// or returns nil when --server is unset or no login is stored.
func loadBackend() *client.Client {
	if flagServer == "" {
		return nil
	}

	token, err := credential.Get(credential.KeyBackendToken)
	if err != nil || token == "" {
		return nil
	}
	userID, err := credential.Get(credential.KeyBackendUser)
	if err != nil || userID == "" {
		return nil
	}

	c := client.New(flagServer)
	c.SetAuth(userID, token)
	return c
}

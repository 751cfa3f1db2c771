package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/config"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	flagConfig string
	flagServer string
)

func main() {
	root := &cobra.Command{
		Use:   "taskie",
		Short: "Taskie is a todo app with a terminal UI and a chat agent backend",
		Long: `Taskie manages your todo list three ways: a local terminal UI
(taskie todo), a multi-user REST backend (taskie serve), and a chat
agent that operates your tasks through natural language.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(
		&flagConfig, "config", config.DefaultConfigPath(), "path to config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newTodoCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the taskie version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taskie %s\n", version)
		},
	}
}

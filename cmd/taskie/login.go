package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/client"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/credential"
)

func newLoginCmd() *cobra.Command {
	var (
		flagEmail  string
		flagSignup bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a taskie backend and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagServer == "" {
				return fmt.Errorf("--server is required")
			}
			return runLogin(flagServer, flagEmail, flagSignup)
		},
	}

	cmd.Flags().StringVar(&flagServer, "server", "", "backend base URL")
	cmd.Flags().StringVar(&flagEmail, "email", "", "account email")
	cmd.Flags().BoolVar(&flagSignup, "signup", false, "create a new account instead of signing in")
	return cmd
}

func runLogin(serverURL, email string, signup bool) error {
	var (
		password string
		name     string
	)

	fields := []huh.Field{}
	if email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&email))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password))
	if signup {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Value(&name))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(serverURL)
	var (
		session *client.Session
		err     error
	)
	if signup {
		session, err = c.Signup(ctx, email, password, name)
	} else {
		session, err = c.Signin(ctx, email, password)
	}
	if err != nil {
		return err
	}

	if err := credential.Set(credential.KeyBackendToken, session.Token); err != nil {
		return err
	}
	if err := credential.Set(credential.KeyBackendUser, session.UserID); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s. Token stored in the system keyring.\n", session.Email)
	return nil
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/session"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password, apiToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			var err error
			if apiToken != "" {
				err = session.ValidateExternalToken(email, apiToken)
			} else {
				err = session.ValidateCredentials(email, password)
			}
			if err != nil {
				return err
			}

			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			var sess *session.Session
			if apiToken != "" {
				sess, err = e.session.LoginWithToken(cmd.Context(), email, apiToken)
			} else {
				sess, err = e.session.LoginWithCredentials(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as %s\n", sess.User().Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&apiToken, "token", "", "tracker api token")
	cmd.MarkFlagRequired("email") //nolint:errcheck
	cmd.MarkFlagsMutuallyExclusive("password", "token")
	cmd.MarkFlagsOneRequired("password", "token")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			_, ok := e.session.Restore()
			e.session.Logout()
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Already logged out.")
			}
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			sess, ok := e.session.Restore()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			u := sess.User()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", u.Name, u.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "session expires %s (in %s)\n",
				sess.ExpiresAt().Local().Format(time.DateTime), time.Until(sess.ExpiresAt()).Round(time.Minute))
			return nil
		},
	}
}

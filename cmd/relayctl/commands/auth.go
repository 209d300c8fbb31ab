package commands

import (
	"fmt"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/services"

	"github.com/spf13/cobra"
)

func (a *app) registerCmd() *cobra.Command {
	var req auth.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.relay.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSession(cmd, session)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var req auth.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a fresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.relay.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSession(cmd, session)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func printSession(cmd *cobra.Command, session services.Session) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "user_id: %s\nname:    %s\n", session.UserID, session.Name)
	_, _ = fmt.Fprintf(out, "export RELAY_TOKEN=%s\n", session.Token)
}

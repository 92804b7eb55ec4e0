package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/services"
)

func (c *cli) userAddCmd() *cobra.Command {
	var (
		username    string
		displayName string
		role        int
		pw          passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "user-add",
		Short: "Create a user with a home project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.ValidateUsername(username); err != nil {
				return err
			}
			password, generated, err := pw.resolve(c.out)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, err := c.userService(ctx)
			if err != nil {
				return err
			}
			req := services.AddUserRequest{Username: username, Password: password, Role: role}
			if cmd.Flags().Changed("display-name") {
				req.DisplayName = &displayName
			}
			res, err := svc.AddUser(ctx, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "created user %s (home project %d)\n", res.User.Username, res.HomeProject.PubID)
			if generated {
				fmt.Fprintf(c.out, "password: %s\n", password)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
	cmd.Flags().StringVarP(&displayName, "display-name", "d", "", "display name")
	cmd.Flags().IntVarP(&role, "role", "r", constants.DefaultGlobalRole, "global role (0 read-only, 1 contributor, 2 owner)")
	cmd.Flags().StringVarP(&pw.password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&pw.generate, "generate-password", false, "generate a random password and print it")
	cmd.MarkFlagRequired("username")
	return cmd
}

func (c *cli) userDelCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "user-del",
		Short: "Delete a user, their token sets and memberships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.userService(ctx)
			if err != nil {
				return err
			}
			if err := svc.DeleteUser(ctx, username); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted user %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
	cmd.MarkFlagRequired("username")
	return cmd
}

func (c *cli) userModCmd() *cobra.Command {
	var (
		username    string
		displayName string
		role        int
	)
	cmd := &cobra.Command{
		Use:   "user-mod",
		Short: "Change a user's display name or global role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.ModifyUserRequest{Username: username}
			if cmd.Flags().Changed("display-name") {
				req.DisplayName = &displayName
			}
			if cmd.Flags().Changed("role") {
				req.Role = &role
			}
			if req.DisplayName == nil && req.Role == nil {
				return errors.New("nothing to change: pass -d and/or -r")
			}

			ctx := cmd.Context()
			svc, err := c.userService(ctx)
			if err != nil {
				return err
			}
			if err := svc.ModifyUser(ctx, req); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "modified user %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
	cmd.Flags().StringVarP(&displayName, "display-name", "d", "", "display name (empty clears it)")
	cmd.Flags().IntVarP(&role, "role", "r", 0, "global role (0 read-only, 1 contributor, 2 owner)")
	cmd.MarkFlagRequired("username")
	return cmd
}

func (c *cli) userModPasswdCmd() *cobra.Command {
	var (
		username string
		pw       passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "user-mod-passwd",
		Short: "Set a new password and revoke all of the user's token sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, generated, err := pw.resolve(c.out)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, err := c.userService(ctx)
			if err != nil {
				return err
			}
			res, err := svc.ChangePassword(ctx, username, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "password changed for %s, %d token set(s) revoked\n", username, res.RevokedTokenSets)
			if generated {
				fmt.Fprintf(c.out, "password: %s\n", password)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
	cmd.Flags().StringVarP(&pw.password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&pw.generate, "generate-password", false, "generate a random password and print it")
	cmd.MarkFlagRequired("username")
	return cmd
}

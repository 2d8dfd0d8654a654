package main

import (
	"fmt"

	"legal-fee-tracker-go/internal/common"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with the configured identity provider",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE:  runWhoami,
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := services.Session.Login(ctx); err != nil {
		return err
	}

	role, ok, err := tracker.ResolveRole(ctx)
	if err != nil {
		return err
	}

	snap := services.Session.Snapshot()
	fmt.Printf("Logged in as %s\n", snap.Principal)
	if ok {
		fmt.Printf("Role: %s\n", role)
	} else {
		fmt.Println("No profile yet. Run 'tracker register lawyer' or 'tracker register client'.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := services.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	snap := services.Session.Snapshot()
	if !snap.IsAuthenticated() {
		fmt.Println("Not logged in")
		return nil
	}

	common.PrintHeader("SESSION", common.DefaultWidth)
	fmt.Printf("Principal:   %s\n", snap.Principal)
	if role, ok := snap.ResolvedRole(); ok {
		fmt.Printf("Role:        %s\n", role)
	} else {
		fmt.Println("Role:        (not registered)")
	}
	fmt.Printf("Since:       %s\n", common.FormatDateTime(snap.CreatedAt.UnixNano()))
	fmt.Printf("Last active: %s\n", common.FormatTimeAgo(snap.LastActiveAt.UnixNano()))
	common.PrintFooter("Run 'tracker logout' to end this session", common.DefaultWidth)
	return nil
}

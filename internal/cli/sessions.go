package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage session-to-channel bindings",
	Long: `Manage which channel each agent session talks through. A session is
identified by its working directory. Unbound sessions use the default channel
and are queued here as pending until bound or dismissed.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List session bindings",
	RunE:  runSessionsList,
}

var sessionsBindCmd = &cobra.Command{
	Use:   "bind <session-id> <channel>",
	Short: "Bind a session to a channel",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionsBind,
}

var sessionsUnbindCmd = &cobra.Command{
	Use:   "unbind <session-id>",
	Short: "Remove a session binding",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsUnbind,
}

var sessionsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List sessions waiting for a channel binding",
	RunE:  runSessionsPending,
}

var sessionsDismissCmd = &cobra.Command{
	Use:   "dismiss <session-id>",
	Short: "Drop a pending session without binding it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDismiss,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsBindCmd)
	sessionsCmd.AddCommand(sessionsUnbindCmd)
	sessionsCmd.AddCommand(sessionsPendingCmd)
	sessionsCmd.AddCommand(sessionsDismissCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	_, _, reg, err := loadState()
	if err != nil {
		return err
	}

	bindings := reg.Bindings()
	if len(bindings) == 0 {
		fmt.Println("No session bindings")
		return nil
	}
	for sessionID, channel := range bindings {
		fmt.Printf("%-50s -> %s\n", sessionID, channel)
	}
	return nil
}

func runSessionsBind(cmd *cobra.Command, args []string) error {
	cfg, loader, reg, err := loadState()
	if err != nil {
		return err
	}

	if err := reg.BindSession(args[0], args[1]); err != nil {
		return err
	}
	if err := saveState(cfg, loader, reg); err != nil {
		return err
	}
	fmt.Printf("Session %q bound to channel %q\n", args[0], args[1])
	return nil
}

func runSessionsUnbind(cmd *cobra.Command, args []string) error {
	cfg, loader, reg, err := loadState()
	if err != nil {
		return err
	}

	if err := reg.UnbindSession(args[0]); err != nil {
		return err
	}
	if err := saveState(cfg, loader, reg); err != nil {
		return err
	}
	fmt.Printf("Session %q unbound\n", args[0])
	return nil
}

func runSessionsPending(cmd *cobra.Command, args []string) error {
	_, _, reg, err := loadState()
	if err != nil {
		return err
	}

	pending := reg.PendingSessions()
	if len(pending) == 0 {
		fmt.Println("No pending sessions")
		return nil
	}
	for _, p := range pending {
		fmt.Printf("%-50s first seen %s\n", p.SessionID, p.FirstSeen.Format(time.RFC3339))
	}
	return nil
}

func runSessionsDismiss(cmd *cobra.Command, args []string) error {
	cfg, loader, reg, err := loadState()
	if err != nil {
		return err
	}

	if err := reg.DequeuePending(args[0]); err != nil {
		return err
	}
	if err := saveState(cfg, loader, reg); err != nil {
		return err
	}
	fmt.Printf("Pending session %q dismissed\n", args[0])
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askuser/askuser/internal/metrics"
	"github.com/askuser/askuser/internal/registry"
	"github.com/askuser/askuser/internal/telegram"
)

var (
	channelToken   string
	channelChatID  int64
	channelAPIURL  string
	channelDefault bool
	channelRename  string
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Manage channel endpoints",
	Long: `Manage the named channel endpoints questions can be routed to.
Each endpoint is a bot token plus a target chat. The first endpoint added
becomes the default.`,
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured channels",
	RunE:  runChannelsList,
}

var channelsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a channel endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelsAdd,
}

var channelsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a channel endpoint",
	Long: `Remove a channel endpoint. Sessions bound to it fall back to
default routing; if it was the default, another channel takes over when one
exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runChannelsRemove,
}

var channelsUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update a channel endpoint",
	Long: `Update fields of a channel endpoint. Renaming a channel drops its
session bindings, since they name the channel they point at.`,
	Args: cobra.ExactArgs(1),
	RunE: runChannelsUpdate,
}

var channelsSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Designate the default channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelsSetDefault,
}

var channelsTestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Send a probe message through a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelsTest,
}

func init() {
	channelsAddCmd.Flags().StringVar(&channelToken, "token", "", "Telegram bot token")
	channelsAddCmd.Flags().Int64Var(&channelChatID, "chat-id", 0, "target chat id")
	channelsAddCmd.Flags().StringVar(&channelAPIURL, "api-url", "", "alternate Bot API base URL")
	channelsAddCmd.Flags().BoolVar(&channelDefault, "default", false, "make this channel the default")
	_ = channelsAddCmd.MarkFlagRequired("token")
	_ = channelsAddCmd.MarkFlagRequired("chat-id")

	channelsUpdateCmd.Flags().StringVar(&channelRename, "name", "", "new channel name")
	channelsUpdateCmd.Flags().StringVar(&channelToken, "token", "", "new bot token")
	channelsUpdateCmd.Flags().Int64Var(&channelChatID, "chat-id", 0, "new target chat id")
	channelsUpdateCmd.Flags().StringVar(&channelAPIURL, "api-url", "", "new Bot API base URL")

	channelsCmd.AddCommand(channelsListCmd)
	channelsCmd.AddCommand(channelsAddCmd)
	channelsCmd.AddCommand(channelsRemoveCmd)
	channelsCmd.AddCommand(channelsUpdateCmd)
	channelsCmd.AddCommand(channelsSetDefaultCmd)
	channelsCmd.AddCommand(channelsTestCmd)
	rootCmd.AddCommand(channelsCmd)
}

func runChannelsList(cmd *cobra.Command, args []string) error {
	_, _, reg, err := loadState()
	if err != nil {
		return err
	}

	names := reg.Names()
	if len(names) == 0 {
		fmt.Println("No channels configured. Add one with: askuser channels add")
		return nil
	}

	defaultName := reg.DefaultName()
	for _, name := range names {
		ep, err := reg.Get(name)
		if err != nil {
			continue
		}
		marker := " "
		if name == defaultName {
			marker = "*"
		}
		fmt.Printf("%s %-20s chat %d", marker, name, ep.ChatID)
		if ep.APIBaseURL != "" {
			fmt.Printf("  api %s", ep.APIBaseURL)
		}
		fmt.Println()
	}
	return nil
}

func runChannelsAdd(cmd *cobra.Command, args []string) error {
	cfg, loader, reg, err := loadState()
	if err != nil {
		return err
	}

	ep := registry.Endpoint{
		Name:       args[0],
		Token:      channelToken,
		ChatID:     channelChatID,
		APIBaseURL: channelAPIURL,
	}
	if err := reg.Add(ep); err != nil {
		return err
	}
	if channelDefault {
		if err := reg.SetDefault(ep.Name); err != nil {
			return err
		}
	}

	if err := saveState(cfg, loader, reg); err != nil {
		return err
	}
	fmt.Printf("Channel %q added", ep.Name)
	if reg.DefaultName() == ep.Name {
		fmt.Print(" (default)")
	}
	fmt.Println()
	return nil
}

func runChannelsRemove(cmd *cobra.Command, args []string) error {
	cfg, loader, reg, err := loadState()
	if err != nil {
		return err
	}

	if err := reg.Remove(args[0]); err != nil {
		return err
	}
	if err := saveState(cfg, loader, reg); err != nil {
		return err
	}
	fmt.Printf("Channel %q removed\n", args[0])
	return nil
}

func runChannelsUpdate(cmd *cobra.Command, args []string) error {
	cfg, loader, reg, err := loadState()
	if err != nil {
		return err
	}

	ep, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("name") {
		ep.Name = channelRename
	}
	if cmd.Flags().Changed("token") {
		ep.Token = channelToken
	}
	if cmd.Flags().Changed("chat-id") {
		ep.ChatID = channelChatID
	}
	if cmd.Flags().Changed("api-url") {
		ep.APIBaseURL = channelAPIURL
	}

	if err := reg.Update(args[0], ep); err != nil {
		return err
	}
	if err := saveState(cfg, loader, reg); err != nil {
		return err
	}
	fmt.Printf("Channel %q updated\n", ep.Name)
	return nil
}

func runChannelsSetDefault(cmd *cobra.Command, args []string) error {
	cfg, loader, reg, err := loadState()
	if err != nil {
		return err
	}

	if err := reg.SetDefault(args[0]); err != nil {
		return err
	}
	if err := saveState(cfg, loader, reg); err != nil {
		return err
	}
	fmt.Printf("Default channel is now %q\n", args[0])
	return nil
}

func runChannelsTest(cmd *cobra.Command, args []string) error {
	_, _, reg, err := loadState()
	if err != nil {
		return err
	}

	ep, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	transport, err := telegram.New(ep, metrics.NewMetrics())
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if err := transport.TestConnection(cmd.Context()); err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	fmt.Printf("Channel %q is reachable\n", args[0])
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Print the effective configuration with bot tokens masked.`,
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, loader, _, err := loadState()
	if err != nil {
		return err
	}

	fmt.Printf("Config file: %s\n\n", loader.GetConfigPath())
	fmt.Println(cfg.String())
	return nil
}

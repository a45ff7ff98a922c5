package cmd

import (
	"fmt"
	"strings"
	"time"

	"chemclip/pkg/config"
	"chemclip/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	configProfileName string
	configFormats     []string
	configRetries     int
	configRetryDelay  time.Duration
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chemclip configuration and profiles",
	Long:  `Manage chemclip configuration, including per-application profiles that choose which registered names the CDX binary is published under.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration including active profile settings and environment overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(profileFlag)
		if err != nil {
			return err
		}

		out := NewOutputWriter(outputFormat)
		if out.IsStructured() {
			return out.Write(cfg)
		}

		fmt.Println("Current Configuration:")
		fmt.Println("======================")
		fmt.Printf("Active Profile: %s\n", func() string {
			if cfg.ActiveProfile == "" {
				return "(none)"
			}
			return cfg.ActiveProfile
		}())
		fmt.Println()
		fmt.Printf("Binary Formats: %s\n", strings.Join(cfg.Clipboard.BinaryFormats, ", "))
		fmt.Printf("Retries: %d (every %s)\n", cfg.Clipboard.Retries, cfg.Clipboard.RetryDelay)
		fmt.Printf("History: %s\n", func() string {
			if !cfg.History.IsEnabled() {
				return "(disabled)"
			}
			return cfg.History.Path
		}())
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)

		if len(cfg.Profiles) > 0 {
			fmt.Println()
			fmt.Println("Available Profiles:")
			for _, p := range cfg.Profiles {
				active := ""
				if cfg.IsProfileActive(p.Name) {
					active = " (active)"
				}
				fmt.Printf("  - %s%s\n", p.Name, active)
				fmt.Printf("      Formats: %s\n", joinOrDash(p.Clipboard.BinaryFormats))
			}
		}

		return nil
	},
}

var configProfilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Manage configuration profiles",
	Long:    `List, add, remove, and switch between clipboard profiles.`,
}

var configProfilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		profiles := cfg.ListProfiles()
		if len(profiles) == 0 {
			fmt.Println("No profiles configured.")
			fmt.Println("Use 'chemclip config profiles add --name <name>' to create one.")
			return nil
		}

		fmt.Println("Profiles:")
		for _, name := range profiles {
			profile, _ := cfg.GetProfile(name)
			active := ""
			if cfg.IsProfileActive(name) {
				active = " *active*"
			}
			fmt.Printf("  %s%s\n", name, active)
			fmt.Printf("    Formats: %s\n", joinOrDash(profile.Clipboard.BinaryFormats))
			if profile.Clipboard.Retries > 0 {
				fmt.Printf("    Retries: %d\n", profile.Clipboard.Retries)
			}
		}

		return nil
	},
}

var configProfilesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new profile",
	Long:  `Add a new clipboard profile for a paste target.`,
	Example: `  # Profile for an ELN that reads the interchange name
  chemclip config profiles add --name eln --formats CDX --formats "ChemDraw Interchange Format"

  # Profile that waits longer for a busy clipboard
  chemclip config profiles add --name slow --retries 10 --retry-delay 500ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configProfileName == "" {
			return errors.ConfigError("profile name is required (--name)")
		}
		if configRetries < 0 {
			return errors.ValidationError("--retries must not be negative")
		}

		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		profile := config.Profile{
			Name: configProfileName,
			Clipboard: config.ClipboardConfig{
				BinaryFormats: configFormats,
				Retries:       configRetries,
				RetryDelay:    configRetryDelay,
			},
		}

		if err := cfg.AddProfile(profile); err != nil {
			return errors.ConfigError(err.Error())
		}

		if IsDryRun() {
			PrintDryRunAction("add profile", map[string]string{
				"name":    profile.Name,
				"formats": joinOrDash(profile.Clipboard.BinaryFormats),
			})
			return nil
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		fmt.Printf("Profile '%s' added successfully.\n", configProfileName)
		fmt.Printf("Use 'chemclip config profiles use --name %s' to activate it.\n", configProfileName)

		return nil
	},
}

var configProfilesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configProfileName == "" {
			return errors.ConfigError("profile name is required (--name)")
		}

		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		if err := cfg.RemoveProfile(configProfileName); err != nil {
			return errors.ConfigError(err.Error())
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		fmt.Printf("Profile '%s' removed successfully.\n", configProfileName)
		return nil
	},
}

var configProfilesUseCmd = &cobra.Command{
	Use:   "use",
	Short: "Switch to a profile",
	Long:  `Set the active profile for subsequent commands. An empty name clears it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		if err := cfg.SetProfile(configProfileName); err != nil {
			return errors.ConfigError(err.Error())
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		if configProfileName == "" {
			fmt.Println("Cleared the active profile.")
			return nil
		}
		fmt.Printf("Switched to profile '%s'.\n", configProfileName)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	// Profile management flags
	configProfilesAddCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	configProfilesAddCmd.Flags().StringSliceVar(&configFormats, "formats", nil, "Registered names for the CDX payload (repeatable)")
	configProfilesAddCmd.Flags().IntVar(&configRetries, "retries", 0, "Extra attempts when the clipboard is busy")
	configProfilesAddCmd.Flags().DurationVar(&configRetryDelay, "retry-delay", 0, "Wait between attempts")
	if err := configProfilesAddCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	configProfilesRemoveCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	if err := configProfilesRemoveCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	configProfilesUseCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	if err := configProfilesUseCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	// Add commands
	configProfilesCmd.AddCommand(configProfilesListCmd)
	configProfilesCmd.AddCommand(configProfilesAddCmd)
	configProfilesCmd.AddCommand(configProfilesRemoveCmd)
	configProfilesCmd.AddCommand(configProfilesUseCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configProfilesCmd)
	configCmd.AddCommand(configPathCmd)
}

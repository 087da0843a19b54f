package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/planboard/pkg/auth"
	"github.com/harrisonrobin/planboard/pkg/config"
)

var configSet []string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize planboard with Google Drive",
	Long: `Removes any cached token and runs the browser authorization flow again.

The OAuth client secrets must be saved as credentials.json in the
configuration directory (~/.config/planboard by default).`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
	Long: `Prints the effective configuration. With --set, updates keys and saves
the file.

Example:
  planboard config --set sheet.header_row=3 --set drive.file_name=Plan.xlsx`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringArrayVar(&configSet, "set", nil, "Set a key, as section.key=value")
}

func runAuth(cmd *cobra.Command, args []string) error {
	a, err := newAuthenticator()
	if err != nil {
		return err
	}
	if err := a.Reset(); err != nil {
		return err
	}
	logger.Info("Cached token removed", zap.String("dir", a.Dir))

	if _, err := a.Client(cmd.Context()); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", auth.TokenFile)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if len(configSet) == 0 {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	}

	for _, kv := range configSet {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		if err := cfg.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}

	var err error
	if configPath != "" {
		err = config.SaveFile(cfg, configPath)
	} else {
		err = config.Save(cfg)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d key(s).\n", len(configSet))
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/logging"
	"github.com/Mohsinsiddi/tokenlaunch/internal/rpc"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/spf13/cobra"
)

// configSetters validate and apply one settable key each.
var configSetters = map[string]func(c *config.Config, v string) error{
	"default_network": func(c *config.Config, v string) error {
		n, err := chain.NewRegistry().Resolve(v)
		if err != nil {
			return fmt.Errorf("unknown network %q", v)
		}
		c.DefaultNetwork = n.Name
		return nil
	},
	"default_wallet": func(c *config.Config, v string) error {
		c.DefaultWallet = v
		return nil
	},
	"backend_url": func(c *config.Config, v string) error {
		if v != "" {
			u, err := url.Parse(v)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("backend_url must be an http(s) URL")
			}
		}
		c.BackendURL = strings.TrimRight(v, "/")
		return nil
	},
	"backend_token": func(c *config.Config, v string) error {
		c.BackendToken = v
		return nil
	},
	"log_level": func(c *config.Config, v string) error {
		if _, err := logging.ParseLevel(v); err != nil {
			return err
		}
		c.LogLevel = strings.ToLower(v)
		return nil
	},
	"solc_path": func(c *config.Config, v string) error {
		if v == "" {
			return fmt.Errorf("solc_path cannot be empty")
		}
		c.SolcPath = v
		return nil
	},
	"price_currency": func(c *config.Config, v string) error {
		if v == "" {
			return fmt.Errorf("price_currency cannot be empty")
		}
		c.PriceCurrency = strings.ToLower(v)
		return nil
	},
	"rpc_algorithm": func(c *config.Config, v string) error {
		algo, err := rpc.ParseAlgorithm(v)
		if err != nil {
			return err
		}
		c.RPCAlgorithm = string(algo)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		view := *cfg
		if view.BackendToken != "" {
			view.BackendToken = "********"
		}
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Settable keys: " + strings.Join(configKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		set, ok := configSetters[key]
		if !ok {
			return fmt.Errorf("unknown key %q (settable: %s)", key, strings.Join(configKeys(), ", "))
		}
		if err := set(cfg, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		shownValue := value
		if key == "backend_token" {
			shownValue = "********"
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s set to %q", key, shownValue)))
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	configCmd.AddCommand(configListCmd, configSetCmd)
}

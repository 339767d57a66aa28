package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tramita/tramita/pkg/config"
	"github.com/tramita/tramita/pkg/logging"
	"github.com/tramita/tramita/pkg/sei"
)

const version = "0.1.0"

var (
	cfgFile      string
	headless     bool
	cdpEndpoint  string
	outputJSON   bool
	loadedConfig *config.Session
)

var rootCmd = &cobra.Command{
	Use:     "tramita",
	Short:   "Drive a SEI portal from the terminal",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env next to the invocation keeps credentials out of shell
		// history; absence is fine.
		_ = godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("headless") {
			cfg.Driver.Headless = headless
		}
		if cdpEndpoint != "" {
			cfg.Driver.CDPEndpoint = cdpEndpoint
		}
		loadedConfig = cfg
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.tramita/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "run the browser without a window")
	rootCmd.PersistentFlags().StringVar(&cdpEndpoint, "attach", "", "attach to a running browser at this debug address")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print read models as JSON")
	rootCmd.SetVersionTemplate(`{{printf "tramita v%s\n" .Version}}`)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unitsCmd)
}

// withSession opens a browser session, logs in with the configured
// credentials, runs fn, and tears the session down.
func withSession(fn func(*sei.Client) error) error {
	log, err := logging.NewLogger("cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	defer log.Close()

	client := sei.New(*loadedConfig, log)
	if err := client.Init(); err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			log.Warnf("session close: %v", cerr)
		}
	}()

	ok, err := client.Login("", "", "")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !ok {
		return fmt.Errorf("login rejected for %s", loadedConfig.Username)
	}
	return fn(client)
}

// withProcess opens the given process before running fn.
func withProcess(number string, fn func(*sei.Client) error) error {
	return withSession(func(client *sei.Client) error {
		ok, err := client.OpenProcess(number)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("process %s not found", number)
		}
		return fn(client)
	})
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify the configured credentials against the portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(client *sei.Client) error {
			printOK("logged in as %s", loadedConfig.Username)
			if url := client.ReconnectURL(); url != "" {
				printField("reconnect", url)
			}
			return nil
		})
	},
}

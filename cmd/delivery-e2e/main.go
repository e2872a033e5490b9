package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netology-qa/card-delivery-e2e/internal/browser"
	"github.com/netology-qa/card-delivery-e2e/internal/logging"
	"github.com/netology-qa/card-delivery-e2e/internal/version"
	"github.com/netology-qa/card-delivery-e2e/tests/e2e/config"
)

var (
	configDirFlag string
	baseURLFlag   string
	browserFlag   string
	headedFlag    bool
	debugFlag     bool
)

var rootCmd = &cobra.Command{
	Use:   "delivery-e2e",
	Short: "End-to-end checks for the card delivery booking form",
	Long: `delivery-e2e drives the card delivery booking form in a real browser.

It fills city, date, name, phone and the agreement checkbox, submits the
form and checks either the success notification or the inline field error.
A local stub of the application is available for offline runs.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := os.Getenv("LOG_LEVEL")
		if debugFlag {
			level = "debug"
		}
		logging.Setup(os.Stderr, level)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("delivery-e2e %s\n", version.Full())
	},
}

var installCmd = &cobra.Command{
	Use:   "install [browser...]",
	Short: "Download the Playwright driver and browsers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := browser.Install(args...); err != nil {
			return err
		}
		fmt.Println("✅ Playwright browsers installed")
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configDirFlag, "config-dir", ".", "Directory holding e2e.yaml")
	pf.StringVar(&baseURLFlag, "base-url", "", "Form URL (overrides base_url)")
	pf.StringVar(&browserFlag, "browser", "", "chromium, firefox or webkit (overrides browser)")
	pf.BoolVar(&headedFlag, "headed", false, "Show the browser window")
	pf.BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeDatesCmd)
	rootCmd.AddCommand(serveStubCmd)
}

// loadConfig applies command line overrides on top of e2e.yaml and the
// environment.
func loadConfig() (*config.TestConfig, error) {
	cfg, err := config.Load(configDirFlag)
	if err != nil {
		return nil, err
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	} else {
		cfg.ResolveBaseURL()
	}
	if browserFlag != "" {
		cfg.Browser = browserFlag
	}
	if headedFlag {
		cfg.Headless = false
	}
	if debugFlag {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// Package main provides the Nexus miner terminal: a multi-account dashboard
// automation that keeps mining sessions alive behind per-account proxies and
// renders their state in an interactive terminal interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/account"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/browser"
	appconfig "github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/config"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/miner"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/tui"
)

const version = "1.0.0"

// Config holds the command line configuration.
type Config struct {
	ConfigPath   string
	AccountsFile string
	Filter       string
	Headed       bool
	NoUI         bool
	ShowVersion  bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("nexusminer v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags.
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ConfigPath, "config", "", "Path to settings file (default: config.yaml if present)")
	flag.StringVar(&config.AccountsFile, "accounts", "", "Path to the JSON account list (overrides settings file)")
	flag.StringVar(&config.Filter, "filter", "", "Glob pattern selecting accounts by address (overrides settings file)")
	flag.BoolVar(&config.Headed, "headed", false, "Run browsers with a visible window")
	flag.BoolVar(&config.NoUI, "no-ui", false, "Run without the terminal interface: start all accounts and mine until interrupted")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Nexus Miner - multi-account dashboard automation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: nexusminer [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  nexusminer                                 # interactive terminal, accounts.json\n")
		fmt.Fprintf(os.Stderr, "  nexusminer -accounts wallets.json\n")
		fmt.Fprintf(os.Stderr, "  nexusminer -filter '0xabc*'                # only matching addresses\n")
		fmt.Fprintf(os.Stderr, "  nexusminer -no-ui                          # unattended mode for servers\n")
	}

	flag.Parse()
	return config
}

// run wires settings, accounts, the browser engine and the supervisor, then
// hands control to the chosen front end.
func run(ctx context.Context, config *Config) error {
	settings, err := appconfig.Load(config.ConfigPath)
	if err != nil {
		return err
	}
	if config.AccountsFile != "" {
		settings.AccountsFile = config.AccountsFile
	}
	if config.Filter != "" {
		settings.Filter = config.Filter
	}
	if config.Headed {
		settings.Headless = false
	}

	// Accounts must load before anything heavier starts; a bad account
	// file aborts the run with nothing to clean up.
	accounts, err := account.Load(settings.AccountsFile)
	if err != nil {
		return err
	}
	accounts, err = account.Filter(accounts, settings.Filter)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts match filter %q", settings.Filter)
	}

	specs, err := settings.ProxySpecs()
	if err != nil {
		return err
	}

	manager := browser.NewManager()
	if err := manager.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			log.Printf("Warning: browser shutdown: %v", err)
		}
	}()

	if config.NoUI {
		return runUnattended(ctx, settings, accounts, specs, manager)
	}
	return runTUI(ctx, settings, accounts, specs, manager)
}

// runTUI runs the interactive terminal. The supervisor is shut down after
// the interface exits so sessions never outlive the display.
func runTUI(ctx context.Context, settings appconfig.Settings, accounts []account.Account, specs []*proxy.Spec, manager *browser.Manager) error {
	executor := tui.NewExecutor()
	sv := miner.NewSupervisor(accounts, specs, manager, nil, executor.Emit)
	sv.ApplyBrowserOptions(settings.Headless, settings.ScreenshotDir)
	defer sv.Shutdown()

	return executor.Run(ctx, sv)
}

// runUnattended starts every account, mines until the context is cancelled,
// then stops everything in order.
func runUnattended(ctx context.Context, settings appconfig.Settings, accounts []account.Account, specs []*proxy.Spec, manager *browser.Manager) error {
	sv := miner.NewSupervisor(accounts, specs, manager, nil, nil)
	sv.ApplyBrowserOptions(settings.Headless, settings.ScreenshotDir)
	defer sv.Shutdown()

	fmt.Printf("nexusminer v%s - unattended mode, %d account(s)\n", version, len(accounts))
	sv.StartAll(ctx)

	<-ctx.Done()
	fmt.Println("\nShutting down...")
	sv.StopAll()
	return nil
}

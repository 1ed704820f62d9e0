// Command dashboardsei runs the assisted extraction flow against the SEI
// portal and writes the resulting document list as a report.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/FilipeCampos25/dashboardSei/internal/config"
	"github.com/FilipeCampos25/dashboardSei/internal/observability"
	"github.com/FilipeCampos25/dashboardSei/internal/reporting"
	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"github.com/FilipeCampos25/dashboardSei/internal/scraper/sei"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	debug := flag.Bool("debug", false, "force DEBUG log level")
	manualLogin := flag.Bool("manual-login", false, "wait for manual login")
	autoLogin := flag.Bool("auto-login", false, "try automated login")
	maxProcesses := flag.Int("max-processes", 0, "cap on process entries per selection (0 = from config)")
	maxPages := flag.Int("max-pages", 0, "cap on listing pages walked (0 = from config)")
	selectorsPath := flag.String("selectors", "", "path to the locator table JSON (default from config)")
	flag.Parse()

	if *manualLogin && *autoLogin {
		return fmt.Errorf("use only one of -manual-login or -auto-login")
	}

	cfg := config.Load()
	if *debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		cfg.LogLevel = "DEBUG"
	}
	if *manualLogin {
		cfg.ManualLogin = true
	}
	if *autoLogin {
		cfg.ManualLogin = false
	}
	if *maxProcesses > 0 {
		cfg.MaxProcesses = *maxProcesses
	}
	if *maxPages > 0 {
		cfg.MaxPages = *maxPages
	}
	if *selectorsPath != "" {
		cfg.SelectorsPath = *selectorsPath
	}

	log := observability.NewLogger(observability.LoggerConfig{
		Level:   cfg.LogLevel,
		LogFile: cfg.LogFile,
	})
	defer func() { _ = log.Sync() }()

	selectors, err := sei.LoadSelectors(cfg.SelectorsPath)
	if err != nil {
		return err
	}

	driver, err := browser.NewRodDriver(
		browser.WithHeadless(cfg.Headless),
		browser.WithOpTimeout(cfg.Timeout()),
	)
	if err != nil {
		return err
	}
	defer func() { _ = driver.Close() }()

	// Ctrl-C tears the browser down before the process dies.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupted, shutting browser down")
		_ = driver.Close()
		os.Exit(130)
	}()

	session, err := sei.NewSession(driver, selectors, sei.SessionOptions{
		BaseURL:       cfg.SEIURL,
		Username:      cfg.Username,
		Password:      cfg.Password,
		ManualLogin:   cfg.ManualLogin,
		LoginWait:     cfg.ManualLoginWait(),
		Timeout:       cfg.Timeout(),
		SearchTargets: cfg.SearchTargets,
		MatchMode:     sei.ParseMatchMode(cfg.MatchMode, log),
		MaxPages:      cfg.MaxPages,
		MaxProcesses:  cfg.MaxProcesses,
		MaxCycles:     cfg.MaxCycles,
	}, log)
	if err != nil {
		return err
	}

	if cfg.ManualLogin && stdinIsTerminal() {
		session.SetLoginConfirmation(func() {
			fmt.Println("Finish the login in the browser window, then press ENTER to continue...")
			_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		})
	}

	documents, err := session.Run()
	if err != nil {
		return err
	}

	jsonPath, csvPath, err := reporting.Write(cfg.OutputDir, cfg.ReportName, documents)
	if err != nil {
		return err
	}
	log.Info("report written",
		zap.Int("documents", len(documents)),
		zap.String("json", jsonPath),
		zap.String("csv", csvPath))
	return nil
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

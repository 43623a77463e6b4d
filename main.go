package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/coordinator"
	"github.com/harrisonrobin/taskboard/pkg/derive"
	"github.com/harrisonrobin/taskboard/pkg/extract"
	"github.com/harrisonrobin/taskboard/pkg/google"
	"github.com/harrisonrobin/taskboard/pkg/logging"
	"github.com/harrisonrobin/taskboard/pkg/server"
	"github.com/harrisonrobin/taskboard/pkg/sheets"
	"github.com/harrisonrobin/taskboard/pkg/store"
	"github.com/harrisonrobin/taskboard/pkg/writer"
)

func main() {
	// 1. Parse Flags
	configDir := flag.String("config-dir", "", "directory holding config.json and credentials (default ~/.config/taskboard)")
	serve := flag.Bool("serve", false, "serve the dashboard over HTTP")
	addr := flag.String("addr", "", "listen address for --serve (overrides config)")
	refresh := flag.Duration("refresh", 0, "reload interval while serving, 0 disables")
	source := flag.String("source", "", "read source: gviz or api (overrides config)")
	setAPIKey := flag.String("set-api-key", "", "store the Gemini API key used for document extraction")
	clearAPIKey := flag.Bool("clear-api-key", false, "remove the stored Gemini API key")
	doAuth := flag.Bool("auth", false, "authorize Sheets API access and cache the token")
	writeConfig := flag.Bool("write-config", false, "save the effective configuration and exit")
	logFile := flag.String("log-file", "", "write logs to this file (rotated)")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	log, err := logging.New(logging.Options{Level: *logLevel, File: *logFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	dir := *configDir
	if dir == "" {
		if dir, err = config.GetConfigDir(); err != nil {
			log.Fatalf("could not find configuration directory: %v", err)
		}
	}

	// 2. Handle Credential
	creds, err := config.LoadCredential(dir)
	if err != nil {
		log.Fatalf("Error loading credential: %v", err)
	}
	if *clearAPIKey {
		if err := creds.Clear(); err != nil {
			log.Fatalf("Error clearing API key: %v", err)
		}
		fmt.Println("Gemini API key removed")
		return
	}
	if flag.CommandLine.Changed("set-api-key") {
		if err := creds.SetAPIKey(*setAPIKey); err != nil {
			log.Fatalf("Error saving API key: %v", err)
		}
		if creds.Configured() {
			fmt.Println("Gemini API key saved")
		} else {
			fmt.Println("Gemini API key removed")
		}
		return
	}

	// 3. Load Config (Priority: Flag > Config > Default)
	cfg, err := config.Load(dir)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *source != "" {
		cfg.Source = *source
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *writeConfig {
		if err := config.Save(dir, cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", config.GetConfigPath(dir))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Handle Authentication
	authn := auth.New(dir, log)
	if *doAuth {
		log.Infof("Removing any cached token at '%s'", authn.TokenPath())
		if err := authn.Reset(); err != nil {
			log.Fatalf("%v. Please delete it manually", err)
		}
		if _, err := authn.Client(ctx, auth.SheetsScopes); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		log.Infof("Authentication successful! Token saved to %s", authn.TokenPath())
		return
	}

	// 5. Assemble the data layer
	fetcher, err := newFetcher(ctx, cfg, authn, log)
	if err != nil {
		log.Fatalf("Error creating %s fetcher: %v", cfg.Source, err)
	}
	w := writer.NewClient(&http.Client{Timeout: cfg.WriteTimeout()}, cfg.ScriptURL, log)
	st := store.New(fetcher, cfg.Sheets.ByTable(), cfg.FetchTimeout(), log)
	coord := coordinator.New(st, w, log)
	loc := cfg.Location()
	coord.SetClock(func() time.Time { return time.Now().In(loc) })

	if !*serve {
		// One-shot: load once and print the dashboard view.
		view, err := coord.TriggerReload(ctx)
		if err != nil {
			log.Fatalf("Error loading spreadsheet: %v", err)
		}
		if err := printView(view); err != nil {
			log.Fatalf("Error encoding view: %v", err)
		}
		return
	}

	// 6. Serve
	if _, err := coord.TriggerReload(ctx); err != nil {
		log.WithError(err).Warn("initial load failed, serving empty dashboard")
	}
	ext := extract.NewClient(creds, cfg.GeminiModel, log)
	srv := server.New(coord, ext, creds, cfg.Sheets, log)

	if *refresh > 0 {
		go reloadEvery(ctx, coord, *refresh)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.Addr) }()

	select {
	case err := <-errc:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.WithError(err).Warn("shutdown")
		}
	}
}

func newFetcher(ctx context.Context, cfg *config.Config, authn *auth.Authenticator, log logrus.FieldLogger) (store.Fetcher, error) {
	if cfg.Source == config.SourceAPI {
		client, err := google.NewClient(ctx, authn, cfg.SpreadsheetID, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	httpClient := &http.Client{Timeout: cfg.FetchTimeout()}
	return sheets.NewClient(httpClient, sheets.DefaultBaseURL, cfg.SpreadsheetID, log), nil
}

func reloadEvery(ctx context.Context, coord *coordinator.Coordinator, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are logged by the coordinator; the last view stays up.
			_, _ = coord.TriggerReload(ctx)
		}
	}
}

func printView(view derive.View) error {
	b, err := sonic.ConfigStd.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}

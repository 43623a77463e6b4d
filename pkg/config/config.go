// Package config loads the dashboard settings and the persisted API
// credential from the user's config directory.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/natefinch/atomic"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

const (
	xdgAppName = "taskboard"
	configFile = "config.json"
)

// Fetch sources.
const (
	SourceGviz = "gviz"
	SourceAPI  = "api"
)

// Sheets names the spreadsheet tab of each table.
type Sheets struct {
	Meetings      string `json:"meetings"`
	Categories    string `json:"categories"`
	Organizations string `json:"organizations"`
	Staff         string `json:"staff"`
	Todos         string `json:"todos"`
}

// ByTable maps each table to its sheet name.
func (s Sheets) ByTable() map[model.Table]string {
	return map[model.Table]string{
		model.Meetings:      s.Meetings,
		model.Categories:    s.Categories,
		model.Organizations: s.Organizations,
		model.Staff:         s.Staff,
		model.Todos:         s.Todos,
	}
}

// SheetFor returns the sheet name of table.
func (s Sheets) SheetFor(table model.Table) string {
	return s.ByTable()[table]
}

type Config struct {
	SpreadsheetID       string `json:"spreadsheet_id"`
	ScriptURL           string `json:"apps_script_url"`
	Sheets              Sheets `json:"sheets"`
	Source              string `json:"source"`
	GeminiModel         string `json:"gemini_model"`
	Timezone            string `json:"timezone"`
	Addr                string `json:"addr"`
	FetchTimeoutSeconds int    `json:"fetch_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		SpreadsheetID: "1GzW2xIWs9wUIS0mbB37LmXiTrfrJ6rtkGrOPmI-r2cU",
		ScriptURL:     "https://script.google.com/macros/s/AKfycbz4OnG65YDYIPQBJyPk3S82T9cJhnsxKaQynmIT0Cq2H816rmfVI_wQ2d3F_rzA7pM8qA/exec",
		Sheets: Sheets{
			Meetings:      "01_會議工作清單",
			Categories:    "02_分類設定",
			Organizations: "03_單位設定",
			Staff:         "04_人員設定",
			Todos:         "05_待辦追蹤",
		},
		Source:              SourceGviz,
		GeminiModel:         "gemini-2.5-flash",
		Timezone:            "Asia/Taipei",
		Addr:                "127.0.0.1:8080",
		FetchTimeoutSeconds: 15,
		WriteTimeoutSeconds: 15,
	}
}

// applyDefaults fills zero fields from Default.
func (c *Config) applyDefaults() {
	d := Default()
	if c.SpreadsheetID == "" {
		c.SpreadsheetID = d.SpreadsheetID
	}
	if c.ScriptURL == "" {
		c.ScriptURL = d.ScriptURL
	}
	if c.Sheets.Meetings == "" {
		c.Sheets.Meetings = d.Sheets.Meetings
	}
	if c.Sheets.Categories == "" {
		c.Sheets.Categories = d.Sheets.Categories
	}
	if c.Sheets.Organizations == "" {
		c.Sheets.Organizations = d.Sheets.Organizations
	}
	if c.Sheets.Staff == "" {
		c.Sheets.Staff = d.Sheets.Staff
	}
	if c.Sheets.Todos == "" {
		c.Sheets.Todos = d.Sheets.Todos
	}
	if c.Source == "" {
		c.Source = d.Source
	}
	if c.GeminiModel == "" {
		c.GeminiModel = d.GeminiModel
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = d.FetchTimeoutSeconds
	}
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = d.WriteTimeoutSeconds
	}
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Source != SourceGviz && c.Source != SourceAPI {
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceGviz, SourceAPI)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// GetConfigDir returns ~/.config/taskboard.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// GetConfigPath returns the config file inside dir.
func GetConfigPath(dir string) string {
	return filepath.Join(dir, configFile)
}

// Load reads the config file in dir. A missing file yields Default.
func Load(dir string) (*Config, error) {
	path := GetConfigPath(dir)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to the config file in dir atomically.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(GetConfigPath(dir), bytes.NewReader(append(b, '\n'))); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

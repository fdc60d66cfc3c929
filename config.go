package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var envReplacer = strings.NewReplacer(".", "_")

// Config is the resolved configuration for one run
type Config struct {
	DataDir         string
	DatabaseDSN     string
	BrowserHeadless bool
	LogLevel        string
	LogFile         string
	Plain           bool
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("data_dir", filepath.Join(home, ".lcpunlock"))
	v.SetDefault("database.dsn", "")
	v.SetDefault("browser.headless", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("ui.plain", false)
}

// bindFlags registers the persistent flags and binds them to viper keys
func bindFlags(cmd *cobra.Command, v *viper.Viper, cfgFile *string) {
	flags := cmd.PersistentFlags()
	flags.StringVar(cfgFile, "config", "", "config file (default is $HOME/.lcpunlock.yaml or ./lcpunlock.yaml)")
	flags.String("data-dir", "", "directory for the passphrase database, logs and browser profile")
	flags.String("db-dsn", "", "passphrase database (default <data-dir>/passphrases.db)")
	flags.Bool("headless-browser", false, "do not show the browser window used for hint pages")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("plain", false, "line-mode prompt instead of the full-screen one")

	_ = v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = v.BindPFlag("database.dsn", flags.Lookup("db-dsn"))
	_ = v.BindPFlag("browser.headless", flags.Lookup("headless-browser"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("ui.plain", flags.Lookup("plain"))
}

// readConfig loads the config file, if any, and environment variables
// prefixed with LCPUNLOCK
func readConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".lcpunlock")
	}

	v.SetEnvPrefix("LCPUNLOCK")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return err
	}
	return nil
}

func loadConfig(v *viper.Viper) Config {
	c := Config{
		DataDir:         v.GetString("data_dir"),
		DatabaseDSN:     v.GetString("database.dsn"),
		BrowserHeadless: v.GetBool("browser.headless"),
		LogLevel:        v.GetString("log.level"),
		LogFile:         v.GetString("log.file"),
		Plain:           v.GetBool("ui.plain"),
	}
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = filepath.Join(c.DataDir, "passphrases.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "lcpunlock.log")
	}
	return c
}

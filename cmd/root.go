package cmd

import (
	"log"
	"time"

	"jobpilot.local/internal/inbox"
	"jobpilot.local/internal/resume"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobpilot"

	defaultAddr       = ":5000"
	defaultLedgerFile = "applications.json"
)

type Config struct {
	Server  *ServerConfig   `mapstructure:"server"`
	Ledger  *LedgerConfig   `mapstructure:"ledger"`
	WorkDir string          `mapstructure:"work-dir"`
	Profile *resume.Profile `mapstructure:"profile"`
	SMTP    *SMTPConfig     `mapstructure:"smtp"`
	IMAP    *inbox.Config   `mapstructure:"imap"`
	GitHub  *GitHubConfig   `mapstructure:"github"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LedgerConfig struct {
	File string `mapstructure:"file"`
}

type SMTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Address      string        `mapstructure:"address"`
	PasswordFile string        `mapstructure:"password-file"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type GitHubConfig struct {
	TokenFile string        `mapstructure:"token-file"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobpilot automates a single user's job-application workflow, from notification to reply",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("smtp.password-file", "JOBPILOT_SMTP_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding JOBPILOT_SMTP_PASSWORD_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("imap.password-file", "JOBPILOT_IMAP_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding JOBPILOT_IMAP_PASSWORD_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("github.token-file", "JOBPILOT_GITHUB_TOKEN_FILE"); err != nil {
		log.Fatalf("binding JOBPILOT_GITHUB_TOKEN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobpilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for serve and poll. If there is no config, we can skip initialization
	if serveCmd.CalledAs() == "" && pollCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return config, nil
	}

	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Server.Addr == "" {
		config.Server.Addr = defaultAddr
	}
	if config.Ledger == nil {
		config.Ledger = &LedgerConfig{}
	}
	if config.Ledger.File == "" {
		config.Ledger.File = defaultLedgerFile
	}

	return config, nil
}

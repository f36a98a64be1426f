package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"jobpilot.local/internal/api"
	"jobpilot.local/internal/github"
	"jobpilot.local/internal/ledger"
	"jobpilot.local/internal/logger"
	"jobpilot.local/internal/mailer"
	"jobpilot.local/internal/pipeline"
	"jobpilot.local/internal/resume"
	"jobpilot.local/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inbound webhook and the automation API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobpilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	led, pipe, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	server := api.New(pipe, led, logger)
	if err := server.Run(config.Server.Addr); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

// buildPipeline wires the ledger and the external collaborators into a
// processing pipeline from the validated configuration.
func buildPipeline(ctx context.Context, config *Config, logger *zap.Logger) (*ledger.Ledger, *pipeline.Pipeline, error) {
	if config == nil {
		return nil, nil, errors.New("config is required")
	}
	if config.Profile == nil || config.Profile.Name == "" {
		return nil, nil, errors.New("candidate profile is required under the profile key")
	}
	if config.SMTP == nil || config.SMTP.Host == "" {
		return nil, nil, errors.New("smtp settings are required under the smtp key")
	}
	if config.GitHub == nil {
		return nil, nil, errors.New("github settings are required under the github key")
	}

	smtpPassword, err := secrets.Load(secrets.Source{
		Name: "smtp app password",
		File: config.SMTP.PasswordFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set smtp.password-file or JOBPILOT_SMTP_PASSWORD_FILE)", err)
	}

	githubToken, err := secrets.Load(secrets.Source{
		Name: "github token",
		File: config.GitHub.TokenFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set github.token-file or JOBPILOT_GITHUB_TOKEN_FILE)", err)
	}

	led := ledger.New(config.Ledger.File, logger)

	projects := github.New(ctx, logger, githubToken)
	if config.GitHub.Timeout > 0 {
		projects.HTTPClient.Timeout = config.GitHub.Timeout
	}

	mail := mailer.New(mailer.Config{
		Host:     config.SMTP.Host,
		Port:     config.SMTP.Port,
		Address:  config.SMTP.Address,
		Password: smtpPassword,
		Timeout:  config.SMTP.Timeout,
	}, logger)

	pipe := pipeline.New(led, resume.NewGenerator(logger), projects, mail, config.Profile, config.WorkDir, logger)
	return led, pipe, nil
}

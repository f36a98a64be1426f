package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"jobpilot.local/internal/inbox"
	"jobpilot.local/internal/logger"
	"jobpilot.local/internal/pipeline"
	"jobpilot.local/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptProcess = "Process"
	PromptSkip    = "Skip"
	PromptQuit    = "Quit"
)

var errQuit = errors.New("quit requested")

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll the inbox for job notifications and run the pipeline on them",
	Run: func(cmd *cobra.Command, _ []string) {
		poll(cmd)
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().BoolP("auto-approve", "y", false, "process every fetched notification without confirmation")
}

// poll is the pull-based alternative to the webhook: fetch matching messages
// from the inbox and run each through the same pipeline.
func poll(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.IMAP == nil || config.IMAP.Host == "" {
		logger.Fatal("imap settings are required under the imap key")
	}

	imapPassword, err := secrets.Load(secrets.Source{
		Name: "imap app password",
		File: viper.GetString("imap.password-file"),
	})
	if err != nil {
		logger.Fatal(
			"loading imap password",
			zap.Error(err),
			zap.String("hint", "set JOBPILOT_IMAP_PASSWORD_FILE or the imap.password-file key in the configuration file"),
		)
	}

	imapCfg := *config.IMAP
	imapCfg.Password = imapPassword

	_, pipe, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	offers, err := inbox.New(imapCfg, logger).FetchOffers()
	if err != nil {
		logger.Fatal("polling the inbox", zap.Error(err))
	}

	if len(offers) == 0 {
		logger.Info("exiting", zap.String("reason", "no matching messages found"))
		return
	}

	logger.Info("fetched notifications", zap.Int("count", len(offers)))

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"
	for _, offer := range offers {
		if err := handleOffer(ctx, pipe, logger, offer, autoApprove); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleOffer(ctx context.Context, pipe *pipeline.Pipeline, logger *zap.Logger, offer inbox.Notification, autoApprove bool) error {
	action := PromptProcess
	if !autoApprove {
		prompt := promptui.Select{
			Label: fmt.Sprintf("%s / %s", offer.Sender, offer.Subject),
			Items: []string{PromptProcess, PromptSkip, PromptQuit},
		}

		var err error
		_, action, err = prompt.Run()
		if err != nil {
			return err
		}
	}

	switch action {
	case PromptProcess:
		outcome, err := pipe.Process(ctx, offer.Subject, offer.Body, offer.Sender)
		if err != nil {
			logger.Error("processing notification failed",
				zap.String("subject", offer.Subject),
				zap.Error(err),
			)
			return nil
		}

		logger.Info("notification processed",
			zap.String("job_id", outcome.JobID),
			zap.String("category", string(outcome.Category)),
			zap.Bool("email_sent", outcome.EmailSent),
		)
		return nil
	case PromptSkip:
		logger.Info("skipping notification", zap.String("subject", offer.Subject))
		return nil
	case PromptQuit:
		logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errQuit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

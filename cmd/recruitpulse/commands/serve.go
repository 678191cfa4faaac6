package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/daemon"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/followup"
	"github.com/hatchline/recruitpulse/ingest"
	"github.com/hatchline/recruitpulse/llm"
	"github.com/hatchline/recruitpulse/logger"
	"github.com/hatchline/recruitpulse/mail"
	"github.com/hatchline/recruitpulse/queue"
	"github.com/hatchline/recruitpulse/server"
	"github.com/hatchline/recruitpulse/voice"
	"github.com/hatchline/recruitpulse/webhook"
)

// ServeCmd starts the API server and the dialing daemon
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the API server and dialing daemon",
	Long: `Start the HTTP API together with the background daemon: the
queue ticker that places rate-limited screening calls, the callback and
follow-up scanners, and the daily maintenance pass.`,
	RunE: runServe,
}

var servePort int

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	log := logger.Logger

	candidates := candidate.NewStore(database)
	batches := candidate.NewBatchStore(database)
	calls := candidate.NewCallLogStore(database)
	queueStore := queue.NewStore(database)
	processed := webhook.NewProcessedStore(database)

	voiceClient := voice.NewClient(voice.Config{
		BaseURL:           cfg.Voice.BaseURL,
		APIKey:            cfg.Voice.APIKey,
		AgentID:           cfg.Voice.AgentID,
		FromNumber:        cfg.Voice.FromNumber,
		RequestsPerMinute: cfg.Voice.RequestsPerMinute,
	}, log)
	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, log)
	mailClient := mail.NewClient(mail.Config{
		BaseURL:     cfg.Mail.BaseURL,
		APIKey:      cfg.Mail.APIKey,
		FromAddress: cfg.Mail.FromAddress,
	}, log)

	gate := queue.NewRateGate(queueStore, queue.GateConfig{
		MaxCallsPerHour: cfg.Dialing.MaxCallsPerHour,
		StartHour:       cfg.Dialing.CallingStartHour,
		EndHour:         cfg.Dialing.CallingEndHour,
	})
	scheduler := queue.NewScheduler(queueStore, candidates, batches, voiceClient, gate, queue.SchedulerConfig{
		MinDelay:        time.Duration(cfg.Dialing.MinDelayMinutes) * time.Minute,
		MaxDelay:        time.Duration(cfg.Dialing.MaxDelayMinutes) * time.Minute,
		StartHour:       cfg.Dialing.CallingStartHour,
		EndHour:         cfg.Dialing.CallingEndHour,
		MaxAttempts:     cfg.Dialing.QueueMaxAttempts,
		MaxCallAttempts: cfg.Dialing.MaxCallAttempts,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assessments := followup.NewAssessmentScheduler(ctx, candidates, voiceClient, followup.AssessmentConfig{
		Delay: time.Duration(cfg.Assessment.ScheduleDelaySeconds) * time.Second,
	}, log)

	recent := webhook.NewRecent(0)
	dispatcher := webhook.NewDispatcher(candidates, batches, calls, processed,
		llmClient, assessments, mailClient, recent, webhook.Config{
			QualificationThreshold: cfg.Screening.QualificationThreshold,
			AssessmentBaseURL:      cfg.Assessment.BaseURL,
		}, log)

	pipeline := ingest.NewPipeline(candidates, batches, llmClient, scheduler, log)

	callbackScanner := followup.NewCallbackScanner(candidates, batches, calls, voiceClient, followup.CallbackConfig{
		MaxAttempts: cfg.Callback.MaxAttempts,
		RetryDelay:  time.Duration(cfg.Callback.RetryDelayHours) * time.Hour,
	}, log)
	followUpScanner := followup.NewFollowUpScanner(candidates, batches, voiceClient, followup.FollowUpConfig{
		MaxAttempts: cfg.Dialing.MaxCallAttempts,
	}, log)
	sweeper := followup.NewSweeper(candidates, time.Duration(cfg.Dialing.StaleCallHours)*time.Hour, log)
	maintenance := daemon.NewMaintenance(queueStore, sweeper,
		time.Duration(cfg.Dialing.RetentionDays)*24*time.Hour, log)

	d := daemon.New(ctx, scheduler,
		[]daemon.Scanner{callbackScanner, followUpScanner},
		maintenance, daemon.DefaultConfig(), log)
	d.Start()

	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}
	srv := server.New(fmt.Sprintf(":%d", port), candidates, queueStore,
		scheduler, dispatcher, recent, pipeline, log)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	fmt.Printf("recruitpulse serving on :%d\n", port)
	fmt.Printf("  Calling window: %02d:00-%02d:00, max %d calls/hour\n",
		cfg.Dialing.CallingStartHour, cfg.Dialing.CallingEndHour, cfg.Dialing.MaxCallsPerHour)
	fmt.Printf("\nPress Ctrl+C for graceful shutdown\n\n")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		d.Stop()
		return err
	case <-sigChan:
	}

	fmt.Printf("\nShutting down...\n")

	// Stop components in reverse order of startup
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Errorw("HTTP shutdown failed", "error", err)
	}
	d.Stop()
	cancel()

	fmt.Printf("recruitpulse stopped\n")
	return nil
}

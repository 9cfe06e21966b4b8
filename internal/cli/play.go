package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/config"
	"github.com/Apie2c/quiz-app/internal/logger"
	transport "github.com/Apie2c/quiz-app/internal/transport/http"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewPlayCmd runs the terminal quiz client against a running server.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		apiURL        string
		transcriptDir string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play quizzes in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.Client.BaseURL = apiURL
			}
			if transcriptDir != "" {
				cfg.Client.TranscriptDir = transcriptDir
			}
			return runPlay(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "", "base URL of the quiz server (overrides client.baseURL)")
	cmd.Flags().StringVar(&transcriptDir, "transcripts", "", "directory transcripts are saved to")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config) error {
	// Logs go to stderr at warn and above so they do not interleave with the game.
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	log := logger.New(os.Stderr, cfg.Log.Format).Level(level)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := transport.NewClient(cfg.Client.BaseURL, config.TTLDuration(cfg.Client.Timeout, 10*time.Second))
	library := app.NewLibrary(client, log)
	defer library.Wait()

	editor := app.NewEditor(library, library.Load(ctx))
	machine := app.NewMachine(editor, machineConfig(cfg), log)
	defer machine.Close()

	var readPassword func() (string, error)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		readPassword = func() (string, error) {
			raw, err := term.ReadPassword(fd)
			return string(raw), err
		}
	}

	return newConsole(machine, editor, consoleConfig{
		In:            os.Stdin,
		Out:           os.Stdout,
		ReadPassword:  readPassword,
		TranscriptDir: cfg.Client.TranscriptDir,
		HideAdmin:     cfg.Client.HideAdmin,
	}).run(ctx)
}

func machineConfig(cfg config.Config) app.MachineConfig {
	return app.MachineConfig{
		AdminPassword: cfg.Client.AdminPassword,
		HideAdmin:     cfg.Client.HideAdmin,
		AnswerDelay:   config.TTLDuration(cfg.Quiz.AnswerDelay, app.DefaultAnswerDelay),
		TimeoutDelay:  config.TTLDuration(cfg.Quiz.TimeoutDelay, app.DefaultTimeoutDelay),
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"voice-tutor/internal/infra/httpctl"
	"voice-tutor/internal/infra/tutor"
	"voice-tutor/internal/tui"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "tutor",
		Usage: "Push-to-talk conversation with a remote language tutor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before the config",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			newChatCommand(),
			newAskCommand(),
			newServeCommand(),
		},
		Action: runChat,
	}
}

func newChatCommand() *cli.Command {
	return &cli.Command{
		Name:   "chat",
		Usage:  "Open the terminal conversation (default)",
		Action: runChat,
	}
}

func runChat(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.newController()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	a.logger.Info("starting chat", "endpoint", a.endpoint(), "recorder", a.cfg.Speech.Recorder, "voice", a.cfg.Voice.Engine)

	uiErr := tui.Run(ctx, ctrl)
	cancel()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("running controller: %w", err)
	}
	return uiErr
}

func newAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one typed utterance and print the reply",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "speak",
				Usage: "Read the reply aloud",
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	text := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("usage: tutor ask <text>")
	}

	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	client := tutor.NewClient(a.cfg.Tutor.Endpoint, a.logger)
	reply, err := client.Send(ctx, text)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, reply)

	if cmd.Bool("speak") {
		synth := a.newSynthesizer()
		if err := synth.Speak(ctx, reply, a.voiceOptions()); err != nil {
			return fmt.Errorf("speaking reply: %w", err)
		}
	}
	return nil
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run headless, driven over HTTP by push-to-talk hardware or scripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Override control.addr",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Control.Addr
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}

	ctrl := a.newController()
	server := httpctl.NewServer(httpctl.Config{
		Addr:      addr,
		AuthToken: a.cfg.Control.AuthToken,
		RateLimit: a.cfg.Control.RateLimit,
	}, ctrl, a.logger)

	if a.cfg.Control.AuthToken == "" {
		a.logger.Warn("control server has no auth token configured")
	}
	a.logger.Info("starting headless tutor", "endpoint", a.endpoint(), "addr", addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(ctx) })
	g.Go(func() error { return server.Serve(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("shutting down")
	return nil
}

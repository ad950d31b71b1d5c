package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ergochat/readline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	widgetmodel "github.com/zhouzirui/portfolio-chat/internal/model/widget"
	"github.com/zhouzirui/portfolio-chat/internal/render"
	"github.com/zhouzirui/portfolio-chat/internal/service/chatclient"
	"github.com/zhouzirui/portfolio-chat/internal/service/widget"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

type flags struct {
	endpoint    string
	title       string
	greeting    string
	placeholder string
	timeout     time.Duration
	logLevel    string
	open        bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "widgetcli",
		Short: "Chat with a portfolio assistant from the terminal",
		Long: "widgetcli drives one chat widget instance against a chat API.\n" +
			"Type a message to send it, or one of: " + strings.Join(commandNames(), " "),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.endpoint, "endpoint", widgetmodel.DefaultEndpoint, "chat API base URL")
	cmd.Flags().StringVar(&f.title, "title", widgetmodel.DefaultTitle, "assistant name shown in the transcript")
	cmd.Flags().StringVar(&f.greeting, "greeting", widgetmodel.DefaultGreeting, "first assistant line")
	cmd.Flags().StringVar(&f.placeholder, "placeholder", widgetmodel.DefaultPlaceholder, "input prompt hint")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "chat API request timeout")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.open, "open", true, "start with the chat panel open")

	return cmd
}

// optionsFromFlags passes through only the flags the user actually set.
func optionsFromFlags(cmd *cobra.Command, f flags) widgetmodel.Options {
	var opts widgetmodel.Options
	set := func(name, value string) *string {
		if cmd.Flags().Changed(name) {
			return widgetmodel.String(value)
		}
		return nil
	}
	opts.Endpoint = set("endpoint", f.endpoint)
	opts.Title = set("title", f.title)
	opts.Greeting = set("greeting", f.greeting)
	opts.Placeholder = set("placeholder", f.placeholder)
	return opts
}

func run(cmd *cobra.Command, f flags) error {
	if err := logger.Configure(f.logLevel, "console"); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFile(),
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	client := chatclient.New(&http.Client{Timeout: f.timeout})
	w := widget.New(optionsFromFlags(cmd, f), render.NewText(rl), client)
	defer w.Close()

	if f.open {
		w.SetOpen(true)
	}
	fmt.Fprintf(rl, "(%s, /help for commands)\n", w.Config().Placeholder)

	s := newSession(w, rl)
	defer s.wait()

	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if quit := s.handle(ctx, line); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "widgetcli_history")
}

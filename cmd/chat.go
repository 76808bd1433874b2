package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/apotek/apotek/internal/agent"
	"github.com/apotek/apotek/internal/app"
	"github.com/apotek/apotek/internal/config"
	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/session"
)

func newChatCmd(logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), logger)
		},
	}
}

func runChat(ctx context.Context, logger log.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	sessionID, err := resumeOrCreateSession(ctx, cfg, a.Sessions, logger)
	if err != nil {
		return err
	}

	lang := i18n.Normalize(cfg.Language)
	if lang == i18n.LangUnknown {
		lang = i18n.DefaultLanguage
	}

	out := os.Stdout
	fmt.Fprintln(out, i18n.Sprintf(lang, "chat.welcome", AppVersion))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, i18n.T(lang, "chat.prompt"))
		if !scanner.Scan() {
			break // EOF (Ctrl+D)
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			done, cmdErr := handleSlashCommand(ctx, input, cfg, a.Sessions, &sessionID, lang, out)
			if cmdErr != nil {
				fmt.Fprintln(out, cmdErr)
			}
			if done {
				break
			}
			continue
		}

		sink := &consoleSink{out: out, prefix: i18n.T(lang, "chat.assistant")}
		resp, err := a.Agent.ExecuteStream(ctx, sessionID, input, sink)
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(out)
			fmt.Fprintln(out, i18n.T(lang, "chat.goodbye"))
			return nil
		case err != nil:
			logger.Error("turn failed", "error", err)
			fmt.Fprintln(out, i18n.T(lang, "agent.unavailable"))
			continue
		}
		lang = resp.Language
		sink.finishLine()
	}

	fmt.Fprintln(out, i18n.T(lang, "chat.goodbye"))
	return scanner.Err()
}

// handleSlashCommand executes a / command; done means exit the loop.
func handleSlashCommand(ctx context.Context, input string, cfg *config.Config, sessions session.Store, sessionID *uuid.UUID, lang i18n.Language, out io.Writer) (done bool, err error) {
	switch strings.Fields(input)[0] {
	case "/exit", "/quit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, "/new      start a new conversation")
		fmt.Fprintln(out, "/session  show the current session id")
		fmt.Fprintln(out, "/help     show this help")
		fmt.Fprintln(out, "/exit     leave")
		return false, nil
	case "/session":
		fmt.Fprintln(out, sessionID.String())
		return false, nil
	case "/new":
		sess, createErr := sessions.Create(ctx)
		if createErr != nil {
			return false, fmt.Errorf("creating session: %w", createErr)
		}
		*sessionID = sess.ID
		saveCurrentSession(cfg, sess.ID)
		fmt.Fprintln(out, i18n.T(lang, "chat.cleared"))
		return false, nil
	default:
		fmt.Fprintln(out, "unknown command, /help lists commands")
		return false, nil
	}
}

// resumeOrCreateSession restores the session recorded in the state file when
// it still exists (relevant with the postgres backend), otherwise creates a
// fresh one.
func resumeOrCreateSession(ctx context.Context, cfg *config.Config, sessions session.Store, logger log.Logger) (uuid.UUID, error) {
	if id, ok := loadCurrentSession(cfg); ok {
		if _, err := sessions.Get(ctx, id); err == nil {
			logger.Debug("resuming session", "session_id", id)
			return id, nil
		}
	}
	sess, err := sessions.Create(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating session: %w", err)
	}
	saveCurrentSession(cfg, sess.ID)
	return sess.ID, nil
}

// consoleSink renders the event stream to the terminal: tool activity on
// its own lines, answer tokens as they arrive.
type consoleSink struct {
	out      io.Writer
	prefix   string
	streamed bool
}

func (s *consoleSink) ToolCallStarted(name string, _ map[string]any) {
	fmt.Fprintf(s.out, "  [%s]\n", name)
}

func (s *consoleSink) ToolCallResult(string, any) {}

func (s *consoleSink) AnswerToken(text string) {
	if !s.streamed {
		fmt.Fprint(s.out, s.prefix)
		s.streamed = true
	}
	fmt.Fprint(s.out, text)
}

func (s *consoleSink) TurnComplete(finalText string) {
	if !s.streamed {
		// Model produced no streaming chunks; print the buffered answer.
		fmt.Fprint(s.out, s.prefix)
		fmt.Fprint(s.out, finalText)
		s.streamed = true
	}
}

func (s *consoleSink) finishLine() {
	if s.streamed {
		fmt.Fprintln(s.out)
	}
}

// ensure the sink satisfies the interface
var _ agent.EventSink = (*consoleSink)(nil)

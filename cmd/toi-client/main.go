// Command toi-client is a terminal chat client for the toi assistant.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	var (
		serverURL string
		useWS     bool
		debug     bool
	)
	cmd := &cobra.Command{
		Use:          "toi-client",
		Short:        "Chat with the toi assistant",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var t Transport = NewHTTPTransport(serverURL)
			if useWS {
				ws, err := DialSocket(cmd.Context(), serverURL)
				if err != nil {
					return err
				}
				defer ws.Close()
				t = ws
			}
			return repl(cmd.Context(), NewChat(t), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&serverURL, "url", "http://127.0.0.1:6969", "Base URL of the toi server")
	cmd.Flags().BoolVar(&useWS, "ws", false, "Stream replies over a websocket instead of HTTP")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

// turnGuard routes Ctrl-C to the turn in flight, if any.
type turnGuard struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (g *turnGuard) begin(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()
	return ctx
}

func (g *turnGuard) end() {
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.mu.Unlock()
}

// interrupt cancels the turn in flight and reports whether there was one.
func (g *turnGuard) interrupt() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel == nil {
		return false
	}
	g.cancel()
	g.cancel = nil
	return true
}

func repl(ctx context.Context, chat *Chat, in io.Reader, out io.Writer) error {
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	var guard turnGuard
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for {
			select {
			case <-sigs:
				if !guard.interrupt() {
					quit()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		_, _ = fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		turnCtx := guard.begin(ctx)
		err := chat.Send(turnCtx, line, out)
		guard.end()
		_, _ = fmt.Fprintln(out)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			_, _ = fmt.Fprintln(out, "[interrupted]")
		default:
			_, _ = fmt.Fprintf(out, "[error] %v\n", err)
		}
	}
}

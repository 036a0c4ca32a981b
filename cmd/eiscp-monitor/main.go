// Command eiscp-monitor connects to an eISCP receiver and prints every
// status update it reports.
//
// This command demonstrates the full client stack:
//   - Managed connection with automatic reconnection
//   - Command translation between friendly names and wire messages
//   - Protocol event logging to console and capture files
//   - Interactive command interface
//
// Usage:
//
//	eiscp-monitor -host <receiver> [flags] [command ...]
//
// Flags:
//
//	-host string      Receiver address (required)
//	-port int         Receiver control port (default 60128)
//	-verbose          Log protocol events to stderr
//	-log-file string  Write a CBOR protocol capture to this file
//	-interactive      Enable interactive command mode
//
// Any trailing arguments are sent as commands once the link is up.
//
// Examples:
//
//	# Watch a receiver and query its power state
//	eiscp-monitor -host 192.168.1.20 "main.power=query"
//
//	# Interactive session with a protocol capture
//	eiscp-monitor -host 192.168.1.20 -interactive -log-file session.elog
//
// Interactive Commands:
//
//	<zone>.<command>=<argument> - Send a command (e.g. main.volume=40)
//	raw <message>               - Send a raw wire message (e.g. raw PWR01)
//	halt                        - Pause the connection
//	resume                      - Resume a paused connection
//	status                      - Show connection state
//	quit                        - Exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"

	"github.com/eiscp-protocol/eiscp-go/pkg/commands"
	"github.com/eiscp-protocol/eiscp-go/pkg/connection"
	"github.com/eiscp-protocol/eiscp-go/pkg/log"
)

// Config holds the monitor configuration.
type Config struct {
	Host        string
	Port        int
	Verbose     bool
	LogFile     string
	Interactive bool
}

var config Config

func init() {
	flag.StringVar(&config.Host, "host", "", "Receiver address (required)")
	flag.IntVar(&config.Port, "port", 60128, "Receiver control port")
	flag.BoolVar(&config.Verbose, "verbose", false, "Log protocol events to stderr")
	flag.StringVar(&config.LogFile, "log-file", "", "Write a CBOR protocol capture to this file")
	flag.BoolVar(&config.Interactive, "interactive", false, "Enable interactive command mode")
}

// printObserver writes decoded updates to an output stream.
type printObserver struct {
	mu  sync.Mutex
	out io.Writer
}

func (o *printObserver) write(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, format, args...)
}

// setOutput redirects update printing, used to coordinate with readline.
func (o *printObserver) setOutput(w io.Writer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.out = w
}

func (o *printObserver) OnUpdate(u commands.Update, source string) {
	o.write("%s  %s.%s = %s\n", time.Now().Format("15:04:05"), u.Zone, u.Command, u.Value)
}

func (o *printObserver) OnConnect(source string) {
	o.write("connected to %s\n", source)
}

func (o *printObserver) OnDisconnect(source string) {
	o.write("disconnected from %s\n", source)
}

func main() {
	flag.Parse()

	if config.Host == "" {
		fmt.Fprintln(os.Stderr, "eiscp-monitor: -host is required")
		flag.Usage()
		os.Exit(2)
	}

	logger, cleanup, err := setupLogging()
	if err != nil {
		stdlog.Fatalf("Failed to set up logging: %v", err)
	}
	defer cleanup()

	observer := &printObserver{out: os.Stdout}

	conn, err := connection.Dial(config.Host, config.Port,
		connection.WithObserver(observer),
		connection.WithLogger(logger),
	)
	if err != nil {
		stdlog.Fatalf("Failed to start connection: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	waitCtx, waitCancel := context.WithTimeout(ctx, 30*time.Second)
	err = conn.WaitConnected(waitCtx)
	waitCancel()
	if err != nil {
		stdlog.Fatalf("Receiver did not answer: %v", err)
	}

	for _, text := range flag.Args() {
		if err := conn.Send(text); err != nil {
			fmt.Fprintf(os.Stderr, "send %q: %v\n", text, err)
		}
	}

	if config.Interactive {
		go runInteractive(conn, observer, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}
}

// setupLogging assembles the protocol event logger from the flags.
func setupLogging() (log.Logger, func(), error) {
	var loggers []log.Logger
	cleanup := func() {}

	if config.Verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))
	}
	if config.LogFile != "" {
		fl, err := log.NewFileLogger(config.LogFile)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { fl.Close() }
		loggers = append(loggers, fl)
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, cleanup, nil
	case 1:
		return loggers[0], cleanup, nil
	default:
		return log.NewMultiLogger(loggers...), cleanup, nil
	}
}

// runInteractive reads commands from the prompt until quit or EOF.
func runInteractive(conn *connection.Connection, observer *printObserver, cancel context.CancelFunc) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "eiscp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		stdlog.Printf("Failed to create readline: %v", err)
		cancel()
		return
	}
	defer rl.Close()

	// Route update printing through readline so it does not garble the prompt.
	observer.setOutput(rl.Stdout())

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		switch strings.ToLower(parts[0]) {
		case "quit", "exit", "q":
			cancel()
			return

		case "status":
			fmt.Fprintf(rl.Stdout(), "%s (%s)\n", conn.State(), conn.RemoteAddr())

		case "halt":
			conn.Halt()
			fmt.Fprintln(rl.Stdout(), "halted")

		case "resume":
			conn.Resume()
			fmt.Fprintln(rl.Stdout(), "resumed")

		case "raw":
			if len(parts) < 2 {
				fmt.Fprintln(rl.Stdout(), "usage: raw <message>")
				continue
			}
			if err := conn.SendRaw(parts[1]); err != nil {
				fmt.Fprintf(rl.Stdout(), "error: %v\n", err)
			}

		default:
			if err := conn.Send(input); err != nil {
				fmt.Fprintf(rl.Stdout(), "error: %v\n", err)
			}
		}
	}
}

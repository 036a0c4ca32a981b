// Command eiscp-discover finds eISCP receivers on the local network.
//
// It broadcasts a discovery probe on every usable interface (or sends
// it to one host with -host) and prints each answering receiver.
//
// Usage:
//
//	eiscp-discover [flags]
//
// Flags:
//
//	-timeout duration  How long to wait for answers (default 5s)
//	-host string       Probe a single host instead of broadcasting
//	-port int          UDP port to probe (default 60128)
//	-verbose           Log discovery events to stderr
//
// Examples:
//
//	# Find every receiver on the network
//	eiscp-discover
//
//	# Check one known host
//	eiscp-discover -host 192.168.1.20 -timeout 2s
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"time"

	"github.com/eiscp-protocol/eiscp-go/pkg/discovery"
	"github.com/eiscp-protocol/eiscp-go/pkg/log"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "How long to wait for answers")
	host := flag.String("host", "", "Probe a single host instead of broadcasting")
	port := flag.Int("port", 60128, "UDP port to probe")
	verbose := flag.Bool("verbose", false, "Log discovery events to stderr")
	flag.Parse()

	var logger log.Logger = log.NoopLogger{}
	if *verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logger = log.NewSlogAdapter(slog.New(handler))
	}

	records, err := discovery.Discover(context.Background(), discovery.Config{
		Timeout: *timeout,
		Host:    *host,
		Port:    *port,
		Logger:  logger,
	})
	if err != nil {
		stdlog.Fatalf("Discovery failed: %v", err)
	}

	found := 0
	for r := range records {
		found++
		fmt.Printf("%-16s %-20s port %-6d area %-3s id %s\n",
			r.Host, r.Model, r.Port, r.AreaCode, r.Identifier)
	}
	if found == 0 {
		fmt.Println("no receivers found")
	}
}

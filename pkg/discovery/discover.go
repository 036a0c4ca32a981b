package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/eiscp-protocol/eiscp-go/pkg/log"
	"github.com/eiscp-protocol/eiscp-go/pkg/packet"
)

// ErrNoEndpoints indicates no network endpoint could be opened for the
// discovery run.
var ErrNoEndpoints = errors.New("discovery: no usable network endpoints")

// probeMessage asks a device to report its ECN record.
const probeMessage = "ECNQSTN"

// probeUnits are the destination-unit markers probed. Current receivers
// answer '1'; some older network devices only answer 'p'.
var probeUnits = []byte{'1', 'p'}

// endpoint is one UDP socket plus the address its probes go to.
type endpoint struct {
	conn   *net.UDPConn
	target *net.UDPAddr
}

// dedup tracks identifiers already reported across all endpoints.
type dedup struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// add reports whether id was new.
func (d *dedup) add(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.ids[id]; ok {
		return false
	}
	d.ids[id] = struct{}{}
	return true
}

// Discover probes the network for receivers and streams the answers.
// Without a target host in cfg, probes are broadcast on every up,
// IPv4-capable interface. The result channel closes when the timeout
// (or ctx) expires; records are deduplicated by device identifier.
func Discover(ctx context.Context, cfg Config) (<-chan Record, error) {
	cfg = cfg.withDefaults()
	logger := log.OrNoop(cfg.Logger)

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)

	endpoints, err := openEndpoints(runCtx, cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	results := make(chan Record, 8)
	seen := &dedup{ids: make(map[string]struct{})}

	var wg sync.WaitGroup
	for _, ep := range endpoints {
		wg.Add(1)
		go func(ep endpoint) {
			defer wg.Done()
			ep.run(runCtx, seen, results, logger)
		}(ep)
	}

	// Closing the sockets at deadline unblocks the read loops.
	go func() {
		<-runCtx.Done()
		for _, ep := range endpoints {
			ep.conn.Close()
		}
	}()
	go func() {
		wg.Wait()
		cancel()
		close(results)
	}()

	return results, nil
}

// DiscoverAll runs a discovery and collects every record into a slice.
func DiscoverAll(ctx context.Context, cfg Config) ([]Record, error) {
	ch, err := Discover(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var records []Record
	for r := range ch {
		records = append(records, r)
	}
	return records, nil
}

// openEndpoints binds the sockets a run needs: one per interface when
// broadcasting, a single one when probing a known host. Failures on
// individual interfaces are logged and skipped.
func openEndpoints(ctx context.Context, cfg Config, logger log.Logger) ([]endpoint, error) {
	lc := net.ListenConfig{Control: enableBroadcast}

	if cfg.Host != "" {
		target, err := net.ResolveUDPAddr("udp4",
			net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
		if err != nil {
			return nil, fmt.Errorf("discovery: resolve %q: %w", cfg.Host, err)
		}
		pc, err := lc.ListenPacket(ctx, "udp4", ":0")
		if err != nil {
			return nil, fmt.Errorf("discovery: bind: %w", err)
		}
		return []endpoint{{conn: pc.(*net.UDPConn), target: target}}, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("discovery: list interfaces: %w", err)
	}

	var endpoints []endpoint
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			bcast := broadcastAddr(ipnet)
			if bcast == nil {
				continue
			}
			pc, err := lc.ListenPacket(ctx, "udp4",
				net.JoinHostPort(ipnet.IP.String(), "0"))
			if err != nil {
				logError(logger, fmt.Errorf("bind %s: %w", iface.Name, err))
				continue
			}
			endpoints = append(endpoints, endpoint{
				conn:   pc.(*net.UDPConn),
				target: &net.UDPAddr{IP: bcast, Port: cfg.Port},
			})
		}
	}
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return endpoints, nil
}

// run sends the probes on one endpoint and collects answers until the
// socket is closed at deadline.
func (ep endpoint) run(ctx context.Context, seen *dedup, results chan<- Record, logger log.Logger) {
	for _, unit := range probeUnits {
		if _, err := ep.conn.WriteToUDP(packet.EncodeUnit(unit, probeMessage), ep.target); err != nil {
			logError(logger, fmt.Errorf("probe %s: %w", ep.target, err))
		}
	}

	buf := make([]byte, 1024)
	for {
		n, addr, err := ep.conn.ReadFromUDP(buf)
		if err != nil {
			// Socket closed at deadline, or transient failure; either
			// way this endpoint is done.
			return
		}

		reply, ok := packet.ParseDiscoveryReply(buf[:n])
		if !ok {
			continue
		}
		if !seen.add(reply.Identifier) {
			continue
		}

		record := Record{
			Identifier: reply.Identifier,
			Model:      reply.Model,
			Category:   reply.Category,
			AreaCode:   reply.AreaCode,
			Host:       addr.IP.String(),
			Port:       reply.Port,
		}
		logger.Log(log.Event{
			Timestamp:  time.Now(),
			Direction:  log.DirectionIn,
			Layer:      log.LayerDiscovery,
			Category:   log.CategoryDiscovery,
			RemoteAddr: addr.String(),
			Discovery: &log.DiscoveryEvent{
				Identifier: record.Identifier,
				Model:      record.Model,
				Host:       record.Host,
				Port:       record.Port,
			},
		})

		select {
		case results <- record:
		case <-ctx.Done():
			return
		}
	}
}

// broadcastAddr computes the directed broadcast address of a network.
func broadcastAddr(ipnet *net.IPNet) net.IP {
	ip4 := ipnet.IP.To4()
	mask := net.IP(ipnet.Mask).To4()
	if ip4 == nil || mask == nil {
		return nil
	}
	out := make(net.IP, net.IPv4len)
	for i := range out {
		out[i] = ip4[i] | ^mask[i]
	}
	return out
}

func logError(logger log.Logger, err error) {
	logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerDiscovery,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerDiscovery,
			Message: err.Error(),
		},
	})
}

// Package discovery advertises a running TCP front end over mDNS so clients
// on the local network can find it.
package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type for AtomDB
const ServiceType = "_atomdb._tcp"

// Config describes what to advertise
type Config struct {
	Instance string // instance name, usually the host name
	Addr     string // host:port of the TCP front end
	Version  string
	Format   string // snapshot format in use
	Session  string // unique id of this server run
}

// Advertiser announces one service instance until stopped
type Advertiser struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	server *mdns.Server
}

// NewAdvertiser creates an advertiser. A nil logger uses slog.Default.
func NewAdvertiser(config Config, logger *slog.Logger) *Advertiser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advertiser{config: config, logger: logger}
}

// Start begins answering mDNS queries for the service
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	ips, port, err := advertisedEndpoint(a.config.Addr)
	if err != nil {
		return err
	}

	service, err := mdns.NewMDNSService(
		a.config.Instance, // Instance name
		ServiceType,       // Service type
		"",                // Domain (empty = .local)
		"",                // Host name (empty = auto)
		port,              // Port
		ips,               // IPs to advertise
		TXTRecords(a.config),
	)
	if err != nil {
		return fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mDNS server: %w", err)
	}
	a.server = server

	a.logger.Info("mDNS advertisement started",
		slog.String("instance", a.config.Instance),
		slog.String("service", ServiceType),
		slog.Int("port", port),
	)
	return nil
}

// Stop withdraws the advertisement
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return nil
	}
	err := a.server.Shutdown()
	a.server = nil
	a.logger.Info("mDNS advertisement stopped")
	return err
}

// TXTRecords builds the metadata published with the service
func TXTRecords(c Config) []string {
	return []string{
		"version=" + c.Version,
		"format=" + c.Format,
		"session=" + c.Session,
	}
}

// advertisedEndpoint splits the server address. An unspecified host
// advertises every non-loopback IPv4 address of the machine.
func advertisedEndpoint(addr string) ([]net.IP, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid advertise address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, 0, fmt.Errorf("invalid advertise port %q", portStr)
	}

	var ips []net.IP
	if host == "" || host == "0.0.0.0" || host == "::" {
		ips = localIPs()
	} else if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	}
	return ips, port, nil
}

// localIPs returns all non-loopback IPv4 addresses
func localIPs() []net.IP {
	var ips []net.IP

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ips
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok {
			if ipnet.IP.IsLoopback() {
				continue
			}
			if ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}
	return ips
}

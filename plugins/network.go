package plugins

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

// Network returns host name, address and reachability commands. Ping is a
// TCP connect to port 80 then 443, so it needs no raw socket privileges.
func Network(opts ...Option) loader.Unit {
	o := newOptions(opts)

	return loader.Static("network",
		command.Definition{
			Pattern:     "get hostname",
			Description: "Show this machine's host name",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				host, err := os.Hostname()
				if err != nil {
					return "", err
				}
				return "🏷️ Hostname: " + host, nil
			},
		},
		command.Definition{
			Pattern:     "get my ip address",
			Description: "Show this machine's network addresses",
			Safe:        true,
			Handler:     handleLocalAddrs,
		},
		command.Definition{
			Pattern:     "resolve dns for {domain}",
			Description: "Look up the addresses of a domain",
			Safe:        true,
			Handler:     o.handleResolve,
		},
		command.Definition{
			Pattern:     "ping {host}",
			Description: "Check whether a host accepts connections",
			Safe:        true,
			Handler:     o.handlePing,
		},
		command.Definition{
			Pattern:     "check port {port} on {host}",
			Description: "Check whether a TCP port is open",
			Safe:        true,
			Handler:     o.handleCheckPort,
		},
	)
}

func handleLocalAddrs(context.Context, command.Args) (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	var ips []string
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.IsLinkLocalUnicast() {
			continue
		}
		ips = append(ips, ipnet.IP.String())
	}
	if len(ips) == 0 {
		return "🌐 No network addresses found", nil
	}
	return formatList("🌐 IP addresses:", ips), nil
}

func (o *options) handleResolve(ctx context.Context, args command.Args) (string, error) {
	domain := strings.TrimSuffix(args.Get("domain"), ".")
	if domain == "" {
		return "", errors.New("no domain given")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", domain, err)
	}
	sort.Strings(addrs)
	return formatList("🔎 "+domain+" resolves to:", addrs), nil
}

func (o *options) handlePing(ctx context.Context, args command.Args) (string, error) {
	host := args.Get("host")
	if host == "" {
		return "", errors.New("no host given")
	}

	targets := []string{net.JoinHostPort(host, "80"), net.JoinHostPort(host, "443")}
	if _, _, err := net.SplitHostPort(host); err == nil {
		targets = []string{host}
	}

	var lastErr error
	for _, addr := range targets {
		took, err := o.probe(ctx, addr)
		if err == nil {
			return fmt.Sprintf("✅ %s is reachable (%s, %s)", host, addr, took.Round(time.Millisecond)), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%s is unreachable: %w", host, lastErr)
}

func (o *options) handleCheckPort(ctx context.Context, args command.Args) (string, error) {
	host := args.Get("host")
	port, err := strconv.Atoi(args.Get("port"))
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid port %q", args.Get("port"))
	}
	if host == "" {
		return "", errors.New("no host given")
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if _, err := o.probe(ctx, addr); err != nil {
		return fmt.Sprintf("🔒 Port %d on %s is closed", port, host), nil
	}
	return fmt.Sprintf("🔓 Port %d on %s is open", port, host), nil
}

func (o *options) probe(ctx context.Context, addr string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	conn, err := o.dial(ctx, "tcp", addr)
	if err != nil {
		return 0, err
	}
	conn.Close()
	return time.Since(start), nil
}

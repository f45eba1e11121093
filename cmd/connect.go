package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/youhavemail/yhm/internal/core"
)

var connectCmd = &cobra.Command{
	Use:   "connect [host:port]",
	Short: "Connect the settings screen to a running yhm daemon",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target string
		if len(args) > 0 {
			target = args[0]
		} else {
			// Auto-discovery from local port file
			port := readActivePort()
			if port <= 0 {
				return errors.New("no active yhm daemon found locally (usage: yhm connect <host:port>)")
			}
			target = fmt.Sprintf("127.0.0.1:%d", port)
		}

		insecureHTTP, _ := cmd.Flags().GetBool("insecure-http")
		baseURL, err := resolveConnectBaseURL(target, insecureHTTP)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)

		service := core.NewRemotePollIntervalService(baseURL)
		defer func() { _ = service.Shutdown() }()

		// Verify connection
		if _, err := service.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", baseURL, err)
		}

		return startTUI(ctx, service)
	},
}

func init() {
	connectCmd.Flags().Bool("insecure-http", false, "Allow plain HTTP for non-loopback targets")
	rootCmd.AddCommand(connectCmd)
}

func resolveConnectBaseURL(target string, allowInsecureHTTP bool) (string, error) {
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", fmt.Errorf("invalid target: %v", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("unsupported scheme %q (use http or https)", u.Scheme)
		}
		if u.Host == "" {
			return "", fmt.Errorf("invalid target: missing host")
		}
		if u.Scheme == "http" && !allowInsecureHTTP && !isLoopbackHost(u.Hostname()) {
			return "", fmt.Errorf("refusing insecure HTTP for non-loopback target; use https:// or --insecure-http")
		}
		return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
	}

	scheme := "https"
	if isLoopbackHost(hostnameFromTarget(target)) || allowInsecureHTTP {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, target), nil
}

func hostnameFromTarget(target string) string {
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	return target
}

func isLoopbackHost(host string) bool {
	if host == "" {
		return false
	}
	h := strings.ToLower(host)
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}

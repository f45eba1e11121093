package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/youhavemail/yhm/internal/api"
	"github.com/youhavemail/yhm/internal/config"
	"github.com/youhavemail/yhm/internal/core"
	"github.com/youhavemail/yhm/internal/metrics"
	"github.com/youhavemail/yhm/internal/store"
	"github.com/youhavemail/yhm/internal/utils"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the yhm background server (daemon)",
	Long:  `Start, stop, or check the status of the yhm background server.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the yhm server in headless mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Attempt to acquire lock
		isMaster, err := AcquireLock()
		if err != nil {
			return err
		}
		if !isMaster {
			return errors.New("yhm server is already running")
		}
		defer func() {
			if err := ReleaseLock(); err != nil {
				utils.Debug("Error releasing lock: %v", err)
			}
		}()

		addr := activeSettings.Server.ListenAddr
		if portFlag, _ := cmd.Flags().GetInt("port"); portFlag > 0 {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = "127.0.0.1"
			}
			addr = net.JoinHostPort(host, fmt.Sprint(portFlag))
		}

		port, ln, err := listen(addr)
		if err != nil {
			return err
		}

		savePID()
		defer removePID()
		saveActivePort(port)
		defer removeActivePort()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "yhm %s running in server mode.\n", Version)
		fmt.Fprintf(out, "HTTP server listening on %s\n", ln.Addr())
		fmt.Fprintln(out, "Press Ctrl+C to exit.")

		return runServer(ctx, ln, out)
	},
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running yhm server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		pid := readPID()
		if pid == 0 {
			fmt.Fprintln(out, "No running yhm server found (PID file missing).")
			return nil
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("error finding process: %w", err)
		}

		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("error stopping server: %w", err)
		}

		fmt.Fprintf(out, "Sent stop signal to process %d\n", pid)
		return nil
	},
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the yhm server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		pid := readPID()
		if pid == 0 {
			fmt.Fprintln(out, "yhm server is NOT running.")
			return nil
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			fmt.Fprintf(out, "yhm server is NOT running (Process %d not found).\n", pid)
			return nil
		}

		// Sending signal 0 to check existence
		if err := process.Signal(syscall.Signal(0)); err != nil {
			fmt.Fprintf(out, "yhm server is NOT running (Process %d dead).\n", pid)
			return nil
		}

		fmt.Fprintf(out, "yhm server is running (PID: %d, Port: %d).\n", pid, readActivePort())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStopCmd)
	serverCmd.AddCommand(serverStatusCmd)

	serverStartCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: listen_addr setting, or first free from 1750)")
}

// runServer serves the poll interval API on ln until ctx is done.
func runServer(ctx context.Context, ln net.Listener, out io.Writer) error {
	st, err := store.Open(config.GetDBPath())
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			utils.Debug("Error closing store: %v", err)
		}
	}()

	m := metrics.New()
	svc, err := core.NewLocalPollIntervalService(ctx, st, m)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           api.NewServer(svc, m, Version).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	utils.Info("server started on %s", ln.Addr())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = svc.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	}

	fmt.Fprintln(out, "\nShutting down...")
	// Closing subscriptions ends open event streams so Shutdown can drain.
	_ = svc.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server shutdown: %v", err)
		return err
	}
	utils.Info("server stopped")
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/youhavemail/yhm/internal/config"
	"github.com/youhavemail/yhm/internal/core"
	"github.com/youhavemail/yhm/internal/locale"
	"github.com/youhavemail/yhm/internal/store"
	"github.com/youhavemail/yhm/internal/task"
	"github.com/youhavemail/yhm/internal/tui"
	"github.com/youhavemail/yhm/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Persistent flags
var (
	globalDataDir  string
	globalLang     string
	globalLogLevel string
)

// activeSettings is loaded once per invocation by initializeGlobalState.
var activeSettings = config.DefaultSettings()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "yhm",
	Short:   "Mail notifier settings from the terminal",
	Long:    `yhm manages the poll interval of the You Have Mail notifier, either in-process or through a running daemon.`,
	Version: Version,
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeGlobalState()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.CloseDebug()
	},
	SilenceUsage: true,
	RunE:         runLocalSettings,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Open the settings screen",
	Args:  cobra.NoArgs,
	RunE:  runLocalSettings,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalDataDir, "data-dir", "", "Directory for settings, database and logs (or set YHM_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&globalLang, "lang", "", "Language for labels (en, fr, nl)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Debug log level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate("yhm version {{.Version}}\n")

	rootCmd.AddCommand(settingsCmd)
}

// initializeGlobalState resolves the data dir, loads settings and configures logging and theme
func initializeGlobalState() error {
	config.SetAppDir(globalDataDir)
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		settings = config.DefaultSettings()
	}
	activeSettings = settings

	level := settings.General.LogLevel
	if strings.TrimSpace(globalLogLevel) != "" {
		level = globalLogLevel
	}
	if err := utils.ConfigureDebug(config.GetLogsDir(), level); err != nil {
		return err
	}
	utils.Debug("yhm %s (%s) using %s", Version, BuildTime, config.GetAppDir())

	tui.ApplyTheme(settings.General.Theme)
	return nil
}

// resolveLanguage picks --lang, then the saved setting, then $LANG.
func resolveLanguage() string {
	if lang := strings.TrimSpace(globalLang); lang != "" {
		return lang
	}
	if activeSettings != nil && strings.TrimSpace(activeSettings.General.Language) != "" {
		return activeSettings.General.Language
	}
	return os.Getenv("LANG")
}

func loadCatalog() *locale.Catalog {
	cat, err := locale.Load(resolveLanguage())
	if err != nil {
		// Only reachable when the embedded English catalog is missing.
		panic(err)
	}
	return cat
}

// openLocalService opens the store and an in-process service. It refuses to
// run next to another instance that owns the store.
func openLocalService(ctx context.Context) (*core.LocalPollIntervalService, func(), error) {
	isMaster, err := AcquireLock()
	if err != nil {
		return nil, nil, err
	}
	if !isMaster {
		return nil, nil, fmt.Errorf("another yhm instance owns %s; use 'yhm connect' to reach a running server", config.GetAppDir())
	}

	st, err := store.Open(config.GetDBPath())
	if err != nil {
		_ = ReleaseLock()
		return nil, nil, err
	}

	svc, err := core.NewLocalPollIntervalService(ctx, st, nil)
	if err != nil {
		_ = st.Close()
		_ = ReleaseLock()
		return nil, nil, err
	}

	cleanup := func() {
		_ = svc.Shutdown()
		if err := st.Close(); err != nil {
			utils.Debug("Error closing store: %v", err)
		}
		if err := ReleaseLock(); err != nil {
			utils.Debug("Error releasing lock: %v", err)
		}
	}
	return svc, cleanup, nil
}

func runLocalSettings(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	svc, cleanup, err := openLocalService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return startTUI(ctx, svc)
}

// startTUI runs the settings screen against any poll interval service
func startTUI(ctx context.Context, svc core.PollIntervalService) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, unsubscribe, err := svc.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch poll interval: %w", err)
	}
	defer unsubscribe()

	runner := task.NewRunner(tui.TaskEventBuffer, nil)
	defer runner.Shutdown()

	m := tui.NewSettingsModel(loadCatalog(), runner, updates, tui.Callbacks{
		OnBackClicked: func() {
			utils.Debug("settings screen closed")
		},
		OnPollIntervalUpdate: svc.SetPollInterval,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

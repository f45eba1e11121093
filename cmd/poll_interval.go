package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/locale"
)

var pollIntervalCmd = &cobra.Command{
	Use:     "poll-interval",
	Aliases: []string{"interval"},
	Short:   "Show or change how often mail is checked",
}

var pollIntervalGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current poll interval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := openService(commandContext(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		seconds := svc.PollInterval()
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%ds)\n", interval.FormatSeconds(seconds, loadCatalog().Labels()), seconds)
		return nil
	},
}

var pollIntervalSetCmd = &cobra.Command{
	Use:   "set [seconds]",
	Short: "Change the poll interval (interactive when no value is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		cat := loadCatalog()

		var seconds uint64
		if len(args) == 1 {
			v, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid interval %q: expected whole seconds", args[0])
			}
			seconds = v
		}

		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if len(args) == 0 {
			seconds, err = promptInterval(cat, svc.PollInterval())
			if err != nil {
				return err
			}
		}

		if err := svc.SetPollInterval(ctx, seconds); err != nil {
			if errors.Is(err, interval.ErrNotInCatalog) {
				return fmt.Errorf("%d is not an allowed interval (see 'yhm poll-interval list')", seconds)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cat.String(locale.KeyPollInterval), interval.FormatSeconds(seconds, cat.Labels()))
		return nil
	},
}

var pollIntervalListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the allowed poll intervals",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		labels := loadCatalog().Labels()
		current := uint64(0)

		if showCurrent, _ := cmd.Flags().GetBool("current"); showCurrent {
			svc, cleanup, err := openService(commandContext(cmd))
			if err != nil {
				return err
			}
			current = svc.PollInterval()
			cleanup()
		}

		out := cmd.OutOrStdout()
		for i, iv := range interval.Catalog() {
			marker := " "
			if iv.Seconds() == current {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %d) %-5d %s\n", marker, i+1, iv.Seconds(), iv.Format(labels))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pollIntervalCmd)
	pollIntervalCmd.AddCommand(pollIntervalGetCmd)
	pollIntervalCmd.AddCommand(pollIntervalSetCmd)
	pollIntervalCmd.AddCommand(pollIntervalListCmd)

	pollIntervalListCmd.Flags().BoolP("current", "c", false, "Mark the interval currently in use")
}

// promptInterval asks for an interval with a select over the catalog.
func promptInterval(cat *locale.Catalog, current uint64) (uint64, error) {
	labels := cat.Labels()
	options := make([]huh.Option[uint64], 0, interval.Len())
	for _, iv := range interval.Catalog() {
		options = append(options, huh.NewOption(iv.Format(labels), iv.Seconds()))
	}

	choice := current
	if _, err := interval.Parse(choice); err != nil {
		first, _ := interval.At(0)
		choice = first.Seconds()
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[uint64]().
				Title(cat.String(locale.KeyPollInterval)).
				Description(cat.String(locale.KeyPollIntervalDesc)).
				Options(options...).
				Value(&choice),
		),
	).WithAccessible(os.Getenv("ACCESSIBLE") != "")

	if err := form.Run(); err != nil {
		return 0, err
	}
	return choice, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

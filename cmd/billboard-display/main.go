package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/i474232898/smart-billboard/internal/config"
	"github.com/i474232898/smart-billboard/internal/display"
	"github.com/i474232898/smart-billboard/internal/geo"
	"github.com/i474232898/smart-billboard/internal/logging"
	"github.com/i474232898/smart-billboard/internal/scheduler"
	"github.com/i474232898/smart-billboard/internal/store"
	"github.com/i474232898/smart-billboard/internal/upstream"
)

var cfg *config.DisplayConfig

var rootCmd = &cobra.Command{
	Use:   "billboard-display",
	Short: "Show the smart billboard message in the terminal",
	Long: `Polls the smart billboard service on an interval and shows the current message.

While running, type one of these commands and press enter:
  set <zip or city, state>   use a manual location
  clear                      go back to the device location
  refresh                    fetch a new message now
  quit                       exit`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadDisplay(); err != nil {
			return err
		}
		return applyFlags(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logOut := logging.Setup(cfg.Log)
		defer logOut.Close()
		return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage the persisted manual location",
}

var locationSetCmd = &cobra.Command{
	Use:   "set <zip or city, state>",
	Short: "Geocode and persist a manual location",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDisplay(io.Discard)
		if err != nil {
			return err
		}
		loc, err := d.SetManualLocation(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "manual location set: %s (%.4f, %.4f)\n", loc.LocationName, loc.Latitude, loc.Longitude)
		return nil
	},
}

var locationClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the manual location",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDisplay(io.Discard)
		if err != nil {
			return err
		}
		if err := d.ClearManualLocation(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "manual location cleared")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("server", "", "message service base URL (BILLBOARD_SERVER_URL)")
	flags.Duration("interval", 0, "poll interval (POLL_INTERVAL)")
	flags.String("preset", "", "preset location key, e.g. nyc, sf, baltimore (BILLBOARD_PRESET)")
	flags.String("state-file", "", "manual location state file (BILLBOARD_STATE_FILE)")
	flags.Float64("lat", 0, "fixed device latitude (DEVICE_LATITUDE)")
	flags.Float64("lon", 0, "fixed device longitude (DEVICE_LONGITUDE)")
	flags.Bool("no-color", false, "disable colored output")

	locationCmd.AddCommand(locationSetCmd, locationClearCmd)
	rootCmd.AddCommand(locationCmd)
}

// applyFlags lets explicitly set flags override the environment.
func applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL, _ = flags.GetString("server")
	}
	if flags.Changed("interval") {
		cfg.PollInterval, _ = flags.GetDuration("interval")
	}
	if flags.Changed("preset") {
		cfg.Preset, _ = flags.GetString("preset")
	}
	if flags.Changed("state-file") {
		cfg.StateFile, _ = flags.GetString("state-file")
	}
	if flags.Changed("lat") != flags.Changed("lon") {
		return fmt.Errorf("--lat and --lon must be given together")
	}
	if flags.Changed("lat") {
		lat, _ := flags.GetFloat64("lat")
		lon, _ := flags.GetFloat64("lon")
		cfg.Latitude = strconv.FormatFloat(lat, 'f', -1, 64)
		cfg.Longitude = strconv.FormatFloat(lon, 'f', -1, 64)
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		color.NoColor = true
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

func newDisplay(out io.Writer) (*display.Display, error) {
	st, err := store.OpenFile(cfg.StateFile)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var locator display.Locator
	if lat, lon, ok := cfg.Device(); ok {
		locator = display.StaticLocator{Location: display.Location{Latitude: lat, Longitude: lon}}
	} else {
		locator = display.NewIPLocator(display.NewPollingClient("ip-api", httpClient), "")
	}

	var geocoder geo.ForwardGeocoder
	switch cfg.Geo.Provider {
	case "google":
		geocoder = geo.NewGoogle(cfg.Geo.GoogleAPIKey)
	default:
		geocoder = geo.NewNominatim(upstream.NewClient("nominatim", httpClient, upstream.DefaultBackoff), cfg.Geo.NominatimURL, cfg.Geo.UserAgent)
	}

	api := display.NewAPIClient(display.NewPollingClient("billboard", httpClient), cfg.ServerURL)

	return display.New(display.Options{
		API:      api,
		Locator:  locator,
		Store:    st,
		Geocoder: geocoder,
		Renderer: display.NewTerminalRenderer(out),
		Preset:   cfg.Preset,
	}), nil
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	d, err := newDisplay(out)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(cfg.PollInterval, func(jobCtx context.Context) {
		d.Refresh(jobCtx)
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	go readCommands(ctx, in, out, d, sched, stop)

	<-ctx.Done()
	return nil
}

// readCommands handles interactive input until quit or end of input.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, d *display.Display, sched *scheduler.Scheduler, quit func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch strings.ToLower(cmd) {
		case "":
		case "set":
			if _, err := d.SetManualLocation(ctx, arg); err != nil {
				color.New(color.FgRed).Fprintf(out, "Error: %v\n", err)
				continue
			}
			sched.RunNow()
		case "clear":
			if err := d.ClearManualLocation(); err != nil {
				slog.Error("failed to clear manual location", "error", err)
				continue
			}
			sched.RunNow()
		case "refresh":
			sched.RunNow()
		case "quit", "exit":
			quit()
			return
		default:
			fmt.Fprintf(out, "unknown command %q (set, clear, refresh, quit)\n", cmd)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

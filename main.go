package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olivier-w/panelviz/internal/capture"
	"github.com/olivier-w/panelviz/internal/config"
	"github.com/olivier-w/panelviz/internal/effect"
	"github.com/olivier-w/panelviz/internal/player"
	"github.com/olivier-w/panelviz/internal/router"
	"github.com/olivier-w/panelviz/internal/state"
	"github.com/olivier-w/panelviz/internal/status"
	"github.com/olivier-w/panelviz/internal/ui"
	"github.com/olivier-w/panelviz/internal/util"
)

// analysisRate is the rate every main-track block arrives at.
const analysisRate = 48000

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panelviz [audio file]",
		Short: "Audio-reactive visual panels in the terminal",
		Long: `panelviz splits the terminal into up to four panels, each drawing an
effect driven by one frequency band of the playing track or of a live
sidechain input. Drag panels to rearrange them, right-click for options,
double-click for the effect picker.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runEditor,
	}

	f := cmd.Flags()
	f.String("config", config.DefaultPath(), "config file")
	f.String("state", "", "editor state file (default from config)")
	f.Int("fps", 0, "frames per second (default from config)")
	f.Bool("light", false, "start in light mode")
	f.String("log", "", "write logs to this file")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("status-addr", "", "serve telemetry on this address, e.g. :7070")
	f.StringArray("sidechain", nil, "bind a capture device to a panel slot, slot=device (repeatable)")
	f.Bool("no-audio", false, "run without an audio device")

	cmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List capture devices usable as sidechain inputs",
		Args:  cobra.NoArgs,
		RunE:  listDevices,
	})
	return cmd
}

// loadConfig reads the config file and applies the flags that were set. A
// broken file falls back to the defaults and is reported as fileErr; err is
// for flags that cannot be used.
func loadConfig(cmd *cobra.Command) (cfg config.Config, fileErr, err error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, fileErr = config.Load(path)

	if f.Changed("state") {
		cfg.StateFile, _ = f.GetString("state")
	}
	if f.Changed("fps") {
		cfg.FPS, _ = f.GetInt("fps")
	}
	if f.Changed("light") {
		cfg.LightMode, _ = f.GetBool("light")
	}
	if f.Changed("log") {
		cfg.LogFile, _ = f.GetString("log")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("status-addr") {
		cfg.StatusAddr, _ = f.GetString("status-addr")
	}
	if f.Changed("no-audio") {
		cfg.NoAudio, _ = f.GetBool("no-audio")
	}
	if f.Changed("sidechain") {
		specs, _ := f.GetStringArray("sidechain")
		cfg.Sidechains = cfg.Sidechains[:0]
		for _, s := range specs {
			b, err := capture.ParseBinding(s)
			if err != nil {
				return cfg, fileErr, err
			}
			cfg.Sidechains = append(cfg.Sidechains, config.Sidechain{Slot: b.Slot.String(), Device: b.Device})
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fileErr, err
	}
	return cfg, fileErr, nil
}

// settingsFrom seeds editor settings from the config when there is no
// saved state.
func settingsFrom(cfg config.Config) state.Settings {
	s := state.DefaultSettings()
	s.LightMode = cfg.LightMode
	s.ShowValues = cfg.ShowValues
	if c, err := effect.ParseColor(cfg.Accent); err == nil {
		s.Accent = c
	}
	if c, err := effect.ParseColor(cfg.Background); err == nil {
		s.Background = c
	}
	return s
}

func runEditor(cmd *cobra.Command, args []string) error {
	var initial string
	if len(args) == 1 {
		path, err := audioArg(args[0])
		if err != nil {
			return err
		}
		initial = path
	}

	cfg, fileErr, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, logFile, err := util.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if fileErr != nil {
		log.WithError(fileErr).Warn("config file ignored")
	}
	log.WithFields(logrus.Fields{"version": Version, "fps": cfg.FPS}).Info("starting")

	r := router.New(analysisRate)
	opts := []player.Option{player.WithLogger(log), player.WithOnLoad(r.ResetAverages)}
	if cfg.NoAudio {
		opts = append(opts, player.WithoutAudioDevice())
	}
	p := player.New(r, opts...)
	defer p.Close()

	ws, settings, err := state.Load(cfg.StateFile)
	switch {
	case errors.Is(err, state.ErrNoState):
		log.WithError(err).Info("using the default layout")
		settings = settingsFrom(cfg)
	case err != nil:
		return err
	}
	if cmd.Flags().Changed("light") {
		settings.LightMode = cfg.LightMode
	}

	bindings, _ := cfg.Bindings()
	sidechains, err := capture.Start(bindings, r, log)
	if err != nil {
		log.WithError(err).Warn("sidechain inputs")
	}
	if sidechains != nil {
		defer sidechains.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var panels atomic.Int32
	panels.Store(int32(ws.Count()))

	model := ui.New(ui.Options{
		Workspace:   ws,
		Settings:    settings,
		Router:      r,
		Transport:   p,
		Open:        player.Open,
		StatePath:   cfg.StateFile,
		FPS:         cfg.FPS,
		Log:         log,
		InitialPath: initial,
		OnChange:    func(n int) { panels.Store(int32(n)) },
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if cfg.StatusAddr != "" {
		srv := status.NewServer(func() status.Status {
			st := status.Status{
				Time:     time.Now(),
				Loaded:   p.IsLoaded(),
				Playing:  p.IsPlaying(),
				Position: p.Position().Seconds(),
				Duration: p.Duration().Seconds(),
				Panels:   int(panels.Load()),
				Slots:    r.Snapshot(),
			}
			if t := p.Track(); t != nil {
				st.Track = t.Name()
			}
			return st
		}, 100*time.Millisecond, log)
		go func() {
			if err := srv.Run(ctx, cfg.StatusAddr); err != nil {
				log.WithError(err).Error("status server stopped")
			}
		}()
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	if err := config.Watch(ctx, cfgPath, log, func(c config.Config) {
		program.Send(ui.AppearanceMsg(c.Appearance()))
	}); err != nil {
		log.WithError(err).Warn("config changes will not be applied live")
	}

	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

func listDevices(cmd *cobra.Command, _ []string) error {
	devices, err := capture.ListDevices()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(out, "no capture devices found")
		return nil
	}
	for _, d := range devices {
		mark := " "
		if d.IsDefaultInput {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-40s %2d ch  %6.0f Hz  %s\n", mark, d.Name, d.MaxInput, d.DefaultSampleHz, d.HostAPI)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/typewriter"
	"github.com/san-kum/typewriter/internal/config"
	"github.com/san-kum/typewriter/internal/logging"
	"github.com/san-kum/typewriter/internal/metrics"
	"github.com/san-kum/typewriter/internal/script"
	"github.com/san-kum/typewriter/internal/storage"
	"github.com/san-kum/typewriter/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	speedMS    int
	caret      string
	renderer   string
	seed       int64
	maxCycles  int
	record     bool
	plain      bool
	logLevel   string
	logFile    string
	samples    int
	showFrames bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "typewriter",
		Short:         "typing animation player",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "transcript directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write JSON logs to this file")

	playCmd := &cobra.Command{
		Use:   "play [script]",
		Short: "type a script in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  playScript,
	}
	addRunFlags(playCmd)
	playCmd.Flags().BoolVar(&plain, "plain", false, "redraw a single line instead of the interactive view")

	renderCmd := &cobra.Command{
		Use:   "render [script]",
		Short: "run a script headless and print every frame",
		Args:  cobra.ExactArgs(1),
		RunE:  renderScript,
	}
	addRunFlags(renderCmd)

	cadenceCmd := &cobra.Command{
		Use:   "cadence",
		Short: "plot keystroke delays for a speed",
		RunE:  plotCadence,
	}
	cadenceCmd.Flags().IntVar(&speedMS, "speed", config.DefaultSpeedMS, "base keystroke interval in ms")
	cadenceCmd.Flags().StringVar(&preset, "preset", "", "use a speed preset")
	cadenceCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cadenceCmd.Flags().IntVar(&samples, "samples", 60, "number of keystrokes")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list speed presets",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded transcripts",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print transcript metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&showFrames, "frames", false, "also print recorded frames")

	exportCmd := &cobra.Command{
		Use:   "export [run_id] [path]",
		Short: "export a transcript as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportRun,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "typewriter.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(playCmd, renderCmd, cadenceCmd, presetsCmd, listCmd, showCmd, exportCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use a speed preset")
	cmd.Flags().IntVar(&speedMS, "speed", config.DefaultSpeedMS, "base keystroke interval in ms")
	cmd.Flags().StringVar(&caret, "caret", config.DefaultCaret, "caret glyph")
	cmd.Flags().StringVar(&renderer, "renderer", "", "renderer (terminal, html, plain)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().IntVar(&maxCycles, "cycles", 0, "stop a looping script after this many cycles")
	cmd.Flags().BoolVar(&record, "record", false, "save a transcript of every frame")
}

// settings resolves configuration: defaults, then config file, then preset,
// then the script's own header, then explicitly set flags.
func settings(cmd *cobra.Command, sc *script.Script) (*config.Config, error) {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return nil, err
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}
	if sc != nil {
		if sc.SpeedMS != nil {
			cfg.SpeedMS = *sc.SpeedMS
		}
		if sc.Caret != nil {
			cfg.Caret = *sc.Caret
		}
	}

	flags := cmd.Flags()
	if flags.Changed("speed") {
		cfg.SpeedMS = speedMS
	}
	if flags.Changed("caret") {
		cfg.Caret = caret
	}
	if flags.Changed("renderer") {
		cfg.Renderer = renderer
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("cycles") {
		cfg.MaxCycles = maxCycles
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg, cfg.Validate()
}

// baseConfig is the config file, or the defaults, with --data applied.
func baseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("data") {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func rendererFor(name string) typewriter.Renderer {
	switch name {
	case "html":
		return typewriter.HTMLRenderer()
	case "plain":
		return typewriter.PlainRenderer()
	default:
		return typewriter.TerminalRenderer()
	}
}

// session is one script run against one surface.
type session struct {
	name   string
	cfg    *config.Config
	script *script.Script
	logger *slog.Logger
	stats  *metrics.Commands
	failed atomic.Int64
}

func newSession(cmd *cobra.Command, path string, console bool) (*session, func() error, error) {
	sc, err := script.Load(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := settings(cmd, sc)
	if err != nil {
		return nil, nil, err
	}

	opts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if console {
		opts.Console = os.Stderr
	}
	logger, closeLog, err := logging.New(opts)
	if err != nil {
		return nil, nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &session{
		name:   name,
		cfg:    cfg,
		script: sc,
		logger: logger.With("script", name),
		stats:  metrics.NewCommands(),
	}, closeLog, nil
}

// start builds the typewriter on host and queues the whole script.
func (s *session) start(host typewriter.Surface, r typewriter.Renderer) (*typewriter.Typewriter, error) {
	tw, err := typewriter.New(host,
		typewriter.WithSpeed(s.cfg.Speed()),
		typewriter.WithCaret(s.cfg.Caret),
		typewriter.WithRenderer(r),
		typewriter.WithSeed(s.cfg.Seed),
		typewriter.WithLogger(s.logger),
		typewriter.WithObserver(s.stats),
		typewriter.WithErrorHandler(func(error) {
			s.failed.Add(1)
		}),
	)
	if err != nil {
		return nil, err
	}
	s.logger.Info("starting script", "steps", len(s.script.Steps), "speed_ms", s.cfg.SpeedMS, "seed", s.cfg.Seed)
	if err := s.script.Apply(tw.Init()); err != nil {
		tw.Stop()
		return nil, err
	}
	return tw, nil
}

// wait returns when the script has finished. A looping script finishes
// after MaxCycles full cycles, or never when MaxCycles is zero.
func (s *session) wait(ctx context.Context, tw *typewriter.Typewriter) error {
	if !s.script.Loops() {
		return tw.Idle(ctx)
	}
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if s.cfg.MaxCycles > 0 && tw.Cycles() > s.cfg.MaxCycles {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *session) save(rec *storage.Recorder, tw *typewriter.Typewriter) (string, error) {
	st := storage.New(s.cfg.DataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	meta := storage.RunMetadata{
		Script:   s.name,
		Seed:     s.cfg.Seed,
		SpeedMS:  s.cfg.SpeedMS,
		Renderer: s.cfg.Renderer,
		Caret:    s.cfg.Caret,
		Cycles:   tw.Cycles(),
		Metrics:  s.stats.Values(),
	}
	runID, err := st.Save(meta, rec.Frames())
	if err != nil {
		return "", err
	}
	s.logger.Info("saved transcript", "run_id", runID)
	return runID, nil
}

func playScript(cmd *cobra.Command, args []string) error {
	s, closeLog, err := newSession(cmd, args[0], plain)
	if err != nil {
		return err
	}
	defer closeLog()

	if plain {
		if !cmd.Flags().Changed("renderer") {
			s.cfg.Renderer = "plain"
		}
		return playPlain(cmd.Context(), s)
	}
	return playInteractive(cmd.Context(), s)
}

func playPlain(ctx context.Context, s *session) error {
	live := tui.NewLiveSurface(os.Stdout, s.script.Initial)
	rec := storage.NewRecorder(live)

	live.Start()
	defer live.Stop()

	tw, err := s.start(rec, rendererFor(s.cfg.Renderer))
	if err != nil {
		return err
	}
	defer tw.Stop()

	if err := s.wait(ctx, tw); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if record {
		tw.Stop()
		if _, err := s.save(rec, tw); err != nil {
			return err
		}
	}
	return nil
}

func playInteractive(ctx context.Context, s *session) error {
	surface := tui.NewSurface(s.script.Initial)
	rec := storage.NewRecorder(surface)

	var (
		current  atomic.Pointer[typewriter.Typewriter]
		startErr error
	)
	status := func() string {
		tw := current.Load()
		if tw == nil {
			return ""
		}
		return fmt.Sprintf("speed %v  cycles %d  frames %d", tw.Speed(), tw.Cycles(), len(rec.Frames()))
	}

	p := tea.NewProgram(tui.NewModel(s.name, status), tea.WithAltScreen(), tea.WithContext(ctx))
	surface.Attach(p)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		tw, err := s.start(rec, rendererFor(s.cfg.Renderer))
		if err != nil {
			startErr = err
		} else {
			current.Store(tw)
			err = s.wait(runCtx, tw)
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		p.Send(tui.Done(err))
	}()

	_, runErr := p.Run()
	cancel()
	<-finished

	tw := current.Load()
	if tw == nil {
		if startErr != nil {
			return startErr
		}
		return runErr
	}
	tw.Stop()
	if record {
		if _, err := s.save(rec, tw); err != nil {
			return err
		}
	}
	if errors.Is(runErr, tea.ErrProgramKilled) {
		return nil
	}
	return runErr
}

func renderScript(cmd *cobra.Command, args []string) error {
	s, closeLog, err := newSession(cmd, args[0], true)
	if err != nil {
		return err
	}
	defer closeLog()

	if !cmd.Flags().Changed("renderer") {
		s.cfg.Renderer = "html"
	}
	if s.script.Loops() && s.cfg.MaxCycles == 0 {
		s.cfg.MaxCycles = 1
	}

	host := typewriter.NewMemorySurface(s.script.Initial)
	rec := storage.NewRecorder(host)
	tw, err := s.start(rec, rendererFor(s.cfg.Renderer))
	if err != nil {
		return err
	}
	defer tw.Stop()

	if err := s.wait(cmd.Context(), tw); err != nil {
		return err
	}
	tw.Stop()

	for _, f := range rec.Frames() {
		fmt.Printf("%9.1fms  %s\n", float64(f.At)/float64(time.Millisecond), f.Content)
	}
	if n := s.failed.Load(); n > 0 {
		return fmt.Errorf("%d commands failed", n)
	}

	if record {
		runID, err := s.save(rec, tw)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run id: %s\n", runID)
	}
	return nil
}

func plotCadence(cmd *cobra.Command, args []string) error {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	speed := cfg.SpeedMS
	if cmd.Flags().Changed("speed") {
		speed = speedMS
	} else if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		speed = p.SpeedMS
	}
	if !cmd.Flags().Changed("seed") && cfg.Seed != 0 {
		seed = cfg.Seed
	}
	if samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", samples)
	}

	delays := typewriter.SampleDelays(time.Duration(speed)*time.Millisecond, seed, samples)
	data := make([]float64, len(delays))
	total := 0.0
	for i, d := range delays {
		data[i] = float64(d) / float64(time.Millisecond)
		total += data[i]
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("keystroke delay (ms), speed %dms, seed %d", speed, seed)),
	)
	fmt.Println(graph)
	fmt.Println()
	fmt.Printf("mean: %.1fms\n", total/float64(len(data)))
	fmt.Printf("chars/sec: %.2f\n", 1000*float64(len(data))/total)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSPEED\tCARET\tSUMMARY")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		c := p.Caret
		if c == "" {
			c = config.DefaultCaret
		}
		fmt.Fprintf(w, "%s\t%dms\t%s\t%s\n", name, p.SpeedMS, c, p.Summary)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no transcripts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCRIPT\tTIME\tSPEED\tFRAMES\tCYCLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%d\t%d\n",
			run.ID,
			run.Script,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.SpeedMS,
			run.Frames,
			run.Cycles,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	if !showFrames {
		return nil
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	for _, f := range frames {
		fmt.Printf("%9.1fms  %s\n", float64(f.At)/float64(time.Millisecond), f.Content)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return storage.WriteJSON(os.Stdout, data)
	}
	if err := storage.ExportJSON(args[1], data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/config"
	"github.com/novaengine/nova/internal/debug"
	"github.com/novaengine/nova/internal/engine"
	"github.com/novaengine/nova/internal/scripting"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	Scene   string
	Profile string
	Frames  int
}

// NewRunCommand boots the engine, starts a scene and drives the frame loop
// until interrupted.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Boot the engine and run a scene",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEngine(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Scene, "scene", "s", "", "scene to start (default from the manifest)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "write a cpu or mem profile to the working directory")
	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "stop after this many frames (0 runs until interrupted)")

	return cmd
}

func runEngine(ctx context.Context, rootOpts *RootOptions, opts *RunOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch opts.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q (want cpu or mem)", opts.Profile)
	}

	out := cmd.OutOrStdout()
	cfg, cfgPath, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	log, err := engine.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	printBanner(out, cfg.Engine.Name)
	printSection(out, "config")
	if cfgPath == "" {
		printOK(out, "built-in defaults")
	} else {
		printOK(out, cfgPath)
	}

	manifest, err := loadManifest(cfg)
	if err != nil {
		return err
	}
	lua, err := scripting.NewEngine(cfg.Scripts.Dir, manifest, log.Named("lua"))
	if err != nil {
		return err
	}
	defer lua.Close()
	printSection(out, "scripts")
	printStat(out, "scenes", manifest.Count())

	eng := engine.New(log, engine.WithDefaults(cfg))
	lua.SetDirector(eng)
	if err := eng.OnLoad(configureFrom(cfg, lua)); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Boot(sigCtx); err != nil {
		return err
	}
	bootCtx, cancel := context.WithTimeout(sigCtx, 30*time.Second)
	err = eng.WaitReady(bootCtx)
	cancel()
	if err != nil {
		return shutdownWith(eng, err)
	}

	var dbg *debug.Server
	if cfg.Debug.Addr != "" {
		dbg, err = debug.Listen(cfg.Debug.Addr, eng, log.Named("debug"))
		if err != nil {
			return shutdownWith(eng, err)
		}
		printSection(out, "debug")
		printOK(out, "http://"+dbg.Addr().String())
	}

	name := opts.Scene
	if name == "" {
		name = manifest.DefaultScene()
	}
	if err := eng.Start(name); err != nil {
		return shutdownWith(eng, err)
	}
	printReady(out, fmt.Sprintf("scene %s running", name))
	fmt.Fprintln(out)

	loop(sigCtx, eng, cfg.Loop.FrameRate, opts.Frames)

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if dbg != nil {
		if err := dbg.Shutdown(shutCtx); err != nil {
			log.Warn("debug server shutdown", zap.Error(err))
		}
	}
	return eng.Shutdown(shutCtx)
}

// configureFrom hands the file config and the Lua scene table to the
// engine's configuration handshake.
func configureFrom(cfg *config.Config, lua *scripting.Engine) engine.OnLoadCallback {
	return func(ctx context.Context, configure engine.ConfigureFunc) error {
		return <-configure(engine.Configuration{
			Name:      cfg.Engine.Name,
			Window:    &cfg.Window,
			JobSystem: &cfg.JobSystem,
			Graphics:  &cfg.Graphics,
			Scenes:    lua.Table(),
		})
	}
}

func loop(ctx context.Context, eng *engine.Engine, rate time.Duration, frames int) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	last := time.Now()
	for n := 0; frames == 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			eng.Tick(now.Sub(last))
			last = now
		}
	}
}

func shutdownWith(eng *engine.Engine, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eng.Shutdown(ctx); err != nil {
		return fmt.Errorf("%w (shutdown: %v)", cause, err)
	}
	return cause
}

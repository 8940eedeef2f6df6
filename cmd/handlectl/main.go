package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/config"
	"github.com/wippyai/handlekit/disposal"
	"github.com/wippyai/handlekit/engine"
	"github.com/wippyai/handlekit/handle"
	"github.com/wippyai/handlekit/lifecycle"
	"github.com/wippyai/handlekit/native"
	"github.com/wippyai/handlekit/scene"
	"github.com/wippyai/handlekit/wifi"
)

type options struct {
	backend  string
	n        int
	workers  int
	detached bool
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to handlekit.yaml (default: ./handlekit.yaml if present)")
		backend     = flag.String("backend", "wasm", "Native library backend: local or wasm")
		n           = flag.Int("n", 1000, "Number of handles to create")
		workers     = flag.Int("workers", 8, "Concurrent disposers")
		detached    = flag.Bool("detached", false, "Dispose while the subsystem is detached, then install")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	setLoggers(logger)

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := options{
		backend:  *backend,
		n:        *n,
		workers:  *workers,
		detached: *detached,
	}
	if err := run(context.Background(), cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	if path == "" {
		return config.Resolve(dir)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults(dir)
	return cfg, nil
}

func setLoggers(l *zap.Logger) {
	handle.SetLogger(l.Named("handle"))
	disposal.SetLogger(l.Named("disposal"))
	engine.SetLogger(l.Named("engine"))
	scene.SetLogger(l.Named("scene"))
	wifi.SetLogger(l.Named("wifi"))
}

// backend is a native library plus a way to report its counters.
type backend struct {
	lib   handlekit.Library
	stats func(ctx context.Context) (live, released, doubles uint64, err error)
	close func(ctx context.Context) error
}

func openBackend(ctx context.Context, name string, cfg *config.Config) (*backend, error) {
	switch name {
	case "local":
		l := native.NewLocal()
		return &backend{
			lib: l,
			stats: func(context.Context) (uint64, uint64, uint64, error) {
				s := l.Stats()
				return uint64(s.Live), s.Released, s.DoubleReleases, nil
			},
			close: func(context.Context) error { return l.Close() },
		}, nil
	case "wasm":
		l, err := engine.NewLibrary(ctx, cfg.Engine.Library())
		if err != nil {
			return nil, err
		}
		return &backend{
			lib: l,
			stats: func(ctx context.Context) (uint64, uint64, uint64, error) {
				s, err := l.Stats(ctx)
				return uint64(s.Live), uint64(s.Released), uint64(s.DoubleReleases), err
			},
			close: l.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want local or wasm)", name)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	if opts.n < 0 || opts.workers < 1 {
		return fmt.Errorf("-n must be >= 0 and -workers >= 1")
	}

	b, err := openBackend(ctx, opts.backend, cfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer b.close(ctx)

	state := lifecycle.StateInstalled
	if opts.detached {
		state = lifecycle.StateDetached
	}
	lc := lifecycle.New(lifecycle.WithState(state))

	sched := disposal.NewScheduler(lc, cfg.Disposal.Options()...)
	if cfg.Disposal.BindOnInstall() {
		sched.Bind(lc)
	}
	unsubscribe := sched.Subscribe(func(ev disposal.Event) {
		if ev.Type == disposal.EventDrained {
			fmt.Printf("drained %d (pending %d)\n", ev.Count, ev.Pending)
		}
	})
	defer unsubscribe()

	fmt.Printf("Backend: %s\n", opts.backend)
	if opts.backend == "wasm" {
		fmt.Printf("Guest:   %s\n", cfg.Engine.Name)
	}
	fmt.Printf("Handles: %d, workers: %d, detached: %v\n\n", opts.n, opts.workers, opts.detached)

	handles := make([]*handle.Handle, 0, opts.n)
	for i := 0; i < opts.n; i++ {
		id, err := b.lib.Create(ctx)
		if err != nil {
			return fmt.Errorf("create handle %d: %w", i, err)
		}
		owner := handle.New(b.lib, id, true,
			handle.WithScheduler(sched),
			handle.WithName(fmt.Sprintf("h%d", i)))
		handles = append(handles, owner)
		// a borrowed view of every other handle
		if i%2 == 0 {
			handles = append(handles, handle.New(b.lib, id, false, handle.WithScheduler(sched)))
		}
	}

	// every wrapper is disposed by two workers at once
	work := make(chan *handle.Handle, len(handles)*2)
	for _, h := range handles {
		work <- h
		work <- h
	}
	close(work)

	var wg sync.WaitGroup
	for w := 0; w < opts.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for h := range work {
				h.Dispose()
			}
		}()
	}
	wg.Wait()

	if opts.detached {
		fmt.Printf("pending while detached: %d\n", sched.Pending())
		lc.Install()
		if !cfg.Disposal.BindOnInstall() {
			sched.Drain()
		}
	}

	closeErr := sched.Close(ctx)

	live, released, doubles, err := b.stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	st := sched.Stats()

	fmt.Printf("\nScheduler: enqueued=%d drained=%d drains=%d dropped=%d panics=%d pending=%d\n",
		st.Enqueued, st.Drained, st.Drains, st.Dropped, st.Panics, st.Pending)
	fmt.Printf("Library:   live=%d released=%d double_releases=%d\n", live, released, doubles)

	if closeErr != nil {
		return closeErr
	}
	if doubles != 0 {
		return fmt.Errorf("%d double releases reached the native library", doubles)
	}
	if live != 0 {
		return fmt.Errorf("%d handles still live", live)
	}
	return nil
}

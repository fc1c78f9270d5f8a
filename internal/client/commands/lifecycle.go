package commands

import (
	"codesearch/internal/application/common/logging"
	"codesearch/internal/client"
	"codesearch/internal/codesearch"
	"codesearch/internal/version"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ExitOK is the process status of every run that is not a usage error,
// including runs whose command failed at runtime.
const ExitOK = 0

// Environment is everything a run touches outside the process.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer

	// Getwd reports the working directory paths are resolved against.
	Getwd func() (string, error)

	// LoadConfig reads the configuration; the argument is the --config value.
	LoadConfig func(file string) (*client.Config, error)

	// Connect constructs the backend handle.
	Connect func(opts codesearch.Options) (Backend, error)
}

func (e Environment) withDefaults() Environment {
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if e.Getwd == nil {
		e.Getwd = os.Getwd
	}
	if e.LoadConfig == nil {
		e.LoadConfig = client.LoadConfig
	}
	if e.Connect == nil {
		e.Connect = func(opts codesearch.Options) (Backend, error) {
			c, err := codesearch.NewClient(opts)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	return e
}

// Run executes one command line and returns the process exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	return RunWithEnvironment(args, Environment{Stdout: stdout, Stderr: stderr})
}

// RunWithEnvironment is Run against an explicit environment.
func RunWithEnvironment(args []string, env Environment) int {
	env = env.withDefaults()

	root := NewRootCmd(env)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitOK
	}

	// Runtime failures never reach this point, so whatever cobra or a
	// builder returns is a command line problem.
	var ue *UsageError
	if !errors.As(err, &ue) {
		ue = &UsageError{Err: err}
	}
	if !ue.printed {
		fmt.Fprintln(env.Stderr, ue.Error())
	}
	return ExitUsage
}

// lifecycle runs a single parsed command: it builds the backend handle,
// runs the command and releases the handle's cache.
type lifecycle struct {
	env     Environment
	cfgFile string
}

func newLifecycle(env Environment, cfgFile string) *lifecycle {
	return &lifecycle{env: env, cfgFile: cfgFile}
}

// execute prints every failure of the command to standard output. Only usage
// errors are returned, already marked as printed.
func (l *lifecycle) execute(ctx context.Context, spec CommandSpec, inv *Invocation) error {
	ctx = logging.WithCorrelationID(ctx, logging.NewCorrelationID())

	err := l.run(ctx, spec, inv)
	if err == nil {
		return nil
	}

	fmt.Fprintln(l.env.Stdout, err.Error())
	var ue *UsageError
	if errors.As(err, &ue) {
		ue.printed = true
		return ue
	}
	return nil
}

func (l *lifecycle) run(ctx context.Context, spec CommandSpec, inv *Invocation) error {
	start := time.Now()

	cfg, err := l.env.LoadConfig(l.cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.NewApplicationLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: l.env.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = logger.WithComponent("cli")

	wd, err := l.env.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	opts := codesearch.Options{
		ServerURL:    cfg.Server.URL,
		Timeout:      cfg.Server.Timeout,
		PackageName:  cfg.Server.Package,
		WorkingPath:  wd,
		SourceMarker: cfg.Source.Marker,
		CacheDir:     inv.Common.CacheDir,
		CacheTTL:     cfg.Cache.TTL,
		UserAgent:    version.Get().UserAgent(),
		Logger:       logger,
	}
	if inv.Common.Root {
		opts.SourceRoot = "/"
	}

	backend, err := l.env.Connect(opts)
	if err != nil {
		return err
	}
	guard := newCacheGuard(backend, logger)
	defer guard.release(ctx)

	if inv.Common.LogLevel != "" {
		if err := backend.SetLogLevel(inv.Common.LogLevel); err != nil {
			return err
		}
	}

	build := version.Get()
	logger.Info(ctx, "Running command", logging.Fields{
		"command":     spec.Name,
		"version":     build.Version,
		"development": build.IsDevelopment(),
	})

	req, err := spec.Build(ctx, inv, backend)
	if err != nil {
		return err
	}

	result, err := Dispatch(ctx, req, backend)
	if err != nil {
		return err
	}

	if err := client.PrintResult(l.env.Stdout, result, inv.Common.Pretty()); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}

	logger.LogPerformance(ctx, spec.Name, time.Since(start), nil)
	return nil
}

// cacheGuard releases the backend cache exactly once.
type cacheGuard struct {
	backend Backend
	logger  logging.ApplicationLogger
	once    sync.Once
}

func newCacheGuard(backend Backend, logger logging.ApplicationLogger) *cacheGuard {
	return &cacheGuard{backend: backend, logger: logger}
}

func (g *cacheGuard) release(ctx context.Context) {
	g.once.Do(func() {
		if err := g.backend.TeardownCache(); err != nil {
			g.logger.ErrorWithError(ctx, err, "Failed to tear down cache", nil)
		}
	})
}

// Package providers contains dependency injection providers for rak.
package providers

import (
	"context"
	"io"
	"os"

	"github.com/samber/do/v2"

	"github.com/metcalfc/rak/internal/app"
	"github.com/metcalfc/rak/internal/config"
	"github.com/metcalfc/rak/internal/importer"
	"github.com/metcalfc/rak/internal/library"
	"github.com/metcalfc/rak/internal/logger"
	"github.com/metcalfc/rak/internal/state"
	"github.com/metcalfc/rak/internal/translate"
)

// Options are the command line choices that shape the container.
type Options struct {
	ConfigPath string
	// Ephemeral keeps the library in memory for this run.
	Ephemeral bool
	// LogToFile sends logs to the configured log file instead of stderr,
	// for front ends that own the terminal.
	LogToFile bool
	// LogWriter overrides where logs go. It wins over LogToFile.
	LogWriter io.Writer
}

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts := do.MustInvoke[Options](i)
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Ephemeral {
		cfg.Storage.Backend = state.KindMemory
	}
	return cfg, nil
}

// LogFileHandle owns the log file while the container lives.
type LogFileHandle struct {
	*os.File
}

// Shutdown implements do.ShutdownerWithError.
func (h *LogFileHandle) Shutdown() error {
	return h.Close()
}

// ProvideLogFile opens the configured log file.
func ProvideLogFile(i do.Injector) (*LogFileHandle, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	f, err := logger.OpenFile(cfg.Log.File)
	if err != nil {
		return nil, err
	}
	return &LogFileHandle{File: f}, nil
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	opts := do.MustInvoke[Options](i)

	lc := logger.Config{
		Writer:      opts.LogWriter,
		Format:      cfg.Log.Format,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Log.Level),
	}
	if lc.Writer == nil && opts.LogToFile {
		f, err := do.Invoke[*LogFileHandle](i)
		if err != nil {
			return nil, err
		}
		lc.Writer = f
		lc.NoColor = true
	}
	log := logger.New(lc)

	log.Debug("starting rak",
		"environment", cfg.App.Environment,
		"config_file", cfg.File,
		"storage", cfg.Storage.Backend,
		"library_dir", cfg.Library.Dir,
	)
	return log, nil
}

// BackendHandle wraps the state backend with shutdown capability.
type BackendHandle struct {
	state.Backend
	kind string
}

// Shutdown implements do.ShutdownerWithError.
func (h *BackendHandle) Shutdown() error {
	return h.Close()
}

// Kind returns the backend kind that was opened.
func (h *BackendHandle) Kind() string { return h.kind }

// ProvideBackend opens the configured state backend.
func ProvideBackend(i do.Injector) (*BackendHandle, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	log, err := do.Invoke[*logger.Logger](i)
	if err != nil {
		return nil, err
	}

	backend, err := state.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	log.Debug("state backend opened", "kind", cfg.Storage.Backend, "dir", cfg.Storage.Dir)
	return &BackendHandle{Backend: backend, kind: cfg.Storage.Backend}, nil
}

// ProvideLibrary provides the library, loaded from the backend.
func ProvideLibrary(i do.Injector) (*library.Library, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	log, err := do.Invoke[*logger.Logger](i)
	if err != nil {
		return nil, err
	}
	backend, err := do.Invoke[*BackendHandle](i)
	if err != nil {
		return nil, err
	}

	lib := library.New(backend.Backend,
		library.WithKey(cfg.Storage.Key),
		library.WithLogger(log.With("component", "library")),
	)
	if err := lib.Load(context.Background()); err != nil {
		return nil, err
	}
	return lib, nil
}

// ProvideImporter provides the file importer.
func ProvideImporter(i do.Injector) (*importer.Importer, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	log, err := do.Invoke[*logger.Logger](i)
	if err != nil {
		return nil, err
	}
	return importer.New(cfg.Library.Dir, importer.WithLogger(log.With("component", "importer"))), nil
}

// ProvideTranslator provides the translation client.
func ProvideTranslator(i do.Injector) (*translate.Client, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	log, err := do.Invoke[*logger.Logger](i)
	if err != nil {
		return nil, err
	}
	return translate.NewClient(translate.Config{
		Endpoint: cfg.Translate.Endpoint,
		Target:   cfg.Translate.Target,
		Timeout:  cfg.Translate.Timeout,
		Rate:     cfg.Translate.Rate,
	}, log.With("component", "translate")), nil
}

// ProvideApp provides the application service.
func ProvideApp(i do.Injector) (*app.App, error) {
	lib, err := do.Invoke[*library.Library](i)
	if err != nil {
		return nil, err
	}
	imp, err := do.Invoke[*importer.Importer](i)
	if err != nil {
		return nil, err
	}
	tr, err := do.Invoke[*translate.Client](i)
	if err != nil {
		return nil, err
	}
	log, err := do.Invoke[*logger.Logger](i)
	if err != nil {
		return nil, err
	}
	return app.New(lib, imp, tr, log.Logger), nil
}

// Package di wires rak's services together with samber/do.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/metcalfc/rak/internal/app"
	"github.com/metcalfc/rak/internal/di/providers"
)

// NewContainer creates the DI container with all providers.
func NewContainer(opts providers.Options) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, opts)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogFile)
	do.Provide(injector, providers.ProvideLogger)

	// Storage
	do.Provide(injector, providers.ProvideBackend)
	do.Provide(injector, providers.ProvideLibrary)

	// Services
	do.Provide(injector, providers.ProvideImporter)
	do.Provide(injector, providers.ProvideTranslator)
	do.Provide(injector, providers.ProvideApp)

	return injector
}

// App resolves the application service, initializing everything it needs.
func App(injector *do.RootScope) (*app.App, error) {
	a, err := do.Invoke[*app.App](injector)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}

// Shutdown closes every service that was started.
func Shutdown(injector *do.RootScope) error {
	report := injector.Shutdown()
	if report != nil && !report.Succeed {
		return report
	}
	return nil
}

package engine

import (
	"github.com/spaghettifunk/gardenia/engine/photoreal"
	"github.com/spaghettifunk/gardenia/engine/storage"
	"github.com/spaghettifunk/gardenia/engine/systems"
)

/**
 * @brief Collaborators the engine would otherwise build from the
 * configuration. Every field is optional.
 */
type ApplicationConfig struct {
	// Used in log lines.
	Name string
	// Renderer backend; defaults to renderer.backend.
	Backend systems.BackendFactory
	// Frame scheduler; defaults to a ticker at loop.fps.
	Scheduler func() systems.FrameScheduler
	// Remote enhancer; defaults to the HTTP client at enhancer.base_url.
	Enhancer photoreal.Enhancer
	// Runs remote passes; defaults to the engine's job system.
	Dispatcher photoreal.Dispatcher
	// Artifact store; defaults to the configured driver.
	Store storage.Store
}

package notify

import "log/slog"

// NewDefaultRegistry registers the built-in handlers: log, spawn-prefab and,
// when scripts is non-nil, script.
func NewDefaultRegistry(logger *slog.Logger, spawner Spawner, scripts *ScriptHandler) *Registry {
	r := NewRegistry()
	r.MustRegister(NewLogHandler(logger), NewSpawnHandler(spawner))
	if scripts != nil {
		r.MustRegister(scripts)
	}
	return r
}

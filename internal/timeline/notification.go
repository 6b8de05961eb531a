package timeline

import (
	"sort"
	"sync"
)

// Built-in notification kinds.
const (
	KindLog    = "log"
	KindSpawn  = "spawn-prefab"
	KindScript = "script"
)

// Notification is a typed payload attached to a clip. Kind is the tag used
// both in asset files and by the dispatcher to pick a handler.
type Notification interface {
	Kind() string
}

// LogNotify writes Message to the log when its clip starts and ends.
type LogNotify struct {
	Message string `yaml:"message" json:"message"`
}

// Kind implements Notification.
func (*LogNotify) Kind() string { return KindLog }

// Vec2 is a 2D position.
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// SpawnNotify instantiates Prefab when its clip starts.
type SpawnNotify struct {
	Prefab   string  `yaml:"prefab" json:"prefab"`
	Position Vec2    `yaml:"position" json:"position"`
	Rotation float64 `yaml:"rotation" json:"rotation"`
	Scale    float64 `yaml:"scale" json:"scale"`
}

// Kind implements Notification.
func (*SpawnNotify) Kind() string { return KindSpawn }

// ScriptNotify runs a Lua chunk that may define on_start(owner),
// on_update(owner, progress) and on_end(owner).
type ScriptNotify struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Source string `yaml:"source" json:"source"`
}

// Kind implements Notification.
func (*ScriptNotify) Kind() string { return KindScript }

// UnknownNotification keeps a notification whose kind has no registered Go
// type. Fields holds every key except "kind".
type UnknownNotification struct {
	KindName string
	Fields   map[string]any
}

// Kind implements Notification.
func (u *UnknownNotification) Kind() string { return u.KindName }

var (
	kindsMu sync.RWMutex
	kinds   = map[string]func() Notification{
		KindLog:    func() Notification { return &LogNotify{} },
		KindSpawn:  func() Notification { return &SpawnNotify{} },
		KindScript: func() Notification { return &ScriptNotify{} },
	}
)

// RegisterKind makes a notification kind decodable. The factory must return
// a pointer to a fresh zero value. Registering an existing kind replaces it.
func RegisterKind(kind string, factory func() Notification) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	kinds[kind] = factory
}

// Kinds returns the decodable kinds in sorted order.
func Kinds() []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// newNotification returns a zero value for kind, or nil if unregistered.
func newNotification(kind string) Notification {
	kindsMu.RLock()
	factory, ok := kinds[kind]
	kindsMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

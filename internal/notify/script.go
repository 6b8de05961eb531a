package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/roach88/cliptrack/internal/timeline"
)

// DefaultScriptTimeout bounds each call into a script.
const DefaultScriptTimeout = 100 * time.Millisecond

// scriptKey identifies one running activation: the same script notification
// played by two owners runs in two VMs.
type scriptKey struct {
	owner string
	n     *timeline.ScriptNotify
}

// ScriptHandler runs script notifications in sandboxed Lua VMs.
//
// The script source is evaluated when the clip starts, then its global
// on_start(), on_update(progress) and on_end() functions are called for the
// matching lifecycle edges; each is optional. The VM lives for one
// activation and is closed after on_end. Scripts see two globals besides
// the safe standard libraries: owner (string) and log(message).
type ScriptHandler struct {
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	protos  map[string]*lua.FunctionProto // source -> compiled chunk
	running map[scriptKey]*lua.LState
}

// ScriptOption configures a ScriptHandler.
type ScriptOption func(*ScriptHandler)

// WithScriptLogger sets the logger behind the script log() global and
// script errors.
func WithScriptLogger(l *slog.Logger) ScriptOption {
	return func(h *ScriptHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithScriptTimeout overrides DefaultScriptTimeout.
func WithScriptTimeout(d time.Duration) ScriptOption {
	return func(h *ScriptHandler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewScriptHandler creates a ScriptHandler.
func NewScriptHandler(opts ...ScriptOption) *ScriptHandler {
	h := &ScriptHandler{
		logger:  slog.Default(),
		timeout: DefaultScriptTimeout,
		protos:  make(map[string]*lua.FunctionProto),
		running: make(map[scriptKey]*lua.LState),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ScriptHandler) Kind() string { return timeline.KindScript }

func scriptName(n *timeline.ScriptNotify) string {
	if n.Name != "" {
		return n.Name
	}
	return "script"
}

func (h *ScriptHandler) OnStart(owner any, n timeline.Notification) {
	sn, ok := n.(*timeline.ScriptNotify)
	if !ok {
		return
	}
	key := scriptKey{owner: OwnerName(owner), n: sn}
	name := scriptName(sn)

	// A clip that restarts without ending (stop, loop) leaves its VM behind.
	h.mu.Lock()
	if old, ok := h.running[key]; ok {
		old.Close()
		delete(h.running, key)
	}
	h.mu.Unlock()

	proto, err := h.compile(sn)
	if err != nil {
		h.logger.Error("script compile failed", "script", name, "owner", key.owner, "error", err)
		return
	}

	L := h.newState(key.owner, name)
	err = h.call(L, func() error {
		L.Push(L.NewFunctionFromProto(proto))
		return L.PCall(0, lua.MultRet, nil)
	})
	if err != nil {
		h.logger.Error("script load failed", "script", name, "owner", key.owner, "error", err)
		L.Close()
		return
	}

	h.mu.Lock()
	h.running[key] = L
	h.mu.Unlock()

	h.invoke(L, key, name, "on_start")
}

func (h *ScriptHandler) OnUpdate(owner any, n timeline.Notification, progress float64) {
	sn, ok := n.(*timeline.ScriptNotify)
	if !ok {
		return
	}
	key := scriptKey{owner: OwnerName(owner), n: sn}

	h.mu.Lock()
	L := h.running[key]
	h.mu.Unlock()
	if L == nil {
		return
	}
	h.invoke(L, key, scriptName(sn), "on_update", lua.LNumber(progress))
}

func (h *ScriptHandler) OnEnd(owner any, n timeline.Notification) {
	sn, ok := n.(*timeline.ScriptNotify)
	if !ok {
		return
	}
	key := scriptKey{owner: OwnerName(owner), n: sn}

	h.mu.Lock()
	L := h.running[key]
	delete(h.running, key)
	h.mu.Unlock()
	if L == nil {
		return
	}
	defer L.Close()
	h.invoke(L, key, scriptName(sn), "on_end")
}

// Running returns the number of live script VMs.
func (h *ScriptHandler) Running() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.running)
}

// Close shuts down every live VM without calling on_end.
func (h *ScriptHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, L := range h.running {
		L.Close()
		delete(h.running, key)
	}
}

func (h *ScriptHandler) compile(n *timeline.ScriptNotify) (*lua.FunctionProto, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if proto, ok := h.protos[n.Source]; ok {
		return proto, nil
	}

	name := scriptName(n)
	chunk, err := parse.Parse(strings.NewReader(n.Source), name)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	h.protos[n.Source] = proto
	return proto, nil
}

// invoke calls the global function fn if the script defined it.
func (h *ScriptHandler) invoke(L *lua.LState, key scriptKey, name, fn string, args ...lua.LValue) {
	f := L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return
	}
	err := h.call(L, func() error {
		return L.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true}, args...)
	})
	if err != nil {
		h.logger.Error("script call failed", "script", name, "owner", key.owner, "function", fn, "error", err)
	}
}

// call runs f with the VM bound to a timeout context.
func (h *ScriptHandler) call(L *lua.LState, f func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()
	return f()
}

// newState creates a VM with only the safe standard libraries.
func (h *ScriptHandler) newState(owner, name string) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       128,
		RegistrySize:        1024,
		MinimizeStackMemory: true,
	})

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, global := range []string{"dofile", "loadfile", "require", "print"} {
		L.SetGlobal(global, lua.LNil)
	}

	L.SetGlobal("owner", lua.LString(owner))
	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		h.logger.Info("script", "owner", owner, "script", name, "message", L.CheckString(1))
		return 0
	}))
	return L
}

package lua

import (
	"os"
	"path/filepath"
	"strings"

	glua "github.com/yuin/gopher-lua"

	"github.com/drake/retimer/debounce"
	"github.com/drake/retimer/retimer"
)

// debounceKeys bounds the keys tracked by retimer.debounce.
const debounceKeys = 256

// Stats is a snapshot of Engine state.
type Stats struct {
	StackSize    int
	Timers       int // armed script timers
	DebounceKeys int
}

// Engine wraps gopher-lua and exposes retimers to scripts.
// It is not safe for concurrent use; the host runs it on one goroutine.
type Engine struct {
	L *glua.LState

	// Cached table reference
	retimerTable *glua.LTable

	host Host

	// Armed script timers, so reload and close can clear them. A timer
	// leaves the set when it fires and rejoins on reschedule; an idle timer
	// holds no handle and needs no clearing.
	timers   map[*retimer.Timer]struct{}
	debounce *debounce.Group[string, *glua.LFunction]
}

// NewEngine creates an Engine with the given Host.
func NewEngine(host Host) *Engine {
	return &Engine{
		host:   host,
		timers: make(map[*retimer.Timer]struct{}),
	}
}

// --- Lifecycle ---

// Init initializes (or re-initializes) the Lua VM with fresh state.
// Timers from a previous state are cleared.
func (e *Engine) Init() error {
	e.clearAll()
	if e.L != nil {
		e.L.Close()
	}

	e.L = glua.NewState()

	group, err := debounce.New(e.host, debounceKeys, func(key string, fn *glua.LFunction) {
		e.invoke(fn, []any{glua.LString(key)})
	})
	if err != nil {
		return err
	}
	e.debounce = group

	registerTimerType(e.L, e.timerMethods())
	e.registerAPIs()

	return nil
}

// Close clears every timer and releases the Lua state.
func (e *Engine) Close() {
	e.clearAll()
	e.debounce = nil
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}

// Stats reports the current engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{Timers: len(e.timers)}
	if e.L != nil {
		s.StackSize = e.L.GetTop()
	}
	if e.debounce != nil {
		s.DebounceKeys = e.debounce.Len()
	}
	return s
}

// --- Execution Primitives ---

// DoString executes a raw string of Lua code.
// The name parameter is used for stack traces.
func (e *Engine) DoString(name, code string) error {
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	e.L.Push(fn)
	return e.L.PCall(0, 0, nil)
}

// DoFile executes a Lua file from the filesystem.
// It temporarily adjusts package.path to allow local requires.
func (e *Engine) DoFile(path string) error {
	path = expandTilde(path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)

	pkg := e.L.GetGlobal("package").(*glua.LTable)
	oldPath := e.L.GetField(pkg, "path").String()
	e.L.SetField(pkg, "path", glua.LString(dir+"/?.lua;"+oldPath))

	err = e.L.DoFile(absPath)

	e.L.SetField(pkg, "path", glua.LString(oldPath))

	return err
}

// invoke runs a timer callback with protected call. Errors are reported,
// never propagated: a failing script must not stop the loop.
func (e *Engine) invoke(fn *glua.LFunction, args []any) {
	if e.L == nil {
		return // Fired after Close
	}

	e.L.Push(fn)
	for _, a := range args {
		e.L.Push(a.(glua.LValue))
	}
	if err := e.L.PCall(len(args), 0, nil); err != nil {
		e.host.Print("timer: " + err.Error())
	}
}

// clearAll clears every script timer and debounced key.
func (e *Engine) clearAll() {
	for t := range e.timers {
		t.Clear()
	}
	e.timers = make(map[*retimer.Timer]struct{})
	if e.debounce != nil {
		e.debounce.Purge()
	}
}

func (e *Engine) registerAPIs() {
	e.retimerTable = e.L.NewTable()
	e.L.SetGlobal("retimer", e.retimerTable)

	e.registerCoreFuncs()
	e.registerTimerFuncs()
}

// expandTilde expands ~ to home directory.
func expandTilde(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

package lua

import (
	"strings"

	glua "github.com/yuin/gopher-lua"
)

// registerCoreFuncs registers retimer.print and retimer.quit.
func (e *Engine) registerCoreFuncs() {
	// retimer.print(...): Outputs its arguments, tab separated, through the host
	e.L.SetField(e.retimerTable, "print", e.L.NewFunction(func(L *glua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		e.host.Print(strings.Join(parts, "\t"))
		return 0
	}))

	// retimer.quit(): Ask the host to stop
	e.L.SetField(e.retimerTable, "quit", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Quit()
		return 0
	}))
}

package lua

import (
	"fmt"
	"math"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/drake/retimer/retimer"
)

const luaTimerTypeName = "retimer"

// registerTimerType registers the retimer userdata type.
func registerTimerType(L *glua.LState, methods map[string]glua.LGFunction) {
	mt := L.NewTypeMetatable(luaTimerTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
	L.SetField(mt, "__tostring", L.NewFunction(timerToString))
}

// newTimer wraps t as userdata.
func newTimer(L *glua.LState, t *retimer.Timer) *glua.LUserData {
	ud := L.NewUserData()
	ud.Value = t
	L.SetMetatable(ud, L.GetTypeMetatable(luaTimerTypeName))
	return ud
}

// checkTimer retrieves a retimer from userdata at the given stack position.
func checkTimer(L *glua.LState, n int) *retimer.Timer {
	ud := L.CheckUserData(n)
	if v, ok := ud.Value.(*retimer.Timer); ok {
		return v
	}
	L.ArgError(n, "retimer expected")
	return nil
}

// registerTimerFuncs registers retimer.new, retimer.debounce and friends.
func (e *Engine) registerTimerFuncs() {
	// retimer.new(fn, seconds, ...): Armed timer; extra args go to fn on every firing
	e.L.SetField(e.retimerTable, "new", e.L.NewFunction(func(L *glua.LState) int {
		fn := L.CheckFunction(1)
		d := checkDuration(L, 2)

		var extra []any
		for i := 3; i <= L.GetTop(); i++ {
			extra = append(extra, L.Get(i))
		}

		// Firings run on the engine goroutine, after New has returned.
		var t *retimer.Timer
		t, err := retimer.New(e.host, func(args ...any) {
			delete(e.timers, t)
			e.invoke(fn, args)
		}, d, extra...)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		e.timers[t] = struct{}{}

		L.Push(newTimer(L, t))
		return 1
	}))

	// retimer.debounce(key, seconds, fn): fn(key) runs once key is quiet for seconds
	e.L.SetField(e.retimerTable, "debounce", e.L.NewFunction(func(L *glua.LState) int {
		key := L.CheckString(1)
		d := checkDuration(L, 2)
		fn := L.CheckFunction(3)

		if err := e.debounce.Touch(key, fn, d); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}))

	// retimer.cancel(key): Drop a debounced key; returns whether it existed
	e.L.SetField(e.retimerTable, "cancel", e.L.NewFunction(func(L *glua.LState) int {
		key := L.CheckString(1)
		L.Push(glua.LBool(e.debounce.Cancel(key)))
		return 1
	}))

	// retimer.clear_all(): Clear every timer and debounced key
	e.L.SetField(e.retimerTable, "clear_all", e.L.NewFunction(func(L *glua.LState) int {
		e.clearAll()
		return 0
	}))
}

// timerMethods defines the methods available on retimer objects in Lua.
func (e *Engine) timerMethods() map[string]glua.LGFunction {
	return map[string]glua.LGFunction{
		// t:reschedule([seconds]): Returns t
		"reschedule": func(L *glua.LState) int {
			t := checkTimer(L, 1)
			var err error
			if L.GetTop() >= 2 {
				_, err = t.Reschedule(checkDuration(L, 2))
			} else {
				_, err = t.Restart()
			}
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			if t.State() == retimer.Armed {
				e.timers[t] = struct{}{}
			}
			L.Push(L.Get(1))
			return 1
		},

		// t:clear()
		"clear": func(L *glua.LState) int {
			t := checkTimer(L, 1)
			t.Clear()
			delete(e.timers, t)
			return 0
		},

		// t:state(): "armed", "idle" or "cleared"
		"state": func(L *glua.LState) int {
			L.Push(glua.LString(checkTimer(L, 1).State().String()))
			return 1
		},

		// t:delay(): Current delay in seconds
		"delay": func(L *glua.LState) int {
			L.Push(glua.LNumber(checkTimer(L, 1).Delay().Seconds()))
			return 1
		},

		// t:fires(): Number of firings so far
		"fires": func(L *glua.LState) int {
			L.Push(glua.LNumber(checkTimer(L, 1).Fires()))
			return 1
		},
	}
}

func timerToString(L *glua.LState) int {
	t := checkTimer(L, 1)
	L.Push(glua.LString(fmt.Sprintf("retimer(%s, %v)", t.State(), t.Delay())))
	return 1
}

// maxSeconds is the largest delay a time.Duration can hold.
var maxSeconds = time.Duration(math.MaxInt64).Seconds()

// checkDuration reads Lua number seconds at n as a Go duration. Values that
// are not finite or do not fit a Duration raise an argument error; sign is
// left to the timer facility.
func checkDuration(L *glua.LState, n int) time.Duration {
	s := float64(L.CheckNumber(n))
	if math.IsNaN(s) || math.IsInf(s, 0) || math.Abs(s) >= maxSeconds {
		L.ArgError(n, fmt.Sprintf("delay out of range: %v", s))
		return 0
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}

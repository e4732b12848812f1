package scripting

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dicedist/internal/dice"
)

// Runner executes Lua scripts against a dice.Builder. Each call gets a fresh
// sandboxed state, so scripts never share globals.
//
// Runner is safe for concurrent use.
type Runner struct {
	builder   *dice.Builder
	logger    *zap.Logger
	instLimit int
}

// NewRunner creates a Runner.
//
// Precondition: builder and logger must be non-nil; instLimit >= 0 (0 = default).
func NewRunner(builder *dice.Builder, logger *zap.Logger, instLimit int) *Runner {
	return &Runner{builder: builder, logger: logger, instLimit: instLimit}
}

// Eval runs src and then, when fn is non-empty, calls the global function fn.
// The result is fn's first return value converted by ToGo, or nil.
//
// Postcondition: Returns the converted result, or an error for load failures,
// runtime errors, an exceeded instruction limit, or an undefined fn.
func (r *Runner) Eval(src, fn string) (any, error) {
	return r.run("<eval>", fn, func(L *lua.LState) error { return L.DoString(src) })
}

// RunFile is Eval for the script stored at path.
func (r *Runner) RunFile(path, fn string) (any, error) {
	return r.run(path, fn, func(L *lua.LState) error { return L.DoFile(path) })
}

func (r *Runner) run(name, fn string, load func(*lua.LState) error) (any, error) {
	L, cancel := NewSandboxedState(r.instLimit)
	defer L.Close()
	defer cancel()
	r.RegisterModules(L)

	if err := load(L); err != nil {
		r.logger.Warn("scripting: load failed", zap.String("script", name), zap.Error(err))
		return nil, fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	if fn == "" {
		return nil, nil
	}

	f := L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return nil, fmt.Errorf("scripting: %q does not define function %q", name, fn)
	}
	if err := L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}); err != nil {
		r.logger.Warn("scripting: Lua runtime error",
			zap.String("script", name),
			zap.String("fn", fn),
			zap.Error(err),
		)
		return nil, fmt.Errorf("scripting: calling %q in %q: %w", fn, name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ToGo(ret), nil
}

// ToGo converts a Lua value into plain Go values: nil, bool, float64 or
// int64 (for integral numbers up to 2^53 in magnitude), string, []any for array tables and
// map[string]any for other tables.
func ToGo(v lua.LValue) any {
	switch lv := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		f := float64(lv)
		if f == math.Trunc(f) && math.Abs(f) <= maxExactFloat {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(lv)
	case *lua.LTable:
		if n := lv.Len(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, ToGo(lv.RawGetInt(i)))
			}
			return arr
		}
		m := make(map[string]any)
		lv.ForEach(func(k, val lua.LValue) {
			m[k.String()] = ToGo(val)
		})
		return m
	default:
		return v.String()
	}
}

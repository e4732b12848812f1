package scripting

import (
	"math"
	"math/big"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dicedist/internal/dice"
	"github.com/cory-johannsen/dicedist/internal/dist"
)

// maxExactFloat is the largest integer a Lua number (float64) holds exactly.
const maxExactFloat = 1 << 53

// RegisterModules installs the dice and log tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: globals "dice" and "log" are defined in L.
func (r *Runner) RegisterModules(L *lua.LState) {
	diceTbl := L.NewTable()
	L.SetFuncs(diceTbl, map[string]lua.LGFunction{
		"unordered":   r.luaBuild(false),
		"ordered":     r.luaBuild(true),
		"probability": r.luaProbability,
		"count":       luaCount,
		"parse":       luaParse,
	})
	L.SetGlobal("dice", diceTbl)

	logTbl := L.NewTable()
	L.SetFuncs(logTbl, map[string]lua.LGFunction{
		"debug": r.luaLog(r.logger.Debug),
		"info":  r.luaLog(r.logger.Info),
		"warn":  r.luaLog(r.logger.Warn),
		"error": r.luaLog(r.logger.Error),
	})
	L.SetGlobal("log", logTbl)
}

// bigToLua returns v as a Lua number when it is exactly representable, and as
// a decimal string otherwise.
func bigToLua(v *big.Int) lua.LValue {
	if v.IsInt64() {
		if i := v.Int64(); i <= maxExactFloat && i >= -maxExactFloat {
			return lua.LNumber(i)
		}
	}
	return lua.LString(v.String())
}

func tupleToLua(L *lua.LState, t dist.Tuple) *lua.LTable {
	tbl := L.CreateTable(len(t), 0)
	for _, v := range t {
		tbl.Append(lua.LNumber(v))
	}
	return tbl
}

func checkPool(L *lua.LState) dice.Pool {
	return dice.Pool{Count: L.CheckInt(1), Sides: L.CheckInt(2)}
}

// dice.unordered(n, m) / dice.ordered(n, m) return an array of
// {outcome = {...}, weight = w, probability = p} in outcome order.
func (r *Runner) luaBuild(ordered bool) lua.LGFunction {
	return func(L *lua.LState) int {
		d, err := r.builder.Build(checkPool(L), ordered)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		total := d.Total()
		out := L.CreateTable(d.Len(), 0)
		for v, w := range d.All() {
			row := L.CreateTable(0, 3)
			row.RawSetString("outcome", tupleToLua(L, v))
			row.RawSetString("weight", bigToLua(w))
			p, _ := new(big.Rat).SetFrac(w, total).Float64()
			row.RawSetString("probability", lua.LNumber(p))
			out.Append(row)
		}
		L.Push(out)
		return 1
	}
}

// dice.probability(n, m, outcome[, ordered]) returns the probability as a
// number and as an exact fraction string.
func (r *Runner) luaProbability(L *lua.LState) int {
	pool := checkPool(L)
	tbl := L.CheckTable(3)
	ordered := L.OptBool(4, false)

	var outcome dist.Tuple
	for i := 1; i <= tbl.Len(); i++ {
		n, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok {
			L.ArgError(3, "outcome must be an array of numbers")
			return 0
		}
		f := float64(n)
		if f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
			L.ArgError(3, "outcome must be an array of integers")
			return 0
		}
		outcome = append(outcome, int(f))
	}

	d, err := r.builder.Build(pool, ordered)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	p := d.Probability(outcome)
	f, _ := p.Float64()
	L.Push(lua.LNumber(f))
	L.Push(lua.LString(p.RatString()))
	return 2
}

// dice.count(n, m[, ordered]) returns the number of outcomes without building them.
func luaCount(L *lua.LState) int {
	pool := checkPool(L)
	var (
		c   *big.Int
		err error
	)
	if L.OptBool(3, false) {
		c, err = dice.TupleCount(pool.Count, pool.Sides)
	} else {
		c, err = dice.OutcomeCount(pool.Count, pool.Sides)
	}
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(bigToLua(c))
	return 1
}

// dice.parse("3d6") returns 3, 6.
func luaParse(L *lua.LState) int {
	pool, err := dice.Parse(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(pool.Count))
	L.Push(lua.LNumber(pool.Sides))
	return 2
}

func (r *Runner) luaLog(fn func(string, ...zap.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		fn(L.CheckString(1), zap.String("source", "lua"))
		return 0
	}
}

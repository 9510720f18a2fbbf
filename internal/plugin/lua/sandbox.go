package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// dangerousGlobals are removed from every state.
var dangerousGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"module",
}

// safeModules may be passed to require.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// openSafeLibraries opens only safe Lua standard libraries.
// io, os, debug and package are intentionally not opened.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox strips code-loading globals and installs a require that
// only resolves whitelisted and host-registered modules.
func installSandbox(L *lua.LState, modules map[string]*lua.LTable) {
	for _, name := range dangerousGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)

		if mod, ok := modules[name]; ok {
			L.Push(mod)
			return 1
		}
		if safeModules[name] {
			L.Push(L.GetGlobal(name))
			return 1
		}

		L.RaiseError("module %q is not available", name)
		return 0
	}))
}

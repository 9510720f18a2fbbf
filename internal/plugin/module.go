package plugin

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/veil/internal/codec"
	"github.com/dshills/veil/internal/markup"
)

// moduleName is the global and require name of the host API.
const moduleName = "veil"

// moduleFuncs returns the veil Lua module bound to scanner.
func moduleFuncs(scanner *markup.Scanner) map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"obfuscate": func(L *lua.LState) int {
			L.Push(lua.LString(codec.Obfuscate(L.CheckString(1))))
			return 1
		},
		"deobfuscate": func(L *lua.LState) int {
			L.Push(lua.LString(codec.Deobfuscate(L.CheckString(1))))
			return 1
		},
		"regions": func(L *lua.LState) int {
			text := L.CheckString(1)
			res := scanner.Scan(text)

			tbl := L.NewTable()
			for _, r := range res.Regions {
				entry := L.NewTable()
				// Lua strings are 1-based with inclusive ends.
				L.SetField(entry, "from", lua.LNumber(r.ContentFrom+1))
				L.SetField(entry, "to", lua.LNumber(r.ContentTo))
				L.SetField(entry, "content", lua.LString(r.Text(text)))
				tbl.Append(entry)
			}
			L.Push(tbl)
			return 1
		},
	}
}

package config

import (
	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are stripped from every config VM. Besides system access
// and code loading this covers the raw table functions, which would let a
// config write through the read-only platform proxy, and collectgarbage.
var removedGlobals = []string{
	"os", "io", "debug", "package",
	"require", "module", "dofile", "loadfile", "load", "loadstring",
	"rawset", "rawget", "rawequal", "setfenv", "getfenv", "newproxy",
	"collectgarbage",
}

// sandboxLuaVM configures a Lua VM to run in a restricted sandbox.
// The string, table and math libraries and the basic functions (type,
// tostring, tonumber, pairs, ipairs, select, error, pcall) are kept.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a new Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize:       256,
		RegistrySize:        1024 * 8,
		IncludeGoStackTrace: false,
	})
	sandboxLuaVM(L)
	return L
}

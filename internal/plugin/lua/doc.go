// Package lua wraps gopher-lua with the sandbox used for veil plugins.
//
// A State opens only the base, table, string and math libraries, removes
// the globals that load code from disk or strings, and replaces require with
// a whitelist. Every call into Lua runs under a context deadline so a
// runaway plugin cannot stall the host.
//
// gopher-lua's LState is not goroutine-safe. State serialises access with a
// mutex; callers never touch the LState directly except through
// RegisterModule callbacks, which run inside a locked call.
package lua

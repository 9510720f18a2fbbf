// Package plugin loads Lua plugins that observe and validate secret
// region edits.
//
// Each plugin runs in its own sandboxed interpreter with a veil module:
//
//	veil.obfuscate(s)      -- reverse code points
//	veil.deobfuscate(s)    -- inverse of obfuscate
//	veil.regions(text)     -- { {from=, to=, content=}, ... } (1-based, inclusive)
//
// A plugin may define two global hooks:
//
//	function on_render(region) end          -- observe a rendered region
//	function on_commit(region)              -- validate an edit
//	    if region.plain == "" then
//	        return false, "empty secrets are not allowed"
//	    end
//	    return true
//	end
//
// on_commit may return nil or true to allow the edit, false with an
// optional message, or a non-empty string message to veto it. A veto
// surfaces as *VetoError from the commit.
package plugin

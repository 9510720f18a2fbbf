// Package secret connects the codec to a document through two events.
//
// The extension never walks the document itself on behalf of a caller's
// rendering code. Instead it publishes one region.render event per secret
// region and one region.commit event per edit, and registers the codec as
// the critical-priority handler of both:
//
//	region.render:  RenderRequest.Display = Obfuscate(RenderRequest.Plain)
//	region.commit:  CommitRequest.Plain   = Deobfuscate(CommitRequest.Edited)
//
// Other subscribers (plugins, loggers) observe the same events. A
// region.commit subscriber that returns an error vetoes the edit before the
// document is touched. After a successful write the extension publishes
// region.committed.
//
// The extension keeps the last scan of the document and rebuilds it when a
// document.changed event arrives or the document version moves. The codec
// itself holds no state.
package secret

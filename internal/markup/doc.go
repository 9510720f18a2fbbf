// Package markup locates secret regions in note text.
//
// A region is the span between an opening marker and the first closing
// marker after it:
//
//	before <secret>hunter2</secret> after
//	       ^TagFrom^ContentFrom ^ContentTo ^TagTo
//
// Scanning is a single left-to-right pass over the text. Regions do not nest;
// an opening marker found inside a region is ordinary content. An opening
// marker that is never closed does not produce a region and is reported in
// Result.Unterminated so callers never hand an ill-defined span to the codec.
package markup

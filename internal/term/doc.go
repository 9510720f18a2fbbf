// Package term provides a single-line terminal edit field for region values.
//
// The field edits text by grapheme cluster and measures display columns
// with rivo/uniseg, so combining marks and wide characters keep the cursor
// aligned. Enter commits the value and Esc cancels.
package term

// Package document holds the text that secret regions are read from and
// written back to.
//
// A Document applies edits as transactions. A transaction is a set of
// non-overlapping changes expressed against the text as it was before the
// transaction; all of them land together, the version advances by one, the
// inverse is pushed onto the undo stack and change listeners are notified.
//
//	doc := document.New("note.md", "pw: <secret>2retnuh</secret>")
//	tx, err := doc.Replace(12, 19, "hunter2")
//	doc.Undo()
//
// All methods are safe for concurrent use. Listeners run after the document
// lock is released, in registration order, on the goroutine that applied the
// transaction.
package document

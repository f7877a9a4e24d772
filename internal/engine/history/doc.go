// Package history records document edits for undo and redo.
//
// Every edit is a Command that knows how to apply itself to a
// document.Document and how to reverse itself. Before applying, a command
// captures what it will overwrite: removed text together with its runs,
// the runs a style change replaces, a paragraph's previous properties. Undo
// restores exactly that pre-image.
//
// A Stack keeps the applied commands with the selection before and after
// each. Keystrokes that continue one another inside the merge window
// collapse into one entry, so undo removes a typed word rather than a
// letter:
//
//	s := NewStack(Options{MaxDepth: 100, MergeWindow: time.Second})
//	s.Execute(doc, NewInsertCommand(0, document.PlainFragment("a")), sel, sel)
//
// Style and paragraph commands start a new entry. Flush closes the open
// entry; BeginGroup and EndGroup bracket several commands that undo as
// one, such as a delete followed by an insert when typing over a selection.
package history

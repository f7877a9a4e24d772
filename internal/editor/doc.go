// Package editor provides the BookEditor, the controller that owns a
// document and mediates every change to it.
//
// The editor keeps the caret and selection, turns user intents (typing,
// deleting, formatting, cursor motion) into history commands, and after
// each mutation invalidates the affected paragraph layouts and refreshes
// the viewport. Nothing outside the editor mutates the document, so every
// change is recorded for undo.
//
// # Formatting targets
//
// Formatting operations act on the selection. With an empty selection they
// act on the word under the caret; when the caret is not in a word they set
// a pending style that applies to the next typed text:
//
//	ed := editor.New(document.NewFromString("Hello World"))
//	ed.SetSelection(0, 5)
//	ed.ToggleBold()
//	ed.CurrentInlineStyle().State(format.AttrBold) // style.On
//
// # Ranges
//
// Offsets outside the document are a caller bug. With WithStrictRanges they
// fail with ErrOutOfRange; otherwise they are clamped and a warning is
// logged.
package editor

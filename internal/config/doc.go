// Package config loads folio settings.
//
// Settings come from layers merged by priority, highest last:
//
//	defaults     built into the binary
//	user         ~/.config/folio/config.toml
//	project      folio.toml beside the documents
//	environment  FOLIO_SECTION_KEY variables
//	arguments    command-line flags
//
// A file may pull in others with a top-level @include key. The merged
// result is checked against the types of the defaults, decoded into a
// Config and validated:
//
//	[editor]
//	undo_depth = 100
//	merge_window = "1s"
//	strict_ranges = false
//
//	[layout]
//	width = 80
//	max_cached = 150
//
//	[theme]
//	font_family = "Serif"
//	foreground = "#202020"
//
// Named paragraph and character styles live in a separate catalog file;
// see LoadCatalog.
package config

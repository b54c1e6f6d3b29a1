package languagemode

import "github.com/pulsar-edit/tree-sitter-languagemode/grammar"

// The interfaces in this file describe collaborators that live outside this
// module's scope, per spec.md §1: the text buffer, the grammar registry and
// the configuration store. This package only ever calls methods on them; it
// never implements them.

// Buffer is the text-buffer collaborator. An editor's real buffer type
// implements this; languagemode only reads from it.
type Buffer interface {
	CharacterIndexForPosition(Point) uint
	PositionForCharacterIndex(uint) Point
	Text() string
	TextInRange(Range) string
	LineForRow(row uint) string
	LineLengthForRow(row uint) uint
	LineEndingForRow(row uint) string
	IsRowBlank(row uint) bool
	ClipPosition(Point) Point
	Range() Range
}

// GrammarRegistry maps a language tag (as reported by an injection point's
// Language callback) to a compiled Grammar. Returns nil if no grammar is
// registered for the tag; the caller treats this as "injection skipped,
// retry later" per spec.md §4.2 and §7.
type GrammarRegistry interface {
	GrammarForLanguageString(tag string) *grammar.Grammar
}

// ConfigStore is the fallback source for comment delimiters
// (editor.commentStart / editor.commentEnd), scoped to a scope descriptor,
// used by LanguageMode.CommentStringsForPosition when the covering grammar
// does not declare its own comment strings.
type ConfigStore interface {
	CommentStart(scopeDescriptor []string) (string, bool)
	CommentEnd(scopeDescriptor []string) (string, bool)
}

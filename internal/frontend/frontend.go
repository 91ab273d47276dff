// Package frontend declares the boundary between the indexer and whatever
// understands C: parsing, tree walking, and canonical type identity. The
// driver in internal/ast only ever calls through Parser/Cursor — it never
// imports a concrete front end.
package frontend

// CanonicalID identifies a record/enum type within a single translation
// unit. It must be comparable (usable as a map key) and is only meaningful
// relative to the TU that produced it — never persisted, never compared
// across TUs.
type CanonicalID any

// NodeKind classifies a Cursor's current position for the driver's
// dispatcher.
type NodeKind int

const (
	NodeOther NodeKind = iota
	NodeStructSpecifier
	NodeUnionSpecifier
	NodeEnumSpecifier
	NodeTypedef
	NodeFieldDeclaration
	NodeDeclaration
	NodeFieldList
	NodeTranslationUnit
)

// Loc is a 1-based source location within the TU currently being walked.
type Loc struct {
	Line   uint32
	Column uint32
}

// Cursor is a position in a parsed translation unit's syntax tree. It is
// mutated in place by GotoFirstChild/GotoNextSibling/GotoParent, mirroring
// the libclang-style visitor the original C implementation walked — the
// cursor itself remembers the ancestors it descended through, so GotoParent
// can return to them; the driver keeps no ancestor stack of its own.
type Cursor interface {
	Kind() NodeKind
	Loc() Loc

	// Tag returns the direct tag name of a struct/union/enum specifier
	// ("foo" in `struct foo {...}`), or "" if the specifier is unnamed. For
	// a type referenced by name (a typedef name) it returns that name.
	Tag() string
	// DeclaratorName returns the name introduced by the declarator
	// immediately following this node — the typedef name for a NodeTypedef,
	// the variable name for a NodeDeclaration, or "" if there is none (e.g.
	// `struct foo { ... };` with no trailing declarator).
	DeclaratorName() string
	// FieldName returns the member name for a NodeFieldDeclaration, or ""
	// for a C11 anonymous struct/union member (no declarator at all).
	FieldName() string

	// SelfID returns the canonical id of the current node. Only meaningful
	// when Kind() is one of the record/union/enum specifier kinds; every
	// occurrence of the same declaration yields the same id within a TU.
	SelfID() CanonicalID
	// IsComplete reports whether the current struct/union/enum specifier is
	// a definition (has a body) rather than a forward declaration.
	IsComplete() bool

	// TypeCursor returns a cursor positioned at the type referenced by a
	// NodeTypedef, NodeFieldDeclaration, or NodeDeclaration — which may
	// itself be a (possibly anonymous) specifier, or some other node
	// (primitive, type reference by name) for which only Tag() is
	// meaningful. ok is false when the current node has no type field.
	TypeCursor() (t Cursor, ok bool)

	GotoFirstChild() bool
	GotoNextSibling() bool
	GotoParent() bool

	// Clone returns an independent copy of the cursor's current position,
	// so the driver can descend into a subtree without losing its place at
	// the current sibling.
	Clone() Cursor
}

// Parser produces a Cursor positioned at the translation-unit root of path's
// contents, plus the set of file paths whose contents are textually
// included.
type Parser interface {
	Parse(path string) (root Cursor, includes []string, err error)
}

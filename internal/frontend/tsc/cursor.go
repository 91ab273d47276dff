package tsc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cfinddev/cfind/internal/frontend"
)

// nodeID is a tree-sitter node's byte range, used as the structural stand-in
// for canonical type identity: the same specifier node always produces the
// same nodeID within a parse, and distinct specifier nodes never collide.
type nodeID struct{ start, end uint32 }

type frame struct {
	node *sitter.Node
	idx  int
}

// Cursor walks a tree-sitter C parse tree. It implements frontend.Cursor.
type Cursor struct {
	node  *sitter.Node
	src   []byte
	stack []frame
}

func newCursor(root *sitter.Node, src []byte) *Cursor {
	return &Cursor{node: root, src: src}
}

var _ frontend.Cursor = (*Cursor)(nil)

func (c *Cursor) Kind() frontend.NodeKind {
	switch c.node.Type() {
	case "struct_specifier":
		return frontend.NodeStructSpecifier
	case "union_specifier":
		return frontend.NodeUnionSpecifier
	case "enum_specifier":
		return frontend.NodeEnumSpecifier
	case "type_definition":
		return frontend.NodeTypedef
	case "field_declaration":
		return frontend.NodeFieldDeclaration
	case "declaration":
		return frontend.NodeDeclaration
	case "field_declaration_list":
		return frontend.NodeFieldList
	case "translation_unit":
		return frontend.NodeTranslationUnit
	default:
		return frontend.NodeOther
	}
}

func (c *Cursor) Loc() frontend.Loc {
	p := c.node.StartPoint()
	return frontend.Loc{Line: p.Row + 1, Column: p.Column + 1}
}

func (c *Cursor) content(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

// Tag returns the direct name of a struct/union/enum specifier, or "" if
// the specifier has no tag (`struct {...}`, only reachable via a declarator
// or typedef name instead). For a type referenced by a typedef name
// (`foo_t x;`) it returns that name; for any other node it returns "".
func (c *Cursor) Tag() string {
	switch c.node.Type() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		return c.content(c.node.ChildByFieldName("name"))
	case "type_identifier":
		return c.content(c.node)
	default:
		return ""
	}
}

// unwrapDeclarator descends through pointer/array/function declarator
// wrappers to the identifier at the bottom.
func unwrapDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "identifier", "type_identifier", "field_identifier":
			return n
		case "pointer_declarator", "array_declarator", "function_declarator",
			"parenthesized_declarator", "init_declarator":
			inner := n.ChildByFieldName("declarator")
			if inner == nil {
				return nil
			}
			n = inner
		default:
			return nil
		}
	}
	return nil
}

func (c *Cursor) DeclaratorName() string {
	switch c.node.Type() {
	case "type_definition", "declaration":
		return c.content(unwrapDeclarator(c.node.ChildByFieldName("declarator")))
	default:
		return ""
	}
}

func (c *Cursor) FieldName() string {
	if c.node.Type() != "field_declaration" {
		return ""
	}
	return c.content(unwrapDeclarator(c.node.ChildByFieldName("declarator")))
}

func (c *Cursor) SelfID() frontend.CanonicalID {
	return nodeID{start: c.node.StartByte(), end: c.node.EndByte()}
}

func (c *Cursor) IsComplete() bool {
	switch c.node.Type() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		return c.node.ChildByFieldName("body") != nil
	default:
		return false
	}
}

func (c *Cursor) TypeCursor() (frontend.Cursor, bool) {
	var typeField *sitter.Node
	switch c.node.Type() {
	case "type_definition", "field_declaration", "declaration":
		typeField = c.node.ChildByFieldName("type")
	}
	if typeField == nil {
		return nil, false
	}
	return &Cursor{node: typeField, src: c.src}, true
}

func (c *Cursor) GotoFirstChild() bool {
	if c.node.NamedChildCount() == 0 {
		return false
	}
	child := c.node.NamedChild(0)
	c.stack = append(c.stack, frame{node: c.node, idx: 0})
	c.node = child
	return true
}

func (c *Cursor) GotoNextSibling() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := &c.stack[len(c.stack)-1]
	next := top.idx + 1
	if next >= int(top.node.NamedChildCount()) {
		return false
	}
	top.idx = next
	c.node = top.node.NamedChild(next)
	return true
}

func (c *Cursor) GotoParent() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.node = top.node
	return true
}

func (c *Cursor) Clone() frontend.Cursor {
	return &Cursor{
		node:  c.node,
		src:   c.src,
		stack: append([]frame(nil), c.stack...),
	}
}

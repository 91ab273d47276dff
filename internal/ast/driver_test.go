package ast

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfinddev/cfind/internal/frontend"
	"github.com/cfinddev/cfind/internal/store"
)

// fakeNode and fakeCursor are a minimal, hand-built frontend.Cursor
// implementation used to exercise the driver's dispatch logic without
// depending on a real tree-sitter parse — each test builds the small tree
// shape of one spec scenario directly.
type fakeNode struct {
	kind      frontend.NodeKind
	tag       string
	declName  string
	fieldName string
	self      frontend.CanonicalID
	complete  bool
	typeField *fakeNode
	children  []*fakeNode
}

type fakeFrame struct {
	node *fakeNode
	idx  int
}

type fakeCursor struct {
	node  *fakeNode
	stack []fakeFrame
}

func (c *fakeCursor) Kind() frontend.NodeKind { return c.node.kind }
func (c *fakeCursor) Loc() frontend.Loc       { return frontend.Loc{Line: 1, Column: 1} }
func (c *fakeCursor) Tag() string             { return c.node.tag }
func (c *fakeCursor) DeclaratorName() string  { return c.node.declName }
func (c *fakeCursor) FieldName() string       { return c.node.fieldName }
func (c *fakeCursor) SelfID() frontend.CanonicalID { return c.node.self }
func (c *fakeCursor) IsComplete() bool        { return c.node.complete }

func (c *fakeCursor) TypeCursor() (frontend.Cursor, bool) {
	if c.node.typeField == nil {
		return nil, false
	}
	return &fakeCursor{node: c.node.typeField}, true
}

func (c *fakeCursor) GotoFirstChild() bool {
	if len(c.node.children) == 0 {
		return false
	}
	c.stack = append(c.stack, fakeFrame{node: c.node, idx: 0})
	c.node = c.node.children[0]
	return true
}

func (c *fakeCursor) GotoNextSibling() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := &c.stack[len(c.stack)-1]
	next := top.idx + 1
	if next >= len(top.node.children) {
		return false
	}
	top.idx = next
	c.node = top.node.children[next]
	return true
}

func (c *fakeCursor) GotoParent() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.node = top.node
	return true
}

func (c *fakeCursor) Clone() frontend.Cursor {
	return &fakeCursor{node: c.node, stack: append([]fakeFrame(nil), c.stack...)}
}

type fakeParser struct {
	root     *fakeNode
	includes []string
}

func (p *fakeParser) Parse(path string) (frontend.Cursor, []string, error) {
	return &fakeCursor{node: p.root}, p.includes, nil
}

func fieldList(fields ...*fakeNode) *fakeNode {
	return &fakeNode{kind: frontend.NodeFieldList, children: fields}
}

func field(name string, typeField *fakeNode) *fakeNode {
	return &fakeNode{kind: frontend.NodeFieldDeclaration, fieldName: name, typeField: typeField}
}

func primitive() *fakeNode {
	return &fakeNode{kind: frontend.NodeOther}
}

func structSpecifier(selfID, tag string, complete bool, body *fakeNode) *fakeNode {
	n := &fakeNode{kind: frontend.NodeStructSpecifier, self: fakeID(selfID), tag: tag, complete: complete}
	if body != nil {
		n.children = []*fakeNode{body}
	}
	return n
}

func fakeID(s string) frontend.CanonicalID { return s }

func newDriver(st *store.Store, root *fakeNode, includes ...string) *Driver {
	return New(st, &fakeParser{root: root, includes: includes}, slog.Default())
}

// S1: `struct foo { int a; };` — one type row, one direct typename.
func TestIndexTranslationUnit_DirectNamedStruct(t *testing.T) {
	body := fieldList(field("a", primitive()))
	spec := structSpecifier("foo", "foo", true, body)
	decl := &fakeNode{kind: frontend.NodeDeclaration, typeField: spec}
	tu := &fakeNode{kind: frontend.NodeTranslationUnit, children: []*fakeNode{decl}}

	st := store.NewMemoryStore()
	d := newDriver(st, tu)
	require.NoError(t, d.IndexTranslationUnit(context.Background(), "a.c"))

	fileRef, err := st.AddFile("a.c")
	require.NoError(t, err)

	tn, err := st.TypenameLookup(fileRef, "foo")
	require.NoError(t, err)
	assert.Equal(t, store.TypenameKindDirect, tn.Kind)

	typ, err := st.TypeLookup(tn.BaseType)
	require.NoError(t, err)
	assert.Equal(t, store.TypeKindStruct, typ.Kind)

	members, err := st.MemberLookup(tn.BaseType, "a")
	require.NoError(t, err)
	require.Len(t, members, 1)
}

// S2: `typedef struct { int x; } T;` — one type row, one typedef typename,
// no direct-name row.
func TestIndexTranslationUnit_TypedefOfUnnamedStruct(t *testing.T) {
	body := fieldList(field("x", primitive()))
	spec := structSpecifier("anon", "", true, body)
	decl := &fakeNode{kind: frontend.NodeTypedef, typeField: spec, declName: "T"}
	tu := &fakeNode{kind: frontend.NodeTranslationUnit, children: []*fakeNode{decl}}

	st := store.NewMemoryStore()
	d := newDriver(st, tu)
	require.NoError(t, d.IndexTranslationUnit(context.Background(), "a.c"))

	fileRef, _ := st.AddFile("a.c")
	tn, err := st.TypenameLookup(fileRef, "T")
	require.NoError(t, err)
	assert.Equal(t, store.TypenameKindTypedef, tn.Kind)

	_, err = st.TypenameLookup(fileRef, "anon")
	assert.Error(t, err)
}

// S3: `struct A { struct { int i; int j; } ; int k; };` — A gets three
// member rows (i, j, k); the anonymous nested struct gets no typename row.
func TestIndexTranslationUnit_AnonymousMemberPromotion(t *testing.T) {
	nestedBody := fieldList(field("i", primitive()), field("j", primitive()))
	nested := structSpecifier("nested", "", true, nestedBody)
	anonField := field("", nested) // no declarator: C11 anonymous member

	outerBody := fieldList(anonField, field("k", primitive()))
	outer := structSpecifier("A", "A", true, outerBody)
	decl := &fakeNode{kind: frontend.NodeDeclaration, typeField: outer}
	tu := &fakeNode{kind: frontend.NodeTranslationUnit, children: []*fakeNode{decl}}

	st := store.NewMemoryStore()
	d := newDriver(st, tu)
	require.NoError(t, d.IndexTranslationUnit(context.Background(), "a.c"))

	fileRef, _ := st.AddFile("a.c")
	tn, err := st.TypenameLookup(fileRef, "A")
	require.NoError(t, err)

	for _, name := range []string{"i", "j", "k"} {
		members, err := st.MemberLookup(tn.BaseType, name)
		require.NoError(t, err)
		require.Lenf(t, members, 1, "expected exactly one member named %q on A", name)
		assert.Equal(t, tn.BaseType, members[0].Parent)
	}
}

// S4: `struct A { struct { int x; } inst; };` — two type rows; the nested
// record gets a var-kind typename "inst"; member x's parent is the nested
// record, not A.
func TestIndexTranslationUnit_NamedInstanceOfUnnamedStruct(t *testing.T) {
	nestedBody := fieldList(field("x", primitive()))
	nested := structSpecifier("nested", "", true, nestedBody)
	instField := field("inst", nested)

	outerBody := fieldList(instField)
	outer := structSpecifier("A", "A", true, outerBody)
	decl := &fakeNode{kind: frontend.NodeDeclaration, typeField: outer}
	tu := &fakeNode{kind: frontend.NodeTranslationUnit, children: []*fakeNode{decl}}

	st := store.NewMemoryStore()
	d := newDriver(st, tu)
	require.NoError(t, d.IndexTranslationUnit(context.Background(), "a.c"))

	fileRef, _ := st.AddFile("a.c")
	aName, err := st.TypenameLookup(fileRef, "A")
	require.NoError(t, err)
	instName, err := st.TypenameLookup(fileRef, "inst")
	require.NoError(t, err)

	assert.NotEqual(t, aName.BaseType, instName.BaseType)
	assert.Equal(t, store.TypenameKindVar, instName.Kind)

	members, err := st.MemberLookup(aName.BaseType, "inst")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, instName.BaseType, members[0].BaseType)

	members, err = st.MemberLookup(instName.BaseType, "x")
	require.NoError(t, err)
	require.Len(t, members, 1)
}

// S6: `struct foo; struct foo { int a; int b; };` — the forward declaration
// is never indexable (no body), so only the complete definition produces a
// row.
func TestIndexTranslationUnit_ForwardDeclarationIgnored(t *testing.T) {
	forward := structSpecifier("foo-fwd", "foo", false, nil)
	forwardDecl := &fakeNode{kind: frontend.NodeDeclaration, typeField: forward}

	body := fieldList(field("a", primitive()), field("b", primitive()))
	complete := structSpecifier("foo-complete", "foo", true, body)
	completeDecl := &fakeNode{kind: frontend.NodeDeclaration, typeField: complete}

	tu := &fakeNode{kind: frontend.NodeTranslationUnit, children: []*fakeNode{forwardDecl, completeDecl}}

	st := store.NewMemoryStore()
	d := newDriver(st, tu)
	require.NoError(t, d.IndexTranslationUnit(context.Background(), "a.c"))

	fileRef, _ := st.AddFile("a.c")
	tn, err := st.TypenameLookup(fileRef, "foo")
	require.NoError(t, err)

	members, err := st.MemberLookup(tn.BaseType, "a")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

// `struct foo { int a; }; typedef struct foo Bar;` — the second declaration's
// type field is an incomplete struct_specifier (no body) naming a tag
// already defined earlier in the TU. This must resolve to a typedef-kind
// typename referencing the existing type, not be discarded as a forward
// declaration.
func TestIndexTranslationUnit_TypedefOfAlreadyKnownTag(t *testing.T) {
	body := fieldList(field("a", primitive()))
	complete := structSpecifier("foo-complete", "foo", true, body)
	completeDecl := &fakeNode{kind: frontend.NodeDeclaration, typeField: complete}

	ref := structSpecifier("foo-ref", "foo", false, nil)
	typedefDecl := &fakeNode{kind: frontend.NodeTypedef, typeField: ref, declName: "Bar"}

	tu := &fakeNode{kind: frontend.NodeTranslationUnit, children: []*fakeNode{completeDecl, typedefDecl}}

	st := store.NewMemoryStore()
	d := newDriver(st, tu)
	require.NoError(t, d.IndexTranslationUnit(context.Background(), "a.c"))

	fileRef, _ := st.AddFile("a.c")
	fooName, err := st.TypenameLookup(fileRef, "foo")
	require.NoError(t, err)

	barName, err := st.TypenameLookup(fileRef, "Bar")
	require.NoError(t, err)
	assert.Equal(t, store.TypenameKindTypedef, barName.Kind)
	assert.Equal(t, fooName.BaseType, barName.BaseType)
}

// `struct A { struct foo f; };` where struct foo was defined earlier in the
// TU — a member whose type is an incomplete specifier naming a known tag
// must resolve as a member, not be dropped.
func TestIndexTranslationUnit_MemberOfAlreadyKnownTag(t *testing.T) {
	fooBody := fieldList(field("a", primitive()))
	fooSpec := structSpecifier("foo-complete", "foo", true, fooBody)
	fooDecl := &fakeNode{kind: frontend.NodeDeclaration, typeField: fooSpec}

	fooRef := structSpecifier("foo-ref", "foo", false, nil)
	aBody := fieldList(field("f", fooRef))
	aSpec := structSpecifier("A", "A", true, aBody)
	aDecl := &fakeNode{kind: frontend.NodeDeclaration, typeField: aSpec}

	tu := &fakeNode{kind: frontend.NodeTranslationUnit, children: []*fakeNode{fooDecl, aDecl}}

	st := store.NewMemoryStore()
	d := newDriver(st, tu)
	require.NoError(t, d.IndexTranslationUnit(context.Background(), "a.c"))

	fileRef, _ := st.AddFile("a.c")
	fooName, err := st.TypenameLookup(fileRef, "foo")
	require.NoError(t, err)
	aName, err := st.TypenameLookup(fileRef, "A")
	require.NoError(t, err)

	members, err := st.MemberLookup(aName.BaseType, "f")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, fooName.BaseType, members[0].BaseType)
}

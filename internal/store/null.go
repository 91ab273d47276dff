package store

import "fmt"

// nullBackend discards every write and answers every point lookup with
// ErrNotFound; MemberLookup returns no members and a nil error, and
// TypenameFind returns a cursor that yields no rows. It still fabricates monotonically increasing handles for
// inserts so callers that thread a returned ref through further calls (e.g.
// the scoreboard inserting members against a just-inserted type) don't
// panic on a zero value.
type nullBackend struct {
	nextFile int64
	nextType int64
	nextMem  int64
}

func newNullBackend() *nullBackend { return &nullBackend{} }

func (n *nullBackend) Close() error { return nil }

func (n *nullBackend) AddFile(path string) (FileRef, error) {
	n.nextFile++
	return FileRefOf(n.nextFile), nil
}

func (n *nullBackend) FileLookup(ref FileRef) (File, error) {
	return File{}, fmt.Errorf("%w: file %d", ErrNotFound, ref.Int64())
}

func (n *nullBackend) TypeInsert(t Type) (TypeRef, error) {
	n.nextType++
	return TypeRefOf(n.nextType), nil
}

func (n *nullBackend) TypeLookup(ref TypeRef) (Type, error) {
	return Type{}, fmt.Errorf("%w: type %d", ErrNotFound, ref.Int64())
}

func (n *nullBackend) TypenameLookup(file FileRef, name string) (Typename, error) {
	return Typename{}, fmt.Errorf("%w: typename %q", ErrNotFound, name)
}

func (n *nullBackend) TypenameInsert(tn Typename) error { return nil }

func (n *nullBackend) TypenameFind(name string) (TypenameCursor, error) {
	return &emptyCursor{}, nil
}

func (n *nullBackend) MemberInsert(m Member) (int64, error) {
	n.nextMem++
	return n.nextMem, nil
}

func (n *nullBackend) MemberLookup(parent TypeRef, name string) ([]Member, error) {
	return nil, nil
}

func (n *nullBackend) TypeUseInsert(u TypeUse) error { return nil }

// emptyCursor is a TypenameCursor that never yields a row.
type emptyCursor struct{}

func (c *emptyCursor) Next() bool     { return false }
func (c *emptyCursor) Peek() Typename { return Typename{} }
func (c *emptyCursor) Err() error     { return nil }
func (c *emptyCursor) Free()          {}

var _ Backend = (*nullBackend)(nil)

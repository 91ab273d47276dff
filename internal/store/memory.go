package store

import "fmt"

// memoryBackend stores every table as a parallel append-only slice, indexed
// 1-based so that index 0 can serve as the shared "absent" zero value for
// FileRef and TypeRef. There is no deletion and no persistence; it exists
// for tests and small one-shot runs.
type memoryBackend struct {
	files     []File
	types     []Type
	typenames []Typename
	members   []Member
	typeUses  []TypeUse
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{}
}

func (m *memoryBackend) Close() error { return nil }

func (m *memoryBackend) AddFile(path string) (FileRef, error) {
	for i := range m.files {
		if m.files[i].Path == path {
			return m.files[i].ID, nil
		}
	}
	ref := FileRefOf(int64(len(m.files) + 1))
	m.files = append(m.files, File{ID: ref, Path: path})
	return ref, nil
}

func (m *memoryBackend) FileLookup(ref FileRef) (File, error) {
	idx := ref.Int64() - 1
	if idx < 0 || idx >= int64(len(m.files)) {
		return File{}, fmt.Errorf("%w: file %d", ErrNotFound, ref.Int64())
	}
	return m.files[idx], nil
}

func (m *memoryBackend) TypeInsert(t Type) (TypeRef, error) {
	ref := TypeRefOf(int64(len(m.types) + 1))
	t.ID = ref
	m.types = append(m.types, t)
	return ref, nil
}

func (m *memoryBackend) TypeLookup(ref TypeRef) (Type, error) {
	idx := ref.Int64() - 1
	if idx < 0 || idx >= int64(len(m.types)) {
		return Type{}, fmt.Errorf("%w: type %d", ErrNotFound, ref.Int64())
	}
	return m.types[idx], nil
}

func (m *memoryBackend) TypenameLookup(file FileRef, name string) (Typename, error) {
	for i := range m.typenames {
		tn := m.typenames[i]
		if tn.Loc.File == file && tn.Loc.Scope == ScopeGlobal && tn.Name == name {
			return tn, nil
		}
	}
	return Typename{}, fmt.Errorf("%w: typename %q", ErrNotFound, name)
}

func (m *memoryBackend) TypenameInsert(tn Typename) error {
	m.typenames = append(m.typenames, tn)
	return nil
}

func (m *memoryBackend) TypenameFind(name string) (TypenameCursor, error) {
	var rows []Typename
	for i := range m.typenames {
		if m.typenames[i].Name == name {
			rows = append(rows, m.typenames[i])
		}
	}
	return &sliceCursor{rows: rows, idx: -1}, nil
}

func (m *memoryBackend) MemberInsert(member Member) (int64, error) {
	member.ID = int64(len(m.members) + 1)
	m.members = append(m.members, member)
	return member.ID, nil
}

func (m *memoryBackend) MemberLookup(parent TypeRef, name string) ([]Member, error) {
	var out []Member
	for i := range m.members {
		if m.members[i].Parent == parent && m.members[i].Name == name {
			out = append(out, m.members[i])
		}
	}
	return out, nil
}

func (m *memoryBackend) TypeUseInsert(u TypeUse) error {
	m.typeUses = append(m.typeUses, u)
	return nil
}

// sliceCursor is a TypenameCursor over a materialized slice of rows. Since
// the in-memory backend has no live query to borrow from, every row it
// yields is already independent of the backend's own storage — Peek still
// returns through the Typename.Name string field directly rather than a
// Borrowed copy, since Go strings are themselves immutable and safe to
// retain regardless.
type sliceCursor struct {
	rows []Typename
	idx  int
}

func (c *sliceCursor) Next() bool {
	if c.idx+1 >= len(c.rows) {
		return false
	}
	c.idx++
	return true
}

func (c *sliceCursor) Peek() Typename {
	if c.idx < 0 || c.idx >= len(c.rows) {
		return Typename{}
	}
	return c.rows[c.idx]
}

func (c *sliceCursor) Err() error { return nil }
func (c *sliceCursor) Free()      { c.rows = nil }

var _ Backend = (*memoryBackend)(nil)

// Package store implements the persistence layer for indexed C type
// information: a small entity model (file, type, typename, member, type
// use) and three interchangeable backends (null, in-memory, SQLite) behind
// a single non-polymorphic facade, Store.
package store

// Store is the facade every caller uses. It forwards to whichever Backend
// was selected at construction — callers never see nullBackend,
// memoryBackend or sqlBackend directly.
type Store struct {
	b Backend
}

// NewNullStore returns a Store that discards everything written to it and
// answers every point lookup with ErrNotFound (MemberLookup and TypenameFind
// simply find nothing). Useful for dry runs and benchmarking
// the front end in isolation from storage.
func NewNullStore() *Store {
	return &Store{b: newNullBackend()}
}

// NewMemoryStore returns a Store backed by parallel in-memory slices. There
// is no persistence and no deletion; it exists for tests and small one-shot
// runs where spinning up SQLite isn't worth it.
func NewMemoryStore() *Store {
	return &Store{b: newMemoryBackend()}
}

// NewSQLStore opens (creating if necessary) a SQLite database at path and
// returns a Store backed by it. readonly rejects every modifying call with
// ErrReadonly without touching the database.
func NewSQLStore(path string, readonly bool) (*Store, error) {
	b, err := newSQLBackend(path, readonly)
	if err != nil {
		return nil, err
	}
	return &Store{b: b}, nil
}

func (s *Store) Close() error { return s.b.Close() }

func (s *Store) AddFile(path string) (FileRef, error)    { return s.b.AddFile(path) }
func (s *Store) FileLookup(ref FileRef) (File, error)     { return s.b.FileLookup(ref) }
func (s *Store) TypeInsert(t Type) (TypeRef, error)       { return s.b.TypeInsert(t) }
func (s *Store) TypeLookup(ref TypeRef) (Type, error)     { return s.b.TypeLookup(ref) }
func (s *Store) TypenameInsert(tn Typename) error         { return s.b.TypenameInsert(tn) }
func (s *Store) MemberInsert(m Member) (int64, error)     { return s.b.MemberInsert(m) }
func (s *Store) TypeUseInsert(u TypeUse) error            { return s.b.TypeUseInsert(u) }

func (s *Store) TypenameLookup(file FileRef, name string) (Typename, error) {
	return s.b.TypenameLookup(file, name)
}

func (s *Store) MemberLookup(parent TypeRef, name string) ([]Member, error) {
	return s.b.MemberLookup(parent, name)
}

// TypenameFind returns a cursor over every typename byte-exactly matching
// name. The caller must Free it.
func (s *Store) TypenameFind(name string) (TypenameCursor, error) {
	return s.b.TypenameFind(name)
}

package store

// TypenameCursor iterates the rows matched by a TypenameFind call. It is a
// scoped borrow: Peek returns the current row as a Typename value (its Name
// is a plain Go string, not a Borrowed one), only meaningful until the next
// call to Next or to Free, and a cursor must be
// freed (or exhausted) before the owning Store is closed. A cursor must
// never be held open across a call that mutates the store.
type TypenameCursor interface {
	// Next advances the cursor. It returns false once exhausted or on
	// error; call Err to distinguish the two.
	Next() bool
	// Peek returns the row the cursor currently sits on. Only valid after
	// a call to Next returned true and before the next call to Next.
	Peek() Typename
	// Err returns the first error encountered by Next, if any.
	Err() error
	// Free releases the cursor's resources. Safe to call more than once.
	Free()
}

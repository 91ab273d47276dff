package query

import (
	"fmt"
	"io"

	"github.com/cfinddev/cfind/internal/store"
)

// fileName resolves loc.File to a printable path, falling back to "<none>"
// for the zero FileRef (matching the original's default for an unresolved
// location).
func fileName(st *store.Store, ref store.FileRef) string {
	if !ref.Valid() {
		return "<none>"
	}
	f, err := st.FileLookup(ref)
	if err != nil {
		return "<none>"
	}
	return f.Path
}

// WriteResult prints res (as returned by Execute) in the CLI's line format.
func WriteResult(w io.Writer, st *store.Store, res any) error {
	switch v := res.(type) {
	case TypeResult:
		_, err := fmt.Fprintf(w, "%d %s at %s:%d:%d\n",
			v.ID.Int64(), v.Type.Kind, fileName(st, v.Type.Loc.File),
			v.Type.Loc.Line, v.Type.Loc.Column)
		return err

	case []store.Typename:
		for _, tn := range v {
			if _, err := fmt.Fprintf(w, "%d '%s' at %s:%d:%d\n",
				tn.BaseType.Int64(), tn.Name, fileName(st, tn.Loc.File),
				tn.Loc.Line, tn.Loc.Column); err != nil {
				return err
			}
		}
		return nil

	case MemberResult:
		_, err := fmt.Fprintf(w, "%d.'%s', type %d, at %s:%d:%d\n",
			v.Parent.Int64(), v.Member.Name, v.Member.BaseType.Int64(),
			fileName(st, v.Member.Loc.File), v.Member.Loc.Line, v.Member.Loc.Column)
		return err

	default:
		return fmt.Errorf("query: unrecognized result type %T", res)
	}
}

// WriteCandidates prints an ambiguous-match listing the same way the
// original CLI does when a typedecl/memberdecl search can't settle on one
// type: reuse the typename listing format.
func WriteCandidates(w io.Writer, st *store.Store, rows []store.Typename) error {
	return WriteResult(w, st, rows)
}

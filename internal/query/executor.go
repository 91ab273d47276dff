package query

import (
	"errors"
	"fmt"

	"github.com/cfinddev/cfind/internal/store"
)

// ErrAmbiguous is returned when a name resolves to more than one distinct
// type. Callers that want the "ambiguous" + listing behavior should follow
// up with Candidates.
var ErrAmbiguous = errors.New("query: ambiguous name")

// TypeResult is one resolved type declaration.
type TypeResult struct {
	ID   store.TypeRef
	Type store.Type
}

// MemberResult is one resolved member declaration.
type MemberResult struct {
	Parent store.TypeRef
	Member store.Member
}

// Execute resolves cmd against st and returns either a TypeResult,
// []store.Typename (VerbTypename), or MemberResult, selected by cmd.Verb.
func Execute(st *store.Store, cmd Command) (any, error) {
	switch cmd.Verb {
	case VerbTypeDecl:
		ref, err := resolveTypeSpec(st, cmd.Type)
		if err != nil {
			return nil, err
		}
		t, err := st.TypeLookup(ref)
		if err != nil {
			return nil, fmt.Errorf("query: type %d: %w", ref.Int64(), err)
		}
		return TypeResult{ID: ref, Type: t}, nil

	case VerbTypename:
		return Candidates(st, cmd.Typename)

	case VerbMemberDecl:
		parentRef, err := resolveTypeSpec(st, cmd.Member.Base)
		if err != nil {
			return nil, err
		}
		members, err := st.MemberLookup(parentRef, cmd.Member.Name)
		if err != nil {
			return nil, fmt.Errorf("query: member %q: %w", cmd.Member.Name, err)
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("query: member %q of type %d: %w", cmd.Member.Name, parentRef.Int64(), store.ErrNotFound)
		}
		return MemberResult{Parent: parentRef, Member: members[0]}, nil

	default:
		return nil, fmt.Errorf("%w: unknown verb %v", store.ErrInvalidArgument, cmd.Verb)
	}
}

// resolveTypeSpec resolves a TypeSpec to a single TypeRef: direct if the
// spec names an id, otherwise a name-driven search that errors with
// ErrAmbiguous when the typenames matching the name resolve to more than
// one type.
func resolveTypeSpec(st *store.Store, spec TypeSpec) (store.TypeRef, error) {
	if spec.IsID {
		return store.TypeRefOf(spec.ID), nil
	}
	if spec.Name.Elab != 0 {
		return findElabType(st, spec.Name)
	}
	return findOneType(st, spec.Name)
}

// findOneType resolves an unelaborated name: every typename matching must
// reference the same type, or the search is ambiguous.
func findOneType(st *store.Store, name NameSpec) (store.TypeRef, error) {
	cur, err := st.TypenameFind(name.Name)
	if err != nil {
		return store.TypeRef{}, fmt.Errorf("query: searching typename %q: %w", name.Name, err)
	}
	defer cur.Free()

	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return store.TypeRef{}, err
		}
		return store.TypeRef{}, fmt.Errorf("query: no type named %q: %w", name.Name, store.ErrNotFound)
	}

	id := cur.Peek().BaseType
	for cur.Next() {
		if cur.Peek().BaseType != id {
			return store.TypeRef{}, fmt.Errorf("query: name %q: %w", name.Name, ErrAmbiguous)
		}
	}
	if err := cur.Err(); err != nil {
		return store.TypeRef{}, err
	}
	return id, nil
}

// findElabType resolves an elaborated name ("struct foo"): only direct
// typenames (the struct/union/enum's own tag) are considered, and the
// resolved type's kind must match the elaboration keyword.
func findElabType(st *store.Store, name NameSpec) (store.TypeRef, error) {
	cur, err := st.TypenameFind(name.Name)
	if err != nil {
		return store.TypeRef{}, fmt.Errorf("query: searching typename %q: %w", name.Name, err)
	}
	defer cur.Free()

	var id store.TypeRef
	found := false

	for cur.Next() {
		entry := cur.Peek()
		if entry.Kind != store.TypenameKindDirect {
			continue
		}
		t, err := st.TypeLookup(entry.BaseType)
		if err != nil {
			return store.TypeRef{}, fmt.Errorf("query: resolving %q: %w", name.Name, store.ErrCorrupt)
		}
		if t.Kind != name.Elab {
			continue
		}
		if !found {
			id = entry.BaseType
			found = true
			continue
		}
		if entry.BaseType != id {
			return store.TypeRef{}, fmt.Errorf("query: name %q: %w", name, ErrAmbiguous)
		}
	}
	if err := cur.Err(); err != nil {
		return store.TypeRef{}, err
	}
	if !found {
		return store.TypeRef{}, fmt.Errorf("query: no %s named %q: %w", name.Elab, name.Name, store.ErrNotFound)
	}
	return id, nil
}

// Candidates returns every typename row matching name, for the "typename"
// command and for printing ambiguous-match listings.
func Candidates(st *store.Store, name NameSpec) ([]store.Typename, error) {
	cur, err := st.TypenameFind(name.Name)
	if err != nil {
		return nil, fmt.Errorf("query: searching typename %q: %w", name.Name, err)
	}
	defer cur.Free()

	var out []store.Typename
	for cur.Next() {
		out = append(out, cur.Peek())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

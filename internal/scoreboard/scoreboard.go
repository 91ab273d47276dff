// Package scoreboard stages the database entries produced while walking one
// struct/union/enum declaration and its children, then commits them as a
// unit. A composite type's sub-AST cannot be inserted incrementally: an
// anonymous outer record that turns out to have no name at all must vanish
// along with everything staged beneath it, and a database transaction
// doesn't help because entries to keep and entries to discard are
// interleaved as the AST is walked. Scoreboard collects everything into a
// scratch area first, decides what to keep once the walk reaches a name (or
// the end of the declaration), and commits in one pass.
package scoreboard

import (
	"errors"
	"fmt"

	"github.com/cfinddev/cfind/internal/frontend"
	"github.com/cfinddev/cfind/internal/store"
)

// stagedType is one new composite type discovered while walking the current
// declaration. Index 0 is always the top-level (primary) record; later
// entries are nested records reached while walking its members.
type stagedType struct {
	id   frontend.CanonicalID
	typ  store.Type
	name store.Typename // valid only once named
	named bool
}

type stagedMember struct {
	parent frontend.CanonicalID
	base   frontend.CanonicalID // nil base means "primitive, no type row"
	member store.Member
}

// resolvedMember is a member whose base type reference was already resolved
// against the persistent store at staging time (a named reference to a type
// declared elsewhere in the TU), rather than against the scratch/TU
// canonical-id maps at commit time.
type resolvedMember struct {
	parent frontend.CanonicalID
	member store.Member
}

type stagedTypeUse struct {
	where frontend.CanonicalID
	base  frontend.CanonicalID
	use   store.TypeUse
}

// Scoreboard accumulates the staged entries for one top-level composite
// declaration. It is reset (with capacity retained) after each commit.
type Scoreboard struct {
	newTypes  []stagedType
	unnamed   map[frontend.CanonicalID]int // id -> index into newTypes, awaiting a name
	members   []stagedMember
	resolvedMembers []resolvedMember
	typeUses  []stagedTypeUse
}

// New returns an empty Scoreboard.
func New() *Scoreboard {
	return &Scoreboard{unnamed: make(map[frontend.CanonicalID]int)}
}

// Active reports whether a declaration is currently being staged.
func (s *Scoreboard) Active() bool { return len(s.newTypes) > 0 }

// StageType records a newly discovered struct/union/enum. The first call
// after a reset becomes the primary record. Every staged record starts
// unnamed until AttachName is called with its id.
func (s *Scoreboard) StageType(id frontend.CanonicalID, t store.Type) {
	s.newTypes = append(s.newTypes, stagedType{id: id, typ: t})
	s.unnamed[id] = len(s.newTypes) - 1
}

// IsUnnamed reports whether id was staged but has not yet received a name.
func (s *Scoreboard) IsUnnamed(id frontend.CanonicalID) bool {
	_, ok := s.unnamed[id]
	return ok
}

// AttachName attaches a name to a staged record that doesn't yet have one —
// either the awaiting-declarator case (`typedef struct {} foo_t;`,
// `struct {} foo;`, a member field `struct {} foo;`) or the direct-tag case
// (`struct foo {};`) discovered at StageType time.
func (s *Scoreboard) AttachName(id frontend.CanonicalID, kind store.TypenameKind, name string, loc store.Loc) {
	idx, ok := s.unnamed[id]
	if !ok {
		panic("scoreboard: AttachName on an already-named record")
	}
	entry := &s.newTypes[idx]
	entry.name = store.Typename{Name: name, Kind: kind, Loc: loc}
	entry.named = true
	delete(s.unnamed, id)
}

// StageMember records a field of parent. base is nil for a primitive field
// (no type row to reference).
func (s *Scoreboard) StageMember(parent, base frontend.CanonicalID, m store.Member) {
	s.members = append(s.members, stagedMember{parent: parent, base: base, member: m})
}

// StageResolvedMember records a field whose base type was already resolved
// to a persistent TypeRef (a reference to a composite declared earlier,
// looked up by tag name rather than by canonical id) — the same "resolve by
// name, not by AST identity" fallback a typedef of a known tag uses.
func (s *Scoreboard) StageResolvedMember(parent frontend.CanonicalID, base store.TypeRef, m store.Member) {
	m.BaseType = base
	s.resolvedMembers = append(s.resolvedMembers, resolvedMember{parent: parent, member: m})
}

// StageTypeUse records a miscellaneous type use occurring lexically within
// where's declaration (e.g. a sizeof inside a nested member's initializer).
func (s *Scoreboard) StageTypeUse(where, base frontend.CanonicalID, u store.TypeUse) {
	s.typeUses = append(s.typeUses, stagedTypeUse{where: where, base: base, use: u})
}

// Reset clears staged state, retaining the slices' capacity for reuse by the
// next declaration.
func (s *Scoreboard) Reset() {
	s.newTypes = s.newTypes[:0]
	s.members = s.members[:0]
	s.resolvedMembers = s.resolvedMembers[:0]
	s.typeUses = s.typeUses[:0]
	for k := range s.unnamed {
		delete(s.unnamed, k)
	}
}

// Commit performs the five-step commit protocol: insert every named new
// type (skipping any still-unnamed record, which is discarded along with
// everything staged beneath it), translate and insert every member and type
// use whose type references resolve against either the scratch map built
// this commit or tuTypes (the driver's persistent, TU-wide canonical-type
// map), and finally merge the scratch map into tuTypes. tuTypes is mutated
// in place only on entries that succeed; Commit never removes a prior entry.
func (s *Scoreboard) Commit(st *store.Store, tuTypes map[frontend.CanonicalID]store.TypeRef) error {
	scratch := make(map[frontend.CanonicalID]store.TypeRef, len(s.newTypes))

	for _, nt := range s.newTypes {
		if !nt.named {
			continue // truly anonymous; discarded along with its members/uses below
		}
		if err := commitOneType(st, nt, tuTypes, scratch); err != nil {
			return fmt.Errorf("scoreboard: committing type: %w", err)
		}
	}

	for _, sm := range s.members {
		parentRef, ok := scratch[sm.parent]
		if !ok {
			continue // parent wasn't newly committed (unnamed or a bug) — drop
		}
		baseRef, ok := translateBase(sm.base, tuTypes, scratch)
		if !ok {
			continue // no db entry for the member's base type — drop
		}
		sm.member.Parent = parentRef
		sm.member.BaseType = baseRef
		if _, err := st.MemberInsert(sm.member); err != nil {
			return fmt.Errorf("scoreboard: committing member %q: %w", sm.member.Name, err)
		}
	}

	for _, rm := range s.resolvedMembers {
		parentRef, ok := scratch[rm.parent]
		if !ok {
			continue
		}
		rm.member.Parent = parentRef
		if _, err := st.MemberInsert(rm.member); err != nil {
			return fmt.Errorf("scoreboard: committing member %q: %w", rm.member.Name, err)
		}
	}

	for _, su := range s.typeUses {
		if _, ok := scratch[su.where]; !ok {
			continue // use occurs within a record that wasn't newly committed
		}
		baseRef, ok := translateBase(su.base, scratch, tuTypes)
		if !ok {
			continue
		}
		su.use.BaseType = baseRef
		if err := st.TypeUseInsert(su.use); err != nil {
			return fmt.Errorf("scoreboard: committing type use: %w", err)
		}
	}

	for id, ref := range scratch {
		tuTypes[id] = ref
	}
	return nil
}

// commitOneType looks up nt's name in the store first — if it already
// exists (indexed by an earlier file or TU), nt.id maps to that existing
// type in tuTypes directly, no new row is written. Otherwise a new type row
// and its primary typename row are inserted, and the mapping lands in
// scratch so member/type-use translation in this same commit can see it.
func commitOneType(st *store.Store, nt stagedType, tuTypes, scratch map[frontend.CanonicalID]store.TypeRef) error {
	existing, err := st.TypenameLookup(nt.typ.Loc.File, nt.name.Name)
	if err == nil {
		tuTypes[nt.id] = existing.BaseType
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	ref, err := st.TypeInsert(nt.typ)
	if err != nil {
		return fmt.Errorf("inserting type: %w", err)
	}

	nt.name.BaseType = ref
	if err := st.TypenameInsert(nt.name); err != nil {
		// the type row above is now orphaned; kept as a documented gap
		// rather than rolled back, matching the original implementation.
		return fmt.Errorf("inserting typename %q: %w", nt.name.Name, err)
	}

	scratch[nt.id] = ref
	return nil
}

// translateBase resolves base against primary then fallback, in that
// order. A nil base (primitive field) always resolves to the zero TypeRef.
func translateBase(base frontend.CanonicalID, primary, fallback map[frontend.CanonicalID]store.TypeRef) (store.TypeRef, bool) {
	if base == nil {
		return store.TypeRef{}, true
	}
	if ref, ok := primary[base]; ok {
		return ref, true
	}
	ref, ok := fallback[base]
	return ref, ok
}

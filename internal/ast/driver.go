// Package ast drives one translation unit through a frontend.Parser and
// into the store, via the scoreboard's staged commit protocol. This is
// "component E" of the indexer: everything semantic about a single TU lives
// here, keyed by whatever canonical type identity the front end hands back.
package ast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cfinddev/cfind/internal/frontend"
	"github.com/cfinddev/cfind/internal/scoreboard"
	"github.com/cfinddev/cfind/internal/store"
)

// Driver indexes translation units into a Store using a Parser front end.
// It is not safe for concurrent use — index one TU at a time, matching the
// single-threaded ingestion model.
type Driver struct {
	st     *store.Store
	parser frontend.Parser
	log    *slog.Logger
}

// New returns a Driver that writes into st, parsing with parser. A nil
// logger falls back to slog.Default().
func New(st *store.Store, parser frontend.Parser, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{st: st, parser: parser, log: log}
}

// IndexTranslationUnit parses path, registers it and every file it quote-
// includes, and walks its declarations into the store. A single
// declaration's failure is logged and skipped; only a front-end parse
// failure or a failure to register path itself aborts the whole call.
func (d *Driver) IndexTranslationUnit(ctx context.Context, path string) error {
	root, includes, err := d.parser.Parse(path)
	if err != nil {
		return fmt.Errorf("ast: parsing %s: %w", path, err)
	}

	fileRef, err := d.st.AddFile(path)
	if err != nil {
		return fmt.Errorf("ast: registering %s: %w", path, err)
	}
	for _, inc := range includes {
		if _, err := d.st.AddFile(inc); err != nil {
			d.log.Warn("ast: registering include failed", "path", inc, "err", err)
		}
	}

	tuTypes := make(map[frontend.CanonicalID]store.TypeRef)
	sb := scoreboard.New()

	d.walkTU(ctx, root, fileRef, tuTypes, sb)
	return nil
}

func (d *Driver) walkTU(ctx context.Context, cur frontend.Cursor, fileRef store.FileRef, tuTypes map[frontend.CanonicalID]store.TypeRef, sb *scoreboard.Scoreboard) {
	if !cur.GotoFirstChild() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.walkTopLevel(cur, fileRef, tuTypes, sb)
		if !cur.GotoNextSibling() {
			break
		}
	}
	cur.GotoParent()
}

// walkTopLevel dispatches one top-level declaration: a typedef, a plain
// declaration (possibly a bare `struct foo {};` with no declarator, or a
// variable of a named or inline type), or anything else (ignored — this is
// the indexability filter: only declarations naming or defining a
// struct/union/enum are indexed).
func (d *Driver) walkTopLevel(cur frontend.Cursor, fileRef store.FileRef, tuTypes map[frontend.CanonicalID]store.TypeRef, sb *scoreboard.Scoreboard) {
	switch cur.Kind() {
	case frontend.NodeTypedef:
		d.processDeclLike(cur, fileRef, tuTypes, sb, true)
	case frontend.NodeDeclaration:
		d.processDeclLike(cur, fileRef, tuTypes, sb, false)
	}
}

// processDeclLike handles both NodeTypedef and NodeDeclaration: each has a
// type field and zero or more following declarators. Only the first
// declarator is consulted — multiple declarators sharing one specifier
// (`typedef struct {} a, b;`) is a documented narrowing versus the original,
// which only ever named the primary record from the cursor it happened to
// visit first in the same way.
func (d *Driver) processDeclLike(cur frontend.Cursor, fileRef store.FileRef, tuTypes map[frontend.CanonicalID]store.TypeRef, sb *scoreboard.Scoreboard, isTypedef bool) {
	typeField, ok := cur.TypeCursor()
	if !ok {
		return
	}
	loc := toLoc(fileRef, cur.Loc())

	switch typeField.Kind() {
	case frontend.NodeStructSpecifier, frontend.NodeUnionSpecifier, frontend.NodeEnumSpecifier:
		if !typeField.IsComplete() {
			// Not a definition: either a bare forward declaration (discarded
			// — never resolved against a later definition) or a typedef/
			// variable naming a tag already indexed elsewhere in the TU
			// (`typedef struct foo Bar;` where struct foo was completed
			// earlier). linkKnownTag tells the two apart by whether the tag
			// resolves.
			d.linkKnownTag(typeField.Tag(), cur.DeclaratorName(), fileRef, loc, isTypedef)
			return
		}
		id, unnamed := d.stageSpecifier(typeField, fileRef, sb)
		declName := cur.DeclaratorName()
		if unnamed {
			if declName != "" {
				kind := store.TypenameKindVar
				if isTypedef {
					kind = store.TypenameKindTypedef
				}
				sb.AttachName(id, kind, declName, loc)
			}
			// still unnamed (truly anonymous): Commit below discards it
			// along with everything staged beneath it.
		}
		if err := sb.Commit(d.st, tuTypes); err != nil {
			d.log.Warn("ast: commit failed", "path", fileRef, "err", err)
		}
		sb.Reset()

	default:
		// Not an inline specifier: either a typedef/variable of a
		// previously-declared tag, or a primitive — nothing to do for the
		// latter.
		d.linkKnownTag(typeField.Tag(), cur.DeclaratorName(), fileRef, loc, isTypedef)
	}
}

// linkKnownTag resolves tag against the store and, on a hit, inserts a
// typedef- or var-kind typename for declName referencing the same type,
// deduplicating against an existing name. Used both for a type field that
// isn't an inline specifier at all (a typedef/variable of a name already in
// scope) and for an incomplete specifier naming a tag defined elsewhere in
// the TU. A miss (tag not found) is the ordinary case of a primitive type or
// a genuine forward declaration, not an error.
func (d *Driver) linkKnownTag(tag, declName string, fileRef store.FileRef, loc store.Loc, isTypedef bool) {
	if tag == "" || declName == "" {
		return
	}
	existing, err := d.st.TypenameLookup(fileRef, tag)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			d.log.Warn("ast: typename lookup failed", "tag", tag, "err", err)
		}
		return
	}
	if _, err := d.st.TypenameLookup(fileRef, declName); err == nil {
		return // already indexed under this name
	}
	kind := store.TypenameKindVar
	if isTypedef {
		kind = store.TypenameKindTypedef
	}
	if err := d.st.TypenameInsert(store.Typename{
		Name: declName, Kind: kind, BaseType: existing.BaseType, Loc: loc,
	}); err != nil {
		d.log.Warn("ast: typename insert failed", "name", declName, "err", err)
	}
}

// stageSpecifier stages cur (a complete struct/union/enum specifier) and
// its members into sb, never committing. Returns cur's own canonical id and
// whether it is still unnamed (no direct tag).
func (d *Driver) stageSpecifier(cur frontend.Cursor, fileRef store.FileRef, sb *scoreboard.Scoreboard) (frontend.CanonicalID, bool) {
	id := cur.SelfID()
	loc := toLoc(fileRef, cur.Loc())
	sb.StageType(id, store.Type{Kind: kindFor(cur.Kind()), Complete: true, Loc: loc})

	tag := cur.Tag()
	if tag != "" {
		sb.AttachName(id, store.TypenameKindDirect, tag, loc)
	}

	d.walkMembers(cur, id, fileRef, sb)
	return id, tag == ""
}

// walkMembers iterates the field declarations within cur's body, staging a
// member for each, attributed to attrID. A C11 anonymous struct/union
// member (no declarator at all) is not staged as a member itself — its own
// fields are hoisted directly onto attrID instead, per the "most recent
// named parent" rule.
func (d *Driver) walkMembers(cur frontend.Cursor, attrID frontend.CanonicalID, fileRef store.FileRef, sb *scoreboard.Scoreboard) {
	body := cur.Clone()
	if !body.GotoFirstChild() {
		return
	}
	found := body.Kind() == frontend.NodeFieldList
	for !found && body.GotoNextSibling() {
		found = body.Kind() == frontend.NodeFieldList
	}
	if !found || !body.GotoFirstChild() {
		return
	}

	for {
		if body.Kind() == frontend.NodeFieldDeclaration {
			d.processField(body, attrID, fileRef, sb)
		}
		if !body.GotoNextSibling() {
			break
		}
	}
}

func (d *Driver) processField(field frontend.Cursor, parentID frontend.CanonicalID, fileRef store.FileRef, sb *scoreboard.Scoreboard) {
	typeField, ok := field.TypeCursor()
	if !ok {
		return
	}
	fieldName := field.FieldName()
	loc := toLoc(fileRef, field.Loc())

	switch typeField.Kind() {
	case frontend.NodeStructSpecifier, frontend.NodeUnionSpecifier, frontend.NodeEnumSpecifier:
		if !typeField.IsComplete() {
			// Not a definition: a field naming a tag already indexed
			// elsewhere in the TU (`struct foo f;` where struct foo was
			// completed earlier), or an otherwise-unresolvable bare
			// forward declaration nested in a member list.
			if fieldName == "" {
				return
			}
			d.resolveTagMember(typeField.Tag(), parentID, fileRef, fieldName, loc, sb)
			return
		}
		if fieldName == "" {
			// C11 anonymous struct/union member: promote its fields onto
			// the enclosing record instead of creating a member for it.
			d.walkMembers(typeField, parentID, fileRef, sb)
			return
		}
		nestedID, unnamed := d.stageSpecifier(typeField, fileRef, sb)
		sb.StageMember(parentID, nestedID, store.Member{Name: fieldName, Loc: loc})
		if unnamed {
			sb.AttachName(nestedID, store.TypenameKindVar, fieldName, loc)
		}

	default:
		if fieldName == "" {
			return
		}
		tag := typeField.Tag()
		if tag == "" {
			// primitive (or otherwise unresolvable) field type
			sb.StageMember(parentID, nil, store.Member{Name: fieldName, Loc: loc})
			return
		}
		d.resolveTagMember(tag, parentID, fileRef, fieldName, loc, sb)
	}
}

// resolveTagMember looks tag up in the store and, on a hit, stages a member
// resolved against the existing type. A miss is logged only when it isn't a
// plain not-found (the ordinary case for a tag not yet — or never —
// defined), matching linkKnownTag's treatment of the top-level dispatch.
func (d *Driver) resolveTagMember(tag string, parentID frontend.CanonicalID, fileRef store.FileRef, fieldName string, loc store.Loc, sb *scoreboard.Scoreboard) {
	if tag == "" {
		return
	}
	existing, err := d.st.TypenameLookup(fileRef, tag)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			d.log.Warn("ast: typename lookup failed", "tag", tag, "err", err)
		}
		return
	}
	sb.StageResolvedMember(parentID, existing.BaseType, store.Member{Name: fieldName, Loc: loc})
}

func kindFor(k frontend.NodeKind) store.TypeKind {
	switch k {
	case frontend.NodeStructSpecifier:
		return store.TypeKindStruct
	case frontend.NodeUnionSpecifier:
		return store.TypeKindUnion
	case frontend.NodeEnumSpecifier:
		return store.TypeKindEnum
	default:
		panic(fmt.Sprintf("ast: kindFor called on non-tag node kind %d", k))
	}
}

func toLoc(fileRef store.FileRef, l frontend.Loc) store.Loc {
	return store.Loc{File: fileRef, Scope: store.ScopeGlobal, Line: l.Line, Column: l.Column}
}

// Package query implements the search DSL: a small grammar for naming a
// type, typename, or member and turning that name into store lookups.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cfinddev/cfind/internal/store"
)

// Verb is the command word naming what kind of search to run.
type Verb int

const (
	VerbTypeDecl Verb = iota
	VerbTypename
	VerbMemberDecl
)

func (v Verb) String() string {
	switch v {
	case VerbTypeDecl:
		return "typedecl"
	case VerbTypename:
		return "typename"
	case VerbMemberDecl:
		return "memberdecl"
	default:
		return fmt.Sprintf("Verb(%d)", int(v))
	}
}

// NameSpec names a type either by bare name ("foo_t") or by an elaborated
// tag ("struct foo"). Elab is zero (no elaboration) for the bare case.
type NameSpec struct {
	Elab store.TypeKind // zero means unelaborated
	Name string
}

func (n NameSpec) String() string {
	if n.Elab == 0 {
		return n.Name
	}
	return n.Elab.String() + " " + n.Name
}

// TypeSpec names a type either by numeric id or by NameSpec.
type TypeSpec struct {
	IsID bool
	ID   int64
	Name NameSpec
}

// Command is a fully parsed query: a verb plus the arguments it takes.
// Exactly one of Type/Typename/Member is meaningful, selected by Verb.
type Command struct {
	Verb     Verb
	Type     TypeSpec // VerbTypeDecl
	Typename NameSpec // VerbTypename
	Member   struct { // VerbMemberDecl
		Base TypeSpec
		Name string
	}
}

// Parse tokenizes and parses a query string, per the grammar:
//
//	COMMAND ARGS...
//
//	COMMAND: td|typedecl, tn|typename, md|memberdecl
//	typedecl:   <id> | [struct|union|enum] <name>
//	typename:   [struct|union|enum] <name>
//	memberdecl: <typedecl-args> <member-name>
//
// Trailing tokens beyond what a command consumes are ignored, matching the
// original CLI's tolerance for extra whitespace-separated garbage.
func Parse(cmd string) (Command, error) {
	toks := strings.Fields(cmd)
	if len(toks) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", store.ErrInvalidArgument)
	}

	verb, err := parseVerb(toks[0])
	if err != nil {
		return Command{}, err
	}
	rest := toks[1:]

	var out Command
	out.Verb = verb
	switch verb {
	case VerbTypeDecl:
		spec, _, err := parseTypeSpec(rest)
		if err != nil {
			return Command{}, err
		}
		out.Type = spec
	case VerbTypename:
		name, _, err := parseNameSpec(rest)
		if err != nil {
			return Command{}, err
		}
		out.Typename = name
	case VerbMemberDecl:
		base, n, err := parseTypeSpec(rest)
		if err != nil {
			return Command{}, err
		}
		rest = rest[n:]
		if len(rest) == 0 {
			return Command{}, fmt.Errorf("%w: memberdecl missing member name", store.ErrInvalidArgument)
		}
		out.Member.Base = base
		out.Member.Name = rest[0]
	}
	return out, nil
}

func parseVerb(tok string) (Verb, error) {
	switch tok {
	case "td", "typedecl":
		return VerbTypeDecl, nil
	case "tn", "typename":
		return VerbTypename, nil
	case "md", "memberdecl":
		return VerbMemberDecl, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized command %q", store.ErrInvalidArgument, tok)
	}
}

// parseTypeSpec consumes either a numeric id token or a NameSpec (1 or 2
// tokens). Returns the number of tokens consumed.
func parseTypeSpec(toks []string) (TypeSpec, int, error) {
	if len(toks) == 0 {
		return TypeSpec{}, 0, fmt.Errorf("%w: missing type argument", store.ErrInvalidArgument)
	}

	if isDigit(toks[0][0]) {
		id, err := strconv.ParseInt(toks[0], 10, 64)
		if err != nil {
			return TypeSpec{}, 0, fmt.Errorf("%w: %q is not a valid type id", store.ErrInvalidArgument, toks[0])
		}
		return TypeSpec{IsID: true, ID: id}, 1, nil
	}

	name, n, err := parseNameSpec(toks)
	if err != nil {
		return TypeSpec{}, 0, err
	}
	return TypeSpec{Name: name}, n, nil
}

// parseNameSpec consumes either "name" (1 token) or "struct|union|enum name"
// (2 tokens). Returns the number of tokens consumed.
func parseNameSpec(toks []string) (NameSpec, int, error) {
	if len(toks) == 0 {
		return NameSpec{}, 0, fmt.Errorf("%w: missing name argument", store.ErrInvalidArgument)
	}

	if elab, ok := str2elab(toks[0]); ok {
		if len(toks) < 2 {
			return NameSpec{}, 0, fmt.Errorf("%w: expected a tag after %q", store.ErrInvalidArgument, toks[0])
		}
		return NameSpec{Elab: elab, Name: toks[1]}, 2, nil
	}
	return NameSpec{Name: toks[0]}, 1, nil
}

func str2elab(tok string) (store.TypeKind, bool) {
	switch tok {
	case "struct":
		return store.TypeKindStruct, true
	case "union":
		return store.TypeKindUnion, true
	case "enum":
		return store.TypeKindEnum, true
	default:
		return 0, false
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

package store

import "fmt"

// FileRef is a handle to a row in the file table. The zero value means
// "absent" in both the relational and in-memory backends.
type FileRef struct{ id int64 }

func (r FileRef) Valid() bool   { return r.id != 0 }
func (r FileRef) Int64() int64  { return r.id }
func FileRefOf(id int64) FileRef { return FileRef{id: id} }

// TypeRef is a handle to a row in the type table. The zero value means
// "absent" — used by members/type-uses whose base type is a primitive that
// was never inserted into the type table.
type TypeRef struct{ id int64 }

func (r TypeRef) Valid() bool    { return r.id != 0 }
func (r TypeRef) Int64() int64   { return r.id }
func TypeRefOf(id int64) TypeRef { return TypeRef{id: id} }

// Scope constants, mirroring the original decl_scope_t: 0 is file scope, 1 is
// function scope, and 2+ is the nesting depth of unpaired '{'s before a
// declaration. The scope column is populated, but TypenameLookup only ever
// matches rows with scope ScopeGlobal; no lookup takes a scope argument.
const (
	ScopeGlobal uint32 = 0
	ScopeFunc   uint32 = 1
	ScopeNested uint32 = 2
)

// TypeKind is the C-language kind of a user-defined type. Typedefs are
// excluded — they're represented as a Typename, not a Type.
type TypeKind uint32

const (
	TypeKindStruct TypeKind = 1
	TypeKindUnion  TypeKind = 2
	TypeKindEnum   TypeKind = 3
)

func (k TypeKind) String() string {
	switch k {
	case TypeKindStruct:
		return "struct"
	case TypeKindUnion:
		return "union"
	case TypeKindEnum:
		return "enum"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint32(k))
	}
}

// UnmarshalTypeKind parses one of the query CLI's elaboration keywords.
func UnmarshalTypeKind(s string) (TypeKind, error) {
	switch s {
	case "struct":
		return TypeKindStruct, nil
	case "union":
		return TypeKindUnion, nil
	case "enum":
		return TypeKindEnum, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized type kind %q", ErrInvalidArgument, s)
	}
}

// TypenameKind distinguishes how a name came to refer to a type.
type TypenameKind uint32

const (
	// TypenameKindDirect is the tag in `struct foo {};`.
	TypenameKindDirect TypenameKind = 1
	// TypenameKindTypedef is any name introduced by a typedef.
	TypenameKindTypedef TypenameKind = 2
	// TypenameKindVar is an instance variable's name used as the sole
	// identifier for an anonymous type, e.g. "foo" in `struct {} foo;`.
	TypenameKindVar TypenameKind = 3
)

func (k TypenameKind) String() string {
	switch k {
	case TypenameKindDirect:
		return "direct"
	case TypenameKindTypedef:
		return "typedef"
	case TypenameKindVar:
		return "var"
	default:
		return fmt.Sprintf("TypenameKind(%d)", uint32(k))
	}
}

func (k TypenameKind) Elaborated() bool { return k == TypenameKindDirect }

// TypeUseKind classifies a miscellaneous use of a type that isn't itself a
// declaration captured elsewhere (member, typename).
type TypeUseKind uint32

const (
	TypeUseDecl   TypeUseKind = 1
	TypeUseInit   TypeUseKind = 2
	TypeUseParam  TypeUseKind = 3
	TypeUseCast   TypeUseKind = 4
	TypeUseSizeof TypeUseKind = 5
)

func (k TypeUseKind) String() string {
	switch k {
	case TypeUseDecl:
		return "decl"
	case TypeUseInit:
		return "init"
	case TypeUseParam:
		return "param"
	case TypeUseCast:
		return "cast"
	case TypeUseSizeof:
		return "sizeof"
	default:
		return fmt.Sprintf("TypeUseKind(%d)", uint32(k))
	}
}

// Loc is the source location context shared by every entry that records
// where it was declared or used.
type Loc struct {
	File   FileRef
	Func   uint32
	Scope  uint32
	Line   uint32
	Column uint32
}

// File is a row of the file table: one entry per translation unit input or
// header touched while indexing one.
type File struct {
	ID   FileRef
	Path string
}

// Type is a row of the type table: a struct/union/enum declaration. It
// carries no name — every name by which the type can be referred to is a
// separate Typename row.
type Type struct {
	ID       TypeRef
	Kind     TypeKind
	Complete bool
	Loc      Loc
}

// Typename is a row of the typename table: one name by which a Type can be
// referred to.
type Typename struct {
	Name     string
	Kind     TypenameKind
	BaseType TypeRef
	Loc      Loc
}

// Member is a row of the members table: one field of a struct/union.
type Member struct {
	ID       int64
	Parent   TypeRef
	BaseType TypeRef
	Name     string
	Loc      Loc
}

// TypeUse is a row of the type_use table: a use of a type that is not itself
// a declaration recorded elsewhere (e.g. a sizeof or cast operand).
type TypeUse struct {
	BaseType TypeRef
	Kind     TypeUseKind
	Loc      Loc
}

// Owned is a string the caller may retain past the lifetime of whatever
// produced it — typically one copied out of a row.
type Owned string

// Clone returns o unchanged; it exists so callers can convert a Borrowed
// string into an Owned one with a uniform method name regardless of which
// type they're holding.
func (o Owned) Clone() Owned { return o }

// Borrowed is a string tied to the lifetime of the cursor or row that
// produced it. It must not be retained past a call to the cursor's next method
// or a call to its free method; call Clone to obtain an Owned copy first.
type Borrowed string

func (b Borrowed) Clone() Owned { return Owned(string(b)) }

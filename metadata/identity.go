package metadata

import "reflect"

// TypeIdentity identifies an entity type either by a structural name or by
// a bound Go type. The zero value identifies nothing.
type TypeIdentity struct {
	name string
	typ  reflect.Type
}

// Named returns an identity for a name-only entity type.
func Named(name string) TypeIdentity {
	return TypeIdentity{name: name}
}

// TypeOf returns an identity bound to t. Pointer types are dereferenced.
func TypeOf(t reflect.Type) TypeIdentity {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return TypeIdentity{}
	}
	return TypeIdentity{name: fullName(t), typ: t}
}

// For returns an identity bound to T.
func For[T any]() TypeIdentity {
	return TypeOf(reflect.TypeFor[T]())
}

// Name returns the full name: "pkgpath.Type" for bound types.
func (id TypeIdentity) Name() string { return id.name }

// NativeType returns the bound Go type, or nil.
func (id TypeIdentity) NativeType() reflect.Type { return id.typ }

// IsZero reports whether id identifies nothing.
func (id TypeIdentity) IsZero() bool { return id.name == "" }

// DisplayName returns the short type name for bound types and the full name
// otherwise.
func (id TypeIdentity) DisplayName() string {
	if id.typ != nil {
		return displayName(id.typ)
	}
	return id.name
}

// String implements fmt.Stringer.
func (id TypeIdentity) String() string { return id.DisplayName() }

func fullName(t reflect.Type) string {
	switch {
	case t.PkgPath() != "" && t.Name() != "":
		return t.PkgPath() + "." + t.Name()
	case t.Name() != "":
		return t.Name()
	default:
		return t.String()
	}
}

func displayName(t reflect.Type) string {
	if n := t.Name(); n != "" {
		return n
	}
	return t.String()
}

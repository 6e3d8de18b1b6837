package metamodel

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for metadata operations.
var (
	// ErrDuplicate is returned when an object with the same identity already exists.
	ErrDuplicate = errors.New("metamodel: duplicate metadata")

	// ErrInUse is returned when an object cannot be removed because other
	// metadata still depends on it.
	ErrInUse = errors.New("metamodel: metadata in use")

	// ErrClash is returned when delegated and non-delegated identities collide.
	ErrClash = errors.New("metamodel: clashing entity type identity")

	// ErrInvalid is returned for structurally invalid metadata.
	ErrInvalid = errors.New("metamodel: invalid metadata")

	// ErrDetached is returned when mutating metadata that was removed from its model.
	ErrDetached = errors.New("metamodel: metadata is detached from its model")

	// ErrCustomMetadata is returned when a foreign implementation of a
	// read-only metadata view is passed where the built-in one is required.
	ErrCustomMetadata = errors.New("metamodel: custom metadata implementation")
)

// FormatProperties renders a property name list as {'A', 'B'}.
func FormatProperties(names []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(n)
		b.WriteByte('\'')
	}
	b.WriteByte('}')
	return b.String()
}

// DuplicateEntityTypeError is returned when adding an entity type whose
// identity is already registered.
type DuplicateEntityTypeError struct {
	EntityType string
}

// Error returns the error string.
func (e *DuplicateEntityTypeError) Error() string {
	return fmt.Sprintf("metamodel: entity type %q cannot be added because an entity type with the same name already exists", e.EntityType)
}

// Is reports whether the target error matches DuplicateEntityTypeError.
func (e *DuplicateEntityTypeError) Is(err error) bool {
	return err == ErrDuplicate
}

// NewDuplicateEntityTypeError returns a new DuplicateEntityTypeError.
func NewDuplicateEntityTypeError(entityType string) *DuplicateEntityTypeError {
	return &DuplicateEntityTypeError{EntityType: entityType}
}

// IsDuplicateEntityType returns true if the error is a DuplicateEntityTypeError.
func IsDuplicateEntityType(err error) bool {
	var e *DuplicateEntityTypeError
	return errors.As(err, &e)
}

// EntityTypeInUseByReferencingForeignKeyError is returned when removing an
// entity type that is the principal of a foreign key.
type EntityTypeInUseByReferencingForeignKeyError struct {
	EntityType string   // Principal being removed
	Properties []string // Dependent properties of the referencing foreign key
	Dependent  string   // Entity type declaring the foreign key
}

// Error returns the error string.
func (e *EntityTypeInUseByReferencingForeignKeyError) Error() string {
	return fmt.Sprintf("metamodel: cannot remove entity type %q because it is referenced by foreign key %s on entity type %q",
		e.EntityType, FormatProperties(e.Properties), e.Dependent)
}

// Is reports whether the target error matches EntityTypeInUseByReferencingForeignKeyError.
func (e *EntityTypeInUseByReferencingForeignKeyError) Is(err error) bool {
	return err == ErrInUse
}

// IsEntityTypeInUseByReferencingForeignKey returns true if the error is an
// EntityTypeInUseByReferencingForeignKeyError.
func IsEntityTypeInUseByReferencingForeignKey(err error) bool {
	var e *EntityTypeInUseByReferencingForeignKeyError
	return errors.As(err, &e)
}

// EntityTypeInUseByDerivedError is returned when removing an entity type
// that other entity types derive from.
type EntityTypeInUseByDerivedError struct {
	EntityType string
	Derived    string
}

// Error returns the error string.
func (e *EntityTypeInUseByDerivedError) Error() string {
	return fmt.Sprintf("metamodel: cannot remove entity type %q because entity type %q is derived from it", e.EntityType, e.Derived)
}

// Is reports whether the target error matches EntityTypeInUseByDerivedError.
func (e *EntityTypeInUseByDerivedError) Is(err error) bool {
	return err == ErrInUse
}

// IsEntityTypeInUseByDerived returns true if the error is an EntityTypeInUseByDerivedError.
func IsEntityTypeInUseByDerived(err error) bool {
	var e *EntityTypeInUseByDerivedError
	return errors.As(err, &e)
}

// EntityTypeInUseByForeignKeyError is returned when removing an entity type
// that still declares a foreign key.
type EntityTypeInUseByForeignKeyError struct {
	EntityType string   // Dependent being removed
	Principal  string   // Principal entity type of the foreign key
	Properties []string // Foreign key properties
}

// Error returns the error string.
func (e *EntityTypeInUseByForeignKeyError) Error() string {
	return fmt.Sprintf("metamodel: cannot remove entity type %q because its foreign key %s references entity type %q",
		e.EntityType, FormatProperties(e.Properties), e.Principal)
}

// Is reports whether the target error matches EntityTypeInUseByForeignKeyError.
func (e *EntityTypeInUseByForeignKeyError) Is(err error) bool {
	return err == ErrInUse
}

// IsEntityTypeInUseByForeignKey returns true if the error is an EntityTypeInUseByForeignKeyError.
func IsEntityTypeInUseByForeignKey(err error) bool {
	var e *EntityTypeInUseByForeignKeyError
	return errors.As(err, &e)
}

// ClashingDelegatedIdentityEntityTypeError is returned when adding a regular
// entity type whose name is already used by delegated-identity entity types.
type ClashingDelegatedIdentityEntityTypeError struct {
	EntityType string
}

// Error returns the error string.
func (e *ClashingDelegatedIdentityEntityTypeError) Error() string {
	return fmt.Sprintf("metamodel: cannot add entity type %q because entity types with delegated identity of the same type already exist", e.EntityType)
}

// Is reports whether the target error matches ClashingDelegatedIdentityEntityTypeError.
func (e *ClashingDelegatedIdentityEntityTypeError) Is(err error) bool {
	return err == ErrClash
}

// IsClashingDelegatedIdentityEntityType returns true if the error is a
// ClashingDelegatedIdentityEntityTypeError.
func IsClashingDelegatedIdentityEntityType(err error) bool {
	var e *ClashingDelegatedIdentityEntityTypeError
	return errors.As(err, &e)
}

// ClashingNonDelegatedIdentityEntityTypeError is returned when adding a
// delegated-identity entity type whose name is used by a regular entity type.
type ClashingNonDelegatedIdentityEntityTypeError struct {
	EntityType string // Display name of the delegated entity type being added
}

// Error returns the error string.
func (e *ClashingNonDelegatedIdentityEntityTypeError) Error() string {
	return fmt.Sprintf("metamodel: cannot add entity type with delegated identity %q because an entity type of the same type without delegated identity already exists", e.EntityType)
}

// Is reports whether the target error matches ClashingNonDelegatedIdentityEntityTypeError.
func (e *ClashingNonDelegatedIdentityEntityTypeError) Is(err error) bool {
	return err == ErrClash
}

// IsClashingNonDelegatedIdentityEntityType returns true if the error is a
// ClashingNonDelegatedIdentityEntityTypeError.
func IsClashingNonDelegatedIdentityEntityType(err error) bool {
	var e *ClashingNonDelegatedIdentityEntityTypeError
	return errors.As(err, &e)
}

// ForeignKeySelfReferencingDelegatedIdentityError is returned when a foreign
// key would make a delegated-identity entity type reference itself, or an
// owner reference an entity type it defines.
type ForeignKeySelfReferencingDelegatedIdentityError struct {
	EntityType string
}

// Error returns the error string.
func (e *ForeignKeySelfReferencingDelegatedIdentityError) Error() string {
	return fmt.Sprintf("metamodel: entity type %q has a delegated identity and cannot be the principal of a foreign key declared along its own ownership chain", e.EntityType)
}

// Is reports whether the target error matches ForeignKeySelfReferencingDelegatedIdentityError.
func (e *ForeignKeySelfReferencingDelegatedIdentityError) Is(err error) bool {
	return err == ErrInvalid
}

// IsForeignKeySelfReferencingDelegatedIdentity returns true if the error is a
// ForeignKeySelfReferencingDelegatedIdentityError.
func IsForeignKeySelfReferencingDelegatedIdentity(err error) bool {
	var e *ForeignKeySelfReferencingDelegatedIdentityError
	return errors.As(err, &e)
}

// CustomMetadataError is returned when a method requiring the built-in
// metadata implementation receives some other implementation of its interface.
type CustomMetadataError struct {
	Method         string
	Interface      string
	Implementation string
}

// Error returns the error string.
func (e *CustomMetadataError) Error() string {
	return fmt.Sprintf("metamodel: %s requires the built-in implementation of %s, got %s", e.Method, e.Interface, e.Implementation)
}

// Is reports whether the target error matches CustomMetadataError.
func (e *CustomMetadataError) Is(err error) bool {
	return err == ErrCustomMetadata
}

// IsCustomMetadata returns true if the error is a CustomMetadataError.
func IsCustomMetadata(err error) bool {
	var e *CustomMetadataError
	return errors.As(err, &e)
}

// DuplicateMetadataError is returned when adding a property, key, foreign key
// or index that the entity type already declares.
type DuplicateMetadataError struct {
	Kind       string // "property", "key", "foreign key" or "index"
	Name       string
	EntityType string
}

// Error returns the error string.
func (e *DuplicateMetadataError) Error() string {
	return fmt.Sprintf("metamodel: %s %s cannot be added to entity type %q because it already exists", e.Kind, e.Name, e.EntityType)
}

// Is reports whether the target error matches DuplicateMetadataError.
func (e *DuplicateMetadataError) Is(err error) bool {
	return err == ErrDuplicate
}

// MetadataInUseError is returned when removing a property or key that other
// metadata still uses.
type MetadataInUseError struct {
	Kind       string
	Name       string
	EntityType string
	UsedBy     string
}

// Error returns the error string.
func (e *MetadataInUseError) Error() string {
	return fmt.Sprintf("metamodel: cannot remove %s %s from entity type %q because it is used by %s", e.Kind, e.Name, e.EntityType, e.UsedBy)
}

// Is reports whether the target error matches MetadataInUseError.
func (e *MetadataInUseError) Is(err error) bool {
	return err == ErrInUse
}

// CircularInheritanceError is returned when a base type assignment would
// make an entity type its own ancestor.
type CircularInheritanceError struct {
	EntityType string
	BaseType   string
}

// Error returns the error string.
func (e *CircularInheritanceError) Error() string {
	return fmt.Sprintf("metamodel: entity type %q cannot inherit from %q because %q is derived from %q", e.EntityType, e.BaseType, e.BaseType, e.EntityType)
}

// Is reports whether the target error matches CircularInheritanceError.
func (e *CircularInheritanceError) Is(err error) bool {
	return err == ErrInvalid
}

// InvalidMetadataError describes any other structurally invalid request.
type InvalidMetadataError struct {
	EntityType string
	Message    string
}

// Error returns the error string.
func (e *InvalidMetadataError) Error() string {
	if e.EntityType != "" {
		return fmt.Sprintf("metamodel: invalid metadata on entity type %q: %s", e.EntityType, e.Message)
	}
	return "metamodel: invalid metadata: " + e.Message
}

// Is reports whether the target error matches InvalidMetadataError.
func (e *InvalidMetadataError) Is(err error) bool {
	return err == ErrInvalid
}

// NewInvalidMetadataError returns a new InvalidMetadataError.
func NewInvalidMetadataError(entityType, format string, args ...any) *InvalidMetadataError {
	return &InvalidMetadataError{EntityType: entityType, Message: fmt.Sprintf(format, args...)}
}

// IsInUse returns true if the error blocks a removal because of dependent metadata.
func IsInUse(err error) bool {
	return errors.Is(err, ErrInUse)
}

// IsDuplicate returns true if the error reports an already existing object.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsInvalid returns true if the error reports metadata rejected as malformed.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

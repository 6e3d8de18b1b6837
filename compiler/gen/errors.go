package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/metamodel/metadata"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates metadata that cannot be rendered as Go.
	ErrInvalidSchema = errors.New("gen: invalid schema")
	// ErrInvalidConfig indicates a rejected generator option.
	ErrInvalidConfig = errors.New("gen: invalid configuration")
	// ErrGenerationFailed indicates a failure while producing output files.
	ErrGenerationFailed = errors.New("gen: code generation failed")
)

// SchemaError reports an entity type, or one of its properties, that has no
// Go rendering. An empty EntityType refers to the model itself.
type SchemaError struct {
	EntityType string
	// Owner and Navigation are set for entity types with delegated identity.
	Owner      string
	Navigation string
	Property   string
	Reason     string
	Cause      error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("gen: ")
	if e.EntityType == "" {
		b.WriteString("model")
	} else {
		fmt.Fprintf(&b, "entity type %q", e.EntityType)
		if e.Owner != "" {
			fmt.Fprintf(&b, " owned by %q through %q", e.Owner, e.Navigation)
		}
	}
	if e.Property != "" {
		fmt.Fprintf(&b, " property %q", e.Property)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError returns a SchemaError for et, which may be nil for failures
// concerning the whole model.
func NewSchemaError(et *metadata.EntityType, property, reason string, cause error) *SchemaError {
	e := &SchemaError{Property: property, Reason: reason, Cause: cause}
	if et != nil {
		e.EntityType = et.ShortName()
		if owner := et.DefiningEntityType(); owner != nil {
			e.Owner = owner.DisplayName()
			e.Navigation = et.DefiningNavigation()
		}
	}
	return e
}

// CollisionError reports an entity type whose generated type or output file
// name is already taken.
type CollisionError struct {
	Kind       string // "type" or "file"
	Name       string
	EntityType string
	// TakenBy describes what claimed Name first.
	TakenBy string
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	return fmt.Sprintf("gen: %s %s of entity type %q collides with %s", e.Kind, e.Name, e.EntityType, e.TakenBy)
}

// Is reports whether the target matches the sentinel error for CollisionError.
func (e *CollisionError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// ConfigError reports a rejected generator option.
type ConfigError struct {
	Option string
	Value  any
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("gen: option %s=%v: %s", e.Option, e.Value, e.Reason)
	}
	return fmt.Sprintf("gen: option %s: %s", e.Option, e.Reason)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, reason string) *ConfigError {
	return &ConfigError{
		Option: option,
		Value:  value,
		Reason: reason,
	}
}

// Phase names a step of code generation.
type Phase string

// Generation phases, in the order they run.
const (
	PhasePlan    Phase = "plan"
	PhaseRender  Phase = "render"
	PhaseFormat  Phase = "format"
	PhaseWrite   Phase = "write"
	PhaseCleanup Phase = "cleanup"
)

// GenerationError reports a failure while producing an output file.
type GenerationError struct {
	Phase  Phase
	File   string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("gen: ")
	b.WriteString(string(e.Phase))
	if e.File != "" {
		b.WriteString(" ")
		b.WriteString(e.File)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase Phase, file, reason string, cause error) *GenerationError {
	return &GenerationError{
		Phase:  phase,
		File:   file,
		Reason: reason,
		Cause:  cause,
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsCollisionError reports whether the error is a CollisionError.
func IsCollisionError(err error) bool {
	var collisionErr *CollisionError
	return errors.As(err, &collisionErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

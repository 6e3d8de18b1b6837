package metadata

import (
	"fmt"
	"reflect"
	"slices"
)

// Convention reacts to metadata being added. A non-nil error from a callback
// rolls back the addition that triggered it.
type Convention struct {
	Name            string
	EntityTypeAdded func(*EntityType) error
	PropertyAdded   func(*Property) error
}

// ConventionSet is an ordered list of conventions.
type ConventionSet struct {
	conventions []Convention
}

// NewConventionSet returns a set running cs in order.
func NewConventionSet(cs ...Convention) *ConventionSet {
	return &ConventionSet{conventions: slices.Clone(cs)}
}

// DefaultConventions returns the built-in conventions.
func DefaultConventions() *ConventionSet {
	return NewConventionSet(KeyDiscoveryConvention())
}

// Add appends conventions to the set.
func (s *ConventionSet) Add(cs ...Convention) *ConventionSet {
	s.conventions = append(s.conventions, cs...)
	return s
}

// Len returns the number of conventions in the set.
func (s *ConventionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.conventions)
}

func (s *ConventionSet) entityTypeAdded(et *EntityType) error {
	if s == nil {
		return nil
	}
	for _, c := range s.conventions {
		if c.EntityTypeAdded == nil {
			continue
		}
		if err := c.EntityTypeAdded(et); err != nil {
			et.model.logger.ConventionFailed(c.Name, et.DisplayName(), err)
			return fmt.Errorf("convention %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *ConventionSet) propertyAdded(p *Property) error {
	if s == nil {
		return nil
	}
	et := p.declaringEntityType
	for _, c := range s.conventions {
		if c.PropertyAdded == nil {
			continue
		}
		if err := c.PropertyAdded(p); err != nil {
			et.model.logger.ConventionFailed(c.Name, et.DisplayName(), err)
			return fmt.Errorf("convention %s: %w", c.Name, err)
		}
	}
	return nil
}

// KeyDiscoveryConvention makes a property named ID, Id, <Type>ID or <Type>Id
// the primary key of a root entity type that has none.
func KeyDiscoveryConvention() Convention {
	return Convention{
		Name: "KeyDiscovery",
		PropertyAdded: func(p *Property) error {
			et := p.declaringEntityType
			if et.base != nil || et.primaryKey != nil || p.nullable {
				return nil
			}
			if !isKeyName(et.ShortName(), p.name) || !keyType(p.typ) {
				return nil
			}
			_, err := et.SetPrimaryKey(p)
			return err
		},
	}
}

func isKeyName(typeName, name string) bool {
	switch name {
	case "ID", "Id", typeName + "ID", typeName + "Id":
		return true
	default:
		return false
	}
}

func keyType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	default:
		return true
	}
}

// Package load reads declarative schema documents into metadata models and
// exports models back into documents.
package load

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/syssam/metamodel"
)

// Document is a schema document: the change tracking strategy and the entity
// types of one model.
type Document struct {
	ChangeTracking string    `yaml:"change_tracking,omitempty" msgpack:"change_tracking,omitempty"`
	Entities       []*Entity `yaml:"entities" msgpack:"entities"`
	// Source names where the document was read from. It is not serialized.
	Source string `yaml:"-" msgpack:"-"`
}

// Entity describes one entity type. Owned entities describe entity types with
// delegated identity reached from this one.
type Entity struct {
	Name        string        `yaml:"name" msgpack:"name"`
	Base        string        `yaml:"base,omitempty" msgpack:"base,omitempty"`
	Properties  []*Property   `yaml:"properties,omitempty" msgpack:"properties,omitempty"`
	PrimaryKey  []string      `yaml:"primary_key,omitempty,flow" msgpack:"primary_key,omitempty"`
	Keys        [][]string    `yaml:"keys,omitempty" msgpack:"keys,omitempty"`
	Indexes     []*Index      `yaml:"indexes,omitempty" msgpack:"indexes,omitempty"`
	ForeignKeys []*ForeignKey `yaml:"foreign_keys,omitempty" msgpack:"foreign_keys,omitempty"`
	Owned       []*Owned      `yaml:"owned,omitempty" msgpack:"owned,omitempty"`
}

// Property describes a scalar property.
type Property struct {
	Name     string `yaml:"name" msgpack:"name"`
	Type     string `yaml:"type" msgpack:"type"`
	Nullable bool   `yaml:"nullable,omitempty" msgpack:"nullable,omitempty"`
}

// Index describes an index.
type Index struct {
	Properties []string `yaml:"properties,flow" msgpack:"properties"`
	Unique     bool     `yaml:"unique,omitempty" msgpack:"unique,omitempty"`
}

// ForeignKey describes a foreign key. Principal is the display name of the
// principal entity type. An empty PrincipalKey targets its primary key.
type ForeignKey struct {
	Properties   []string `yaml:"properties,flow" msgpack:"properties"`
	Principal    string   `yaml:"principal" msgpack:"principal"`
	PrincipalKey []string `yaml:"principal_key,omitempty,flow" msgpack:"principal_key,omitempty"`
}

// Owned describes an entity type with delegated identity.
type Owned struct {
	Navigation string  `yaml:"navigation" msgpack:"navigation"`
	Entity     *Entity `yaml:"entity" msgpack:"entity"`
}

// Types maps the property type names of a document to Go types.
var Types = map[string]reflect.Type{
	"string":  reflect.TypeFor[string](),
	"int":     reflect.TypeFor[int](),
	"int8":    reflect.TypeFor[int8](),
	"int16":   reflect.TypeFor[int16](),
	"int32":   reflect.TypeFor[int32](),
	"int64":   reflect.TypeFor[int64](),
	"uint":    reflect.TypeFor[uint](),
	"uint8":   reflect.TypeFor[uint8](),
	"uint16":  reflect.TypeFor[uint16](),
	"uint32":  reflect.TypeFor[uint32](),
	"uint64":  reflect.TypeFor[uint64](),
	"float32": reflect.TypeFor[float32](),
	"float64": reflect.TypeFor[float64](),
	"bool":    reflect.TypeFor[bool](),
	"bytes":   reflect.TypeFor[[]byte](),
	"time":    reflect.TypeFor[time.Time](),
	"uuid":    reflect.TypeFor[uuid.UUID](),
}

var typeNames = func() map[reflect.Type]string {
	names := make(map[reflect.Type]string, len(Types))
	for n, t := range Types {
		names[t] = n
	}
	return names
}()

// TypeOf resolves a document type name.
func TypeOf(name string) (reflect.Type, error) {
	t, ok := Types[name]
	if !ok {
		return nil, fmt.Errorf("unknown property type %q", name)
	}
	return t, nil
}

// TypeName returns the document type name of t.
func TypeName(t reflect.Type) (string, error) {
	n, ok := typeNames[t]
	if !ok {
		return "", fmt.Errorf("property type %s has no schema type name", t)
	}
	return n, nil
}

// Parse decodes a YAML schema document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a YAML schema document from r.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	doc := &Document{}
	if err := dec.Decode(doc); err != nil {
		if err == io.EOF {
			return doc, nil
		}
		return nil, fmt.Errorf("load: decode schema: %w", err)
	}
	if _, err := metamodel.ParseChangeTrackingStrategy(doc.ChangeTracking); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return doc, nil
}

// LoadFile reads the schema document at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read schema: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// Marshal encodes the document as YAML. Equal documents encode to equal bytes.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("load: encode schema: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("load: encode schema: %w", err)
	}
	return buf.Bytes(), nil
}

// Count returns the number of entities in the document, owned ones included.
func (d *Document) Count() int {
	n := 0
	var walk func([]*Entity)
	walk = func(es []*Entity) {
		for _, e := range es {
			n++
			for _, o := range e.Owned {
				if o != nil && o.Entity != nil {
					walk([]*Entity{o.Entity})
				}
			}
		}
	}
	walk(d.Entities)
	return n
}

package gen

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/metamodel/graph"
	"github.com/syssam/metamodel/metadata"
)

// RegistryFile is the name of the file holding the model-wide declarations.
const RegistryFile = "registry.go"

// Generate writes one Go file per non-delegated entity type of m into the
// configured target directory. Delegated-identity types are rendered as
// structs named after their owner, in the owner's file.
//
//	err := gen.Generate(ctx, m,
//		gen.WithTarget("./entity"),
//		gen.WithPackage("entity"),
//	)
func Generate(ctx context.Context, m *metadata.Model, opts ...Option) error {
	if m == nil {
		return NewSchemaError(nil, "", "model is nil", nil)
	}
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}
	files, err := newGenerator(m, cfg).files()
	if err != nil {
		return err
	}
	if err := newWriter(cfg).write(ctx, files); err != nil {
		return err
	}
	if err := cfg.cleanupFeatures(); err != nil {
		return err
	}
	cfg.Logger.CodeGenerated(cfg.Target, len(files))
	return nil
}

// file is a rendered-on-demand output file.
type file struct {
	name string
	f    *jen.File
}

// generator turns entity types into jennifer files.
type generator struct {
	model *metadata.Model
	cfg   *Config
	names map[*metadata.EntityType]string
}

func newGenerator(m *metadata.Model, cfg *Config) *generator {
	return &generator{
		model: m,
		cfg:   cfg,
		names: make(map[*metadata.EntityType]string),
	}
}

// files builds the full set of output files. Struct and file names are
// checked for collisions before anything is written.
func (g *generator) files() ([]*file, error) {
	types := g.model.EntityTypes()
	structs := make(map[string]*metadata.EntityType, len(types))
	for _, et := range types {
		name := g.structName(et)
		if prev, ok := structs[name]; ok {
			return nil, &CollisionError{
				Kind:       "type",
				Name:       name,
				EntityType: et.DisplayName(),
				TakenBy:    fmt.Sprintf("entity type %q", prev.DisplayName()),
			}
		}
		structs[name] = et
	}

	var (
		files []*file
		seen  = map[string]string{RegistryFile: "the registry"}
	)
	for _, et := range types {
		if et.IsDelegated() {
			continue
		}
		name := snake(g.structName(et)) + ".go"
		if prev, ok := seen[name]; ok {
			return nil, &CollisionError{Kind: "file", Name: name, EntityType: et.DisplayName(), TakenBy: prev}
		}
		seen[name] = fmt.Sprintf("entity type %q", et.DisplayName())
		f := g.newFile()
		if err := g.entity(f, et); err != nil {
			return nil, err
		}
		files = append(files, &file{name: name, f: f})
	}
	if !g.cfg.FeatureEnabled(FeatureRegistry.Name) {
		return files, nil
	}
	registry, err := g.registry()
	if err != nil {
		return nil, err
	}
	return append(files, &file{name: RegistryFile, f: registry}), nil
}

func (g *generator) newFile() *jen.File {
	f := jen.NewFile(g.cfg.Package)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	return f
}

// structName returns the Go type name of an entity type. Delegated types are
// prefixed with the name of their owner.
func (g *generator) structName(et *metadata.EntityType) string {
	if name, ok := g.names[et]; ok {
		return name
	}
	name := pascal(et.ShortName())
	if owner := et.DefiningEntityType(); owner != nil {
		name = g.structName(owner) + name
	}
	g.names[et] = name
	return name
}

// entity renders et and, recursively, the types it owns.
func (g *generator) entity(f *jen.File, et *metadata.EntityType) error {
	name := g.structName(et)
	var fields []jen.Code
	if base := et.BaseType(); base != nil {
		fields = append(fields, jen.Id(g.structName(base)))
	}
	for _, p := range et.Properties() {
		typ, err := g.propertyType(p)
		if err != nil {
			return err
		}
		fields = append(fields, jen.Id(pascal(p.Name())).Add(typ).Tag(g.tags(p.Name(), p.IsNullable())))
	}
	owned := et.OwnedTypes()
	for _, o := range owned {
		nav := o.DefiningNavigation()
		typ := jen.Op("*").Id(g.structName(o))
		if plural(nav) {
			typ = jen.Index().Op("*").Id(g.structName(o))
		}
		fields = append(fields, jen.Id(pascal(nav)).Add(typ).Tag(g.tags(nav, true)))
	}

	if et.IsDelegated() {
		f.Commentf("%s is owned by %s through %s.", name, g.structName(et.DefiningEntityType()), et.DefiningNavigation())
	} else {
		f.Commentf("%s represents the %s entity type.", name, et.DisplayName())
	}
	f.Type().Id(name).Struct(fields...)

	if pk := et.PrimaryKey(); pk != nil && et.BaseType() == nil && g.cfg.FeatureEnabled(FeaturePrimaryKey.Name) {
		f.Line()
		f.Commentf("PrimaryKey returns the names of the properties identifying a %s.", name)
		f.Func().Params(jen.Id(name)).Id("PrimaryKey").Params().Index().String().Block(
			jen.Return(jen.Index().String().ValuesFunc(func(grp *jen.Group) {
				for _, n := range pk.PropertyNames() {
					grp.Lit(n)
				}
			})),
		)
	}

	for _, o := range owned {
		f.Line()
		if err := g.entity(f, o); err != nil {
			return err
		}
	}
	return nil
}

// tags returns the struct tags of a field for the enabled tag features.
func (g *generator) tags(name string, omitempty bool) map[string]string {
	tag := snake(name)
	if omitempty {
		tag += ",omitempty"
	}
	tags := make(map[string]string, 2)
	if g.cfg.FeatureEnabled(FeatureJSONTags.Name) {
		tags["json"] = tag
	}
	if g.cfg.FeatureEnabled(FeatureMsgpackTags.Name) {
		tags["msgpack"] = tag
	}
	return tags
}

// propertyType returns the field type for p. Nullable properties of value
// types are rendered as pointers.
func (g *generator) propertyType(p *metadata.Property) (jen.Code, error) {
	typ, err := goType(p.Type())
	if err != nil {
		return nil, NewSchemaError(p.DeclaringEntityType(), p.Name(), "unsupported property type", err)
	}
	if p.IsNullable() && !nillable(p.Type()) {
		return jen.Op("*").Add(typ), nil
	}
	return typ, nil
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}

// goType converts a reflect.Type into jennifer code, qualifying named types
// with their import path.
func goType(t reflect.Type) (jen.Code, error) {
	if t == nil {
		return nil, fmt.Errorf("missing type")
	}
	if t.Name() != "" {
		if t.PkgPath() != "" {
			return jen.Qual(t.PkgPath(), t.Name()), nil
		}
		return jen.Id(t.Name()), nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		elem, err := goType(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && t.Elem().PkgPath() == "" {
			return jen.Index().Byte(), nil
		}
		elem, err := goType(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case reflect.Array:
		elem, err := goType(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index(jen.Lit(t.Len())).Add(elem), nil
	case reflect.Map:
		key, err := goType(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := goType(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return jen.Any(), nil
		}
	}
	return nil, fmt.Errorf("type %s has no generated form", t)
}

// registry renders the model-wide declarations: the entity type names in
// dependency order and the model's change tracking strategy.
func (g *generator) registry() (*jen.File, error) {
	a, err := graph.Analyze(g.model)
	if err != nil {
		return nil, NewGenerationError(PhasePlan, RegistryFile, "analyze model", err)
	}
	f := g.newFile()
	f.Comment("EntityOrder lists the entity types so that every type follows the types it depends on.")
	f.Var().Id("EntityOrder").Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
		for _, name := range a.Order {
			grp.Line().Lit(name)
		}
		grp.Line()
	})
	f.Line()
	f.Comment("ChangeTrackingStrategy is the strategy the model was built with.")
	f.Const().Id("ChangeTrackingStrategy").Op("=").Lit(g.model.ChangeTrackingStrategy().String())
	if len(a.Cycles) > 0 {
		f.Line()
		f.Commentf("Cycles lists the %d dependencies that could not be ordered.", len(a.Cycles))
		f.Var().Id("Cycles").Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
			for _, c := range a.Cycles {
				grp.Line().Lit(c.String())
			}
			grp.Line()
		})
	}
	return f, nil
}

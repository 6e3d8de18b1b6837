// Package gen generates Go source from a metadata model.
//
// Every non-delegated entity type becomes one file holding a struct with a
// field per declared property. Derived types embed the struct of their base
// type, and owned types are rendered in their owner's file as structs named
// after the owner:
//
//	Order         -> order.go: type Order struct { ...; Lines []*OrderLine }
//	Order.Lines#Line              type OrderLine struct { ... }
//
// A navigation whose name reads as a plural becomes a slice of pointers and
// any other navigation becomes a pointer. Nullable value properties are
// rendered as pointers.
//
// A registry file lists the entity types in dependency order, as computed by
// the graph package.
//
// Files are rendered with jennifer and formatted with goimports before they are
// written in parallel:
//
//	err := gen.Generate(ctx, model,
//		gen.WithTarget("./internal/entity"),
//		gen.WithPackage("entity"),
//		gen.WithWorkers(4),
//	)
//
// # Errors
//
//   - ConfigError: an option was invalid or the target is missing
//   - SchemaError: an entity type or property cannot be represented as Go
//   - CollisionError: two entity types map to the same type or file name
//   - GenerationError: a Phase of producing a file failed
//
// Each error type matches its sentinel with errors.Is.
package gen

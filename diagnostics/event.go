// Package diagnostics defines the structured diagnostic events emitted by the
// metadata graph and its tooling, and a zap-backed Logger with one method per
// event.
package diagnostics

import "go.uber.org/zap/zapcore"

// EventID identifies one kind of diagnostic event.
type EventID struct {
	ID    int
	Name  string
	Level zapcore.Level
}

// String returns the event name.
func (e EventID) String() string { return e.Name }

const (
	modelBaseID    = 10000
	toolingBaseID  = 20000
	modelEventSpan = 100
)

// Model mutation events.
var (
	EntityTypeAdded               = EventID{ID: modelBaseID + 1, Name: "EntityTypeAdded", Level: zapcore.DebugLevel}
	EntityTypeRemoved             = EventID{ID: modelBaseID + 2, Name: "EntityTypeRemoved", Level: zapcore.DebugLevel}
	DelegatedEntityTypeAdded      = EventID{ID: modelBaseID + 3, Name: "DelegatedEntityTypeAdded", Level: zapcore.DebugLevel}
	DelegatedEntityTypeRemoved    = EventID{ID: modelBaseID + 4, Name: "DelegatedEntityTypeRemoved", Level: zapcore.DebugLevel}
	BaseTypeChanged               = EventID{ID: modelBaseID + 5, Name: "BaseTypeChanged", Level: zapcore.DebugLevel}
	ChangeTrackingStrategyChanged = EventID{ID: modelBaseID + 6, Name: "ChangeTrackingStrategyChanged", Level: zapcore.InfoLevel}

	PropertyAdded   = EventID{ID: modelBaseID + modelEventSpan + 1, Name: "PropertyAdded", Level: zapcore.DebugLevel}
	PropertyRemoved = EventID{ID: modelBaseID + modelEventSpan + 2, Name: "PropertyRemoved", Level: zapcore.DebugLevel}

	KeyAdded          = EventID{ID: modelBaseID + 2*modelEventSpan + 1, Name: "KeyAdded", Level: zapcore.DebugLevel}
	KeyRemoved        = EventID{ID: modelBaseID + 2*modelEventSpan + 2, Name: "KeyRemoved", Level: zapcore.DebugLevel}
	PrimaryKeyChanged = EventID{ID: modelBaseID + 2*modelEventSpan + 3, Name: "PrimaryKeyChanged", Level: zapcore.DebugLevel}

	ForeignKeyAdded   = EventID{ID: modelBaseID + 3*modelEventSpan + 1, Name: "ForeignKeyAdded", Level: zapcore.DebugLevel}
	ForeignKeyRemoved = EventID{ID: modelBaseID + 3*modelEventSpan + 2, Name: "ForeignKeyRemoved", Level: zapcore.DebugLevel}

	IndexAdded   = EventID{ID: modelBaseID + 4*modelEventSpan + 1, Name: "IndexAdded", Level: zapcore.DebugLevel}
	IndexRemoved = EventID{ID: modelBaseID + 4*modelEventSpan + 2, Name: "IndexRemoved", Level: zapcore.DebugLevel}

	ConventionFailed = EventID{ID: modelBaseID + 5*modelEventSpan + 1, Name: "ConventionFailed", Level: zapcore.WarnLevel}
)

// Tooling events.
var (
	SchemaLoaded    = EventID{ID: toolingBaseID + 1, Name: "SchemaLoaded", Level: zapcore.InfoLevel}
	CodeGenerated   = EventID{ID: toolingBaseID + 2, Name: "CodeGenerated", Level: zapcore.InfoLevel}
	SnapshotWritten = EventID{ID: toolingBaseID + 3, Name: "SnapshotWritten", Level: zapcore.InfoLevel}
)

// Events returns every defined event, ordered by ID.
func Events() []EventID {
	return []EventID{
		EntityTypeAdded,
		EntityTypeRemoved,
		DelegatedEntityTypeAdded,
		DelegatedEntityTypeRemoved,
		BaseTypeChanged,
		ChangeTrackingStrategyChanged,
		PropertyAdded,
		PropertyRemoved,
		KeyAdded,
		KeyRemoved,
		PrimaryKeyChanged,
		ForeignKeyAdded,
		ForeignKeyRemoved,
		IndexAdded,
		IndexRemoved,
		ConventionFailed,
		SchemaLoaded,
		CodeGenerated,
		SnapshotWritten,
	}
}

package diagnostics

import (
	"go.uber.org/zap"
)

// Field keys attached to every event record.
const (
	EventIDKey   = "event_id"
	EventNameKey = "event"
)

// Logger writes diagnostic events to a zap logger. A nil *Logger is valid
// and discards everything.
type Logger struct {
	z       *zap.Logger
	ignored map[int]struct{}
}

// New returns a Logger writing to z. A nil z yields a no-op logger.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewNop returns a Logger that discards all events.
func NewNop() *Logger {
	return New(nil)
}

// Ignore returns a copy of l that suppresses the given events.
func (l *Logger) Ignore(events ...EventID) *Logger {
	if l == nil {
		return nil
	}
	ignored := make(map[int]struct{}, len(l.ignored)+len(events))
	for id := range l.ignored {
		ignored[id] = struct{}{}
	}
	for _, e := range events {
		ignored[e.ID] = struct{}{}
	}
	return &Logger{z: l.z, ignored: ignored}
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.z
}

// Enabled reports whether a record for e would be written.
func (l *Logger) Enabled(e EventID) bool {
	if l == nil {
		return false
	}
	if _, ok := l.ignored[e.ID]; ok {
		return false
	}
	return l.z.Core().Enabled(e.Level)
}

func (l *Logger) log(e EventID, msg string, fields ...zap.Field) {
	if !l.Enabled(e) {
		return
	}
	if ce := l.z.Check(e.Level, msg); ce != nil {
		ce.Write(append(fields, zap.Int(EventIDKey, e.ID), zap.String(EventNameKey, e.Name))...)
	}
}

// EntityTypeAdded logs EntityTypeAdded.
func (l *Logger) EntityTypeAdded(entityType string) {
	l.log(EntityTypeAdded, "entity type added", zap.String("entity_type", entityType))
}

// EntityTypeRemoved logs EntityTypeRemoved.
func (l *Logger) EntityTypeRemoved(entityType string) {
	l.log(EntityTypeRemoved, "entity type removed", zap.String("entity_type", entityType))
}

// DelegatedEntityTypeAdded logs DelegatedEntityTypeAdded.
func (l *Logger) DelegatedEntityTypeAdded(entityType, navigation, owner string) {
	l.log(DelegatedEntityTypeAdded, "entity type with delegated identity added",
		zap.String("entity_type", entityType),
		zap.String("navigation", navigation),
		zap.String("owner", owner),
	)
}

// DelegatedEntityTypeRemoved logs DelegatedEntityTypeRemoved.
func (l *Logger) DelegatedEntityTypeRemoved(entityType string) {
	l.log(DelegatedEntityTypeRemoved, "entity type with delegated identity removed", zap.String("entity_type", entityType))
}

// BaseTypeChanged logs BaseTypeChanged. Empty names stand for no base type.
func (l *Logger) BaseTypeChanged(entityType, oldBase, newBase string) {
	l.log(BaseTypeChanged, "base type changed",
		zap.String("entity_type", entityType),
		zap.String("old_base", oldBase),
		zap.String("new_base", newBase),
	)
}

// ChangeTrackingStrategyChanged logs ChangeTrackingStrategyChanged.
func (l *Logger) ChangeTrackingStrategyChanged(from, to string) {
	l.log(ChangeTrackingStrategyChanged, "change tracking strategy changed", zap.String("from", from), zap.String("to", to))
}

// PropertyAdded logs PropertyAdded.
func (l *Logger) PropertyAdded(entityType, property, typ string) {
	l.log(PropertyAdded, "property added",
		zap.String("entity_type", entityType),
		zap.String("property", property),
		zap.String("type", typ),
	)
}

// PropertyRemoved logs PropertyRemoved.
func (l *Logger) PropertyRemoved(entityType, property string) {
	l.log(PropertyRemoved, "property removed", zap.String("entity_type", entityType), zap.String("property", property))
}

// KeyAdded logs KeyAdded.
func (l *Logger) KeyAdded(entityType string, properties []string) {
	l.log(KeyAdded, "key added", zap.String("entity_type", entityType), zap.Strings("properties", properties))
}

// KeyRemoved logs KeyRemoved.
func (l *Logger) KeyRemoved(entityType string, properties []string) {
	l.log(KeyRemoved, "key removed", zap.String("entity_type", entityType), zap.Strings("properties", properties))
}

// PrimaryKeyChanged logs PrimaryKeyChanged. A nil property list means the
// primary key was cleared.
func (l *Logger) PrimaryKeyChanged(entityType string, properties []string) {
	l.log(PrimaryKeyChanged, "primary key changed", zap.String("entity_type", entityType), zap.Strings("properties", properties))
}

// ForeignKeyAdded logs ForeignKeyAdded.
func (l *Logger) ForeignKeyAdded(dependent string, properties []string, principal string) {
	l.log(ForeignKeyAdded, "foreign key added",
		zap.String("entity_type", dependent),
		zap.Strings("properties", properties),
		zap.String("principal", principal),
	)
}

// ForeignKeyRemoved logs ForeignKeyRemoved.
func (l *Logger) ForeignKeyRemoved(dependent string, properties []string, principal string) {
	l.log(ForeignKeyRemoved, "foreign key removed",
		zap.String("entity_type", dependent),
		zap.Strings("properties", properties),
		zap.String("principal", principal),
	)
}

// IndexAdded logs IndexAdded.
func (l *Logger) IndexAdded(entityType string, properties []string, unique bool) {
	l.log(IndexAdded, "index added",
		zap.String("entity_type", entityType),
		zap.Strings("properties", properties),
		zap.Bool("unique", unique),
	)
}

// IndexRemoved logs IndexRemoved.
func (l *Logger) IndexRemoved(entityType string, properties []string) {
	l.log(IndexRemoved, "index removed", zap.String("entity_type", entityType), zap.Strings("properties", properties))
}

// ConventionFailed logs ConventionFailed.
func (l *Logger) ConventionFailed(convention, entityType string, err error) {
	l.log(ConventionFailed, "convention failed",
		zap.String("convention", convention),
		zap.String("entity_type", entityType),
		zap.Error(err),
	)
}

// SchemaLoaded logs SchemaLoaded.
func (l *Logger) SchemaLoaded(source string, entityTypes int) {
	l.log(SchemaLoaded, "schema loaded", zap.String("source", source), zap.Int("entity_types", entityTypes))
}

// CodeGenerated logs CodeGenerated.
func (l *Logger) CodeGenerated(target string, files int) {
	l.log(CodeGenerated, "code generated", zap.String("target", target), zap.Int("files", files))
}

// SnapshotWritten logs SnapshotWritten.
func (l *Logger) SnapshotWritten(path, fingerprint string) {
	l.log(SnapshotWritten, "snapshot written", zap.String("path", path), zap.String("fingerprint", fingerprint))
}

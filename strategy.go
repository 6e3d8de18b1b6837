package metamodel

import "fmt"

// ChangeTrackingStrategy describes how mutations to mapped instances are detected.
type ChangeTrackingStrategy int

const (
	// Snapshot compares instances against a snapshot of their original values.
	Snapshot ChangeTrackingStrategy = iota
	// ChangedNotifications relies on instances raising changed notifications,
	// with snapshots for original values.
	ChangedNotifications
	// ChangingAndChangedNotifications relies on changing and changed
	// notifications, keeping snapshots of original values.
	ChangingAndChangedNotifications
	// ChangingAndChangedNotificationsWithOriginalValues relies on notifications
	// only, with original values recorded on the changing notification.
	ChangingAndChangedNotificationsWithOriginalValues
)

var strategyNames = [...]string{
	Snapshot:                        "snapshot",
	ChangedNotifications:            "changed_notifications",
	ChangingAndChangedNotifications: "changing_and_changed_notifications",
	ChangingAndChangedNotificationsWithOriginalValues: "changing_and_changed_notifications_with_original_values",
}

// String returns the configuration name of the strategy.
func (s ChangeTrackingStrategy) String() string {
	if s.Valid() {
		return strategyNames[s]
	}
	return fmt.Sprintf("ChangeTrackingStrategy(%d)", int(s))
}

// Valid reports whether s is a recognized strategy.
func (s ChangeTrackingStrategy) Valid() bool {
	return s >= Snapshot && int(s) < len(strategyNames)
}

// ParseChangeTrackingStrategy converts a configuration name into a strategy.
// The empty string yields Snapshot.
func ParseChangeTrackingStrategy(name string) (ChangeTrackingStrategy, error) {
	if name == "" {
		return Snapshot, nil
	}
	for i, n := range strategyNames {
		if n == name {
			return ChangeTrackingStrategy(i), nil
		}
	}
	return Snapshot, NewInvalidMetadataError("", "unknown change tracking strategy %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s ChangeTrackingStrategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, NewInvalidMetadataError("", "unknown change tracking strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ChangeTrackingStrategy) UnmarshalText(text []byte) error {
	v, err := ParseChangeTrackingStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

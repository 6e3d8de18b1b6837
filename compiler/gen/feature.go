package gen

import (
	"os"
	"path/filepath"
	"slices"
)

var (
	// FeatureJSONTags adds json struct tags to the generated fields.
	FeatureJSONTags = Feature{
		Name:        "tags/json",
		Stage:       Stable,
		Default:     true,
		Description: "Adds json struct tags in snake_case; nullable fields and navigations are omitempty",
	}

	// FeatureMsgpackTags adds msgpack struct tags to the generated fields.
	FeatureMsgpackTags = Feature{
		Name:        "tags/msgpack",
		Stage:       Alpha,
		Default:     false,
		Description: "Adds msgpack struct tags in snake_case",
	}

	// FeaturePrimaryKey generates a PrimaryKey method on root entity types.
	FeaturePrimaryKey = Feature{
		Name:        "method/primarykey",
		Stage:       Stable,
		Default:     true,
		Description: "Generates a PrimaryKey method returning the names of the primary key properties",
	}

	// FeatureRegistry generates the model-wide registry file.
	FeatureRegistry = Feature{
		Name:        "registry",
		Stage:       Beta,
		Default:     true,
		Description: "Generates registry.go with the entity types in dependency order",
		cleanup: func(c *Config) error {
			return remove(c.Target, RegistryFile)
		},
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureJSONTags,
		FeatureMsgpackTags,
		FeaturePrimaryKey,
		FeatureRegistry,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development.
	Experimental

	// Alpha features are complete but their output may still change.
	Alpha

	// Beta features are documented, and no breaking changes are expected.
	Beta

	// Stable features have been in use for a while.
	Stable
)

// A Feature of the codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup removes the output of previous codegen runs when the feature is
	// disabled.
	cleanup func(*Config) error
}

// FeatureByName returns the feature with the given name.
func FeatureByName(name string) (Feature, bool) {
	i := slices.IndexFunc(AllFeatures, func(f Feature) bool { return f.Name == name })
	if i < 0 {
		return Feature{}, false
	}
	return AllFeatures[i], true
}

func defaultFeatures() []Feature {
	var fs []Feature
	for _, f := range AllFeatures {
		if f.Default {
			fs = append(fs, f)
		}
	}
	return fs
}

// FeatureEnabled reports whether the named feature is enabled.
func (c *Config) FeatureEnabled(name string) bool {
	return slices.ContainsFunc(c.Features, func(f Feature) bool { return f.Name == name })
}

// cleanupFeatures removes the output of disabled features.
func (c *Config) cleanupFeatures() error {
	for _, f := range AllFeatures {
		if f.cleanup == nil || c.FeatureEnabled(f.Name) {
			continue
		}
		if err := f.cleanup(c); err != nil {
			return NewGenerationError(PhaseCleanup, "", "feature "+f.Name, err)
		}
	}
	return nil
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kpm/internal/domain"

	"gopkg.in/yaml.v3"
)

// instancesSchemaVersion is the current instances.yaml layout version
const instancesSchemaVersion = 1

// InstanceConfig is the YAML representation of an instance
type InstanceConfig struct {
	Path          string  `yaml:"path"`
	ActiveProfile *string `yaml:"active_profile"`
}

// InstancesFile is the top-level instances.yaml structure
type InstancesFile struct {
	Version   int                       `yaml:"version"`
	Instances map[string]InstanceConfig `yaml:"instances"`
}

// instancesPath returns the location of the state store
func instancesPath(configDir string) string {
	return filepath.Join(configDir, "instances.yaml")
}

// legacyInstancesPath is the JSON state store of earlier releases. It is read
// only while instances.yaml does not exist.
func legacyInstancesPath(configDir string) string {
	return filepath.Join(configDir, "instances.json")
}

// LoadInstances reads all registered instances. A missing file is an empty store.
func LoadInstances(configDir string) (map[string]*domain.Instance, error) {
	data, err := os.ReadFile(instancesPath(configDir))
	if errors.Is(err, os.ErrNotExist) {
		data, err = os.ReadFile(legacyInstancesPath(configDir))
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*domain.Instance), nil
		}
		return nil, fmt.Errorf("reading instances.yaml: %w", err)
	}

	file, err := decodeInstances(data)
	if err != nil {
		return nil, fmt.Errorf("%w: instances.yaml: %v", domain.ErrStoreCorrupt, err)
	}

	instances := make(map[string]*domain.Instance, len(file.Instances))
	for name, cfg := range file.Instances {
		if err := domain.ValidateName(name); err != nil {
			return nil, fmt.Errorf("%w: instances.yaml: %v", domain.ErrStoreCorrupt, err)
		}
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: instances.yaml: instance %q has no path", domain.ErrStoreCorrupt, name)
		}
		inst := &domain.Instance{Name: name, Path: cfg.Path}
		if cfg.ActiveProfile != nil {
			inst.ActiveProfile = *cfg.ActiveProfile
		}
		instances[name] = inst
	}

	return instances, nil
}

// decodeInstances accepts the versioned layout and the legacy flat layout
// {name: {path, active_profile}} written by earlier tools
func decodeInstances(data []byte) (*InstancesFile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return &InstancesFile{Version: instancesSchemaVersion}, nil
	}

	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, got %s", kindName(root.Kind))
	}

	if mappingHasKey(root, "version") {
		var file InstancesFile
		if err := root.Decode(&file); err != nil {
			return nil, err
		}
		if file.Version > instancesSchemaVersion {
			return nil, fmt.Errorf("unsupported version %d (max %d)", file.Version, instancesSchemaVersion)
		}
		return &file, nil
	}

	legacy := make(map[string]InstanceConfig)
	if err := root.Decode(&legacy); err != nil {
		return nil, fmt.Errorf("legacy layout: %w", err)
	}
	return &InstancesFile{Version: instancesSchemaVersion, Instances: legacy}, nil
}

func mappingHasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// SaveInstances replaces the state store with the given instances
func SaveInstances(configDir string, instances map[string]*domain.Instance) error {
	file := InstancesFile{
		Version:   instancesSchemaVersion,
		Instances: make(map[string]InstanceConfig, len(instances)),
	}

	for name, inst := range instances {
		cfg := InstanceConfig{Path: inst.Path}
		if inst.ActiveProfile != "" {
			active := inst.ActiveProfile
			cfg.ActiveProfile = &active
		}
		file.Instances[name] = cfg
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshaling instances: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if err := writeFileAtomic(instancesPath(configDir), data); err != nil {
		return fmt.Errorf("writing instances.yaml: %w", err)
	}

	return nil
}

// SaveInstance adds or replaces a single instance
func SaveInstance(configDir string, inst *domain.Instance) error {
	instances, err := LoadInstances(configDir)
	if err != nil {
		return err
	}

	instances[inst.Name] = inst
	return SaveInstances(configDir, instances)
}

// DeleteInstance removes an instance from the state store
func DeleteInstance(configDir, name string) error {
	instances, err := LoadInstances(configDir)
	if err != nil {
		return err
	}

	if _, exists := instances[name]; !exists {
		return domain.ErrInstanceNotFound
	}

	delete(instances, name)
	return SaveInstances(configDir, instances)
}

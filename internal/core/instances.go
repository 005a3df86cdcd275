package core

import (
	"fmt"
	"path/filepath"

	"kpm/internal/domain"
)

// AddInstance registers a game installation under a new name. The path must
// be absolute and contain the data directory.
func (s *Service) AddInstance(name, path string) (*domain.Instance, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	if _, exists := s.instances[name]; exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrInstanceExists, name)
	}
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("installation path must be absolute: %s", path)
	}

	inst := &domain.Instance{Name: name, Path: filepath.Clean(path)}
	if err := requireDir(s.InstanceDataDir(inst)); err != nil {
		return nil, err
	}

	s.instances[name] = inst
	if err := s.saveInstances(); err != nil {
		delete(s.instances, name)
		return nil, err
	}

	s.log.Info().Str("instance", name).Str("path", inst.Path).Msg("instance added")
	return inst, nil
}

// RemoveInstance forgets an instance and deletes its profiles. The game
// installation is never touched.
func (s *Service) RemoveInstance(name string) error {
	inst, err := s.GetInstance(name)
	if err != nil {
		return err
	}

	delete(s.instances, name)
	if err := s.saveInstances(); err != nil {
		s.instances[name] = inst
		return err
	}

	if err := s.profiles.DeleteAll(name); err != nil {
		return err
	}

	s.log.Info().Str("instance", name).Msg("instance removed")
	return nil
}

// GetInstance returns a registered instance
func (s *Service) GetInstance(name string) (*domain.Instance, error) {
	inst, ok := s.instances[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, name)
	}
	return inst, nil
}

// ListInstances returns all registered instances sorted by name
func (s *Service) ListInstances() []*domain.Instance {
	names := sortedNames(s.instances)
	instances := make([]*domain.Instance, len(names))
	for i, name := range names {
		instances[i] = s.instances[name]
	}
	return instances
}

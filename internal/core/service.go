package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kpm/internal/domain"
	"kpm/internal/logging"
	"kpm/internal/storage/cache"
	"kpm/internal/storage/config"
	"kpm/internal/storage/db"
	"kpm/internal/transfer"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir  string              // Directory for configuration files
	DataDir    string              // Directory for the journal, cache and backups
	NoHooks    bool                // Skip configured hook scripts
	Transferer transfer.Transferer // Nil selects the filesystem implementation
}

// Service is the main orchestrator for profile management operations
type Service struct {
	config    *config.Config
	db        *db.DB
	cache     *cache.Cache
	fs        transfer.Transferer
	hooks     *HookRunner
	profiles  *ProfileManager
	instances map[string]*domain.Instance
	healed    []string
	log       zerolog.Logger

	configDir string
	dataDir   string
	backupDir string
	noHooks   bool
}

// NewService creates a new core service instance. Dangling active profile
// references are cleared before it returns.
func NewService(cfg ServiceConfig) (*Service, error) {
	appConfig, err := config.Load(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	database, err := db.New(filepath.Join(cfg.DataDir, "kpm.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	instances, err := config.LoadInstances(cfg.ConfigDir)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	cacheDir := appConfig.CachePath
	if cacheDir == "" {
		cacheDir = filepath.Join(cfg.DataDir, "mods")
	}
	backupDir := appConfig.BackupPath
	if backupDir == "" {
		backupDir = filepath.Join(cfg.DataDir, "backups")
	}

	fs := cfg.Transferer
	if fs == nil {
		fs = transfer.New()
	}

	modCache := cache.New(cacheDir)
	s := &Service{
		config:    appConfig,
		db:        database,
		cache:     modCache,
		fs:        fs,
		hooks:     NewHookRunner(appConfig.HookTimeoutDuration()),
		profiles:  NewProfileManager(cfg.ConfigDir, modCache),
		instances: instances,
		log:       logging.Get("core"),
		configDir: cfg.ConfigDir,
		dataDir:   cfg.DataDir,
		backupDir: backupDir,
		noHooks:   cfg.NoHooks,
	}

	healed, err := s.Heal()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("healing state: %w", err)
	}
	s.healed = healed

	return s, nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Heal clears every active profile reference whose profile file no longer
// exists and persists the store. It returns the healed instance names.
func (s *Service) Heal() ([]string, error) {
	var healed []string
	for _, inst := range s.ListInstances() {
		if !inst.HasActiveProfile() || s.profiles.Exists(inst.Name, inst.ActiveProfile) {
			continue
		}
		s.log.Info().
			Str("instance", inst.Name).
			Str("profile", inst.ActiveProfile).
			Msg("clearing dangling active profile")
		inst.ActiveProfile = ""
		healed = append(healed, inst.Name)
	}

	if len(healed) > 0 {
		if err := s.saveInstances(); err != nil {
			return nil, err
		}
	}
	return healed, nil
}

// Healed returns the instances whose active profile was cleared at startup
func (s *Service) Healed() []string {
	return s.healed
}

// Config returns the loaded application settings
func (s *Service) Config() *config.Config {
	return s.config
}

// ConfigDir returns the configuration directory
func (s *Service) ConfigDir() string {
	return s.configDir
}

// DataDir returns the application data directory
func (s *Service) DataDir() string {
	return s.dataDir
}

// BackupDir returns the directory backups are written to
func (s *Service) BackupDir() string {
	return s.backupDir
}

// Cache returns the mod cache
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Profiles returns the profile manager
func (s *Service) Profiles() *ProfileManager {
	return s.profiles
}

// DB returns the history journal
func (s *Service) DB() *db.DB {
	return s.db
}

// InstanceDataDir returns the data directory of an instance
func (s *Service) InstanceDataDir(inst *domain.Instance) string {
	return inst.DataDir(s.config.DataFolder)
}

// History returns journal entries newest first
func (s *Service) History(instance string, limit int) ([]db.Operation, error) {
	return s.db.ListOperations(instance, limit)
}

// ListProfiles returns the profiles of an instance, active first
func (s *Service) ListProfiles(instanceName string) ([]string, error) {
	inst, err := s.GetInstance(instanceName)
	if err != nil {
		return nil, err
	}
	return s.profiles.List(inst)
}

// DiffProfile compares a profile against the live data directory, ignoring
// stock folders
func (s *Service) DiffProfile(instanceName, profileName string) (*ProfileDiff, error) {
	inst, err := s.GetInstance(instanceName)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(inst.Name, profileName)
	if err != nil {
		return nil, err
	}
	dataDir := s.InstanceDataDir(inst)
	if err := requireDir(dataDir); err != nil {
		return nil, err
	}

	names, err := listDir(dataDir)
	if err != nil {
		return nil, err
	}
	live := make([]string, 0, len(names))
	for _, name := range names {
		if !s.config.IsStock(name) {
			live = append(live, name)
		}
	}

	return s.profiles.Diff(profile, live), nil
}

// DeleteProfile removes a profile of an instance
func (s *Service) DeleteProfile(instanceName, profileName string) error {
	if _, err := s.GetInstance(instanceName); err != nil {
		return err
	}
	if err := s.profiles.Delete(instanceName, profileName); err != nil {
		return err
	}
	s.log.Info().Str("instance", instanceName).Str("profile", profileName).Msg("profile deleted")
	return nil
}

func (s *Service) saveInstances() error {
	if err := config.SaveInstances(s.configDir, s.instances); err != nil {
		return fmt.Errorf("saving instances: %w", err)
	}
	return nil
}

// record appends an operation to the journal. Failures are logged only.
func (s *Service) record(op *db.Operation) {
	if err := s.db.RecordOperation(op); err != nil {
		s.log.Warn().Err(err).Str("kind", string(op.Kind)).Msg("journal write failed")
	}
}

// hookContext describes an operation for hook scripts
func (s *Service) hookContext(inst *domain.Instance, profile, hookName string) HookContext {
	return HookContext{
		Instance:    inst.Name,
		InstallPath: inst.Path,
		DataDir:     s.InstanceDataDir(inst),
		Profile:     profile,
		HookName:    hookName,
	}
}

// runHook runs the script configured for hc.HookName, if any
func (s *Service) runHook(ctx context.Context, hc HookContext) error {
	if s.noHooks {
		return nil
	}
	script := hookFor(s.config.Hooks, hc.HookName)
	if script == "" {
		return nil
	}

	s.log.Debug().Str("hook", hc.HookName).Str("script", script).Msg("running hook")
	result, err := s.hooks.Run(ctx, script, hc)
	if result != nil && result.Stdout != "" {
		s.log.Debug().Str("hook", hc.HookName).Str("stdout", result.Stdout).Msg("hook output")
	}
	if err != nil {
		return fmt.Errorf("%s hook: %w", hc.HookName, err)
	}
	return nil
}

// requireDir fails with ErrDataDirMissing unless path is a directory
func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrDataDirMissing, path)
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrDataDirMissing, path)
	}
	return nil
}

// listDir returns the names of a directory's immediate children in natural order
func listDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	domain.SortNatural(names)
	return names, nil
}

func sortedNames(instances map[string]*domain.Instance) []string {
	names := make([]string, 0, len(instances))
	for name := range instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

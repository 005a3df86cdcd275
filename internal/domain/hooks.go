package domain

// HookConfig defines scripts run around a single operation type
type HookConfig struct {
	Before string `yaml:"before"`
	After  string `yaml:"after"`
}

// IsEmpty returns true if no hooks are configured
func (h HookConfig) IsEmpty() bool {
	return h.Before == "" && h.After == ""
}

// Hooks contains the hooks for every hookable operation
type Hooks struct {
	Apply  HookConfig `yaml:"apply"`
	Update HookConfig `yaml:"update"`
}

// IsEmpty returns true if no hooks are configured
func (h Hooks) IsEmpty() bool {
	return h.Apply.IsEmpty() && h.Update.IsEmpty()
}

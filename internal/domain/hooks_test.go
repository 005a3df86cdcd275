package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookConfig_IsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		config   HookConfig
		expected bool
	}{
		{"all empty", HookConfig{}, true},
		{"has before", HookConfig{Before: "/path/to/script"}, false},
		{"has after", HookConfig{After: "/path/to/script"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsEmpty())
		})
	}
}

func TestHooks_IsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		hooks    Hooks
		expected bool
	}{
		{"all empty", Hooks{}, true},
		{"has apply hook", Hooks{Apply: HookConfig{Before: "/path"}}, false},
		{"has update hook", Hooks{Update: HookConfig{After: "/path"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.hooks.IsEmpty())
		})
	}
}

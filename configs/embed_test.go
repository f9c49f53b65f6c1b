package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/argus/internal/config"
)

func TestTemplates_MatchDefaults(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"project", ProjectConfigTemplate},
		{"user", UserConfigTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: the defaults
			cfg := config.NewConfig()
			require.NotEmpty(t, tt.template)

			// When: the template is decoded over them
			require.NoError(t, yaml.Unmarshal([]byte(tt.template), cfg))

			// Then: nothing changed and the result is valid
			assert.Equal(t, config.NewConfig(), cfg)
			assert.NoError(t, cfg.Validate())
		})
	}
}

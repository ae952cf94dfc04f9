package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		development bool
		wantErr     bool
	}{
		{name: "info production", level: "info"},
		{name: "debug development", level: "debug", development: true},
		{name: "error production", level: "error"},
		{name: "unknown level", level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.level, tt.development)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, l)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.level, l.GetLevel())
		})
	}
}

func TestLogger_SetLevelPropagatesToComponents(t *testing.T) {
	root, err := NewLogger("warn", false)
	require.NoError(t, err)

	projector := root.WithComponent("projector")
	fetcher := root.WithComponent("log-fetcher")
	require.Equal(t, "projector", projector.GetComponent())
	require.Equal(t, "", root.GetComponent())

	require.False(t, projector.atomicLevel.Enabled(zapcore.InfoLevel))

	require.NoError(t, root.SetLevel("debug"))
	require.Equal(t, "debug", projector.GetLevel())
	require.Equal(t, "debug", fetcher.GetLevel())
	require.True(t, projector.atomicLevel.Enabled(zapcore.DebugLevel))

	require.Error(t, root.SetLevel("loud"))
	require.Equal(t, "debug", root.GetLevel())
}

type stubLoggingConfig struct {
	defaultLevel    string
	development     bool
	componentLevels map[string]string
}

func (s *stubLoggingConfig) GetComponentLevel(component string) string {
	if level, ok := s.componentLevels[component]; ok {
		return level
	}
	return s.defaultLevel
}

func (s *stubLoggingConfig) GetDefaultLevel() string { return s.defaultLevel }
func (s *stubLoggingConfig) IsDevelopment() bool     { return s.development }

func TestNewComponentLoggerFromConfig(t *testing.T) {
	tests := []struct {
		name          string
		component     string
		config        LoggingConfig
		expectedLevel string
	}{
		{
			name:      "component override",
			component: "projector",
			config: &stubLoggingConfig{
				defaultLevel:    "info",
				componentLevels: map[string]string{"projector": "debug"},
			},
			expectedLevel: "debug",
		},
		{
			name:          "falls back to default level",
			component:     "downloader",
			config:        &stubLoggingConfig{defaultLevel: "warn", development: true},
			expectedLevel: "warn",
		},
		{
			name:          "nil config",
			component:     "rpc",
			expectedLevel: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewComponentLoggerFromConfig(tt.component, tt.config)
			require.Equal(t, tt.component, l.GetComponent())
			require.Equal(t, tt.expectedLevel, l.GetLevel())
		})
	}
}

func TestNewComponentLogger_PanicsOnInvalidLevel(t *testing.T) {
	require.Panics(t, func() {
		_ = NewComponentLogger("sync-manager", "chatty", false)
	})
}

func TestNewNopLogger(t *testing.T) {
	l := NewNopLogger()

	l.Debugw("discarded", "charge", "0xaa")
	l.Errorf("discarded %d", 1)
	require.Equal(t, "fatal", l.GetLevel())
}

func TestDefaultLogger(t *testing.T) {
	custom := NewNopLogger()
	SetDefaultLogger(custom)
	require.Same(t, custom, GetDefaultLogger())
}

func TestLogger_WithFieldsKeepsComponentAndLevel(t *testing.T) {
	l := NewComponentLogger("projector", "warn", false)

	child := l.WithFields("indexer", "swap-a")
	require.Equal(t, "projector", child.GetComponent())
	require.Equal(t, "warn", child.GetLevel())

	require.NoError(t, l.SetLevel("debug"))
	require.Equal(t, "debug", child.GetLevel())
}

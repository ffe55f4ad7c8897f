package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setEnvAndRun(t *testing.T, env map[string]string, fn func()) {
	t.Helper()

	backup := map[string]string{}
	for k := range env {
		backup[k] = os.Getenv(k)
	}

	for k, v := range env {
		require.NoError(t, os.Setenv(k, v))
	}
	defer func() {
		for k := range env {
			_ = os.Unsetenv(k)
			if old, ok := backup[k]; ok && old != "" {
				_ = os.Setenv(k, old)
			}
		}
	}()

	fn()
}

func withFreshFlagSet(t *testing.T, args []string, fn func()) {
	t.Helper()
	oldFlags := flag.CommandLine
	oldArgs := os.Args
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = append([]string{oldArgs[0]}, args...)
	defer func() {
		flag.CommandLine = oldFlags
		os.Args = oldArgs
	}()
	fn()
}

func TestReadSonarEnvironment(t *testing.T) {
	env := map[string]string{
		"SONAR_HOST":      "https://sonar.example.com",
		"SONAR_PORT":      "9999",
		"SONAR_USER":      "admin",
		"SONAR_PASSWORD":  "hunter2",
		"SONAR_TOKEN":     "tok",
		"SONAR_BASE_PATH": "/sonar",
		"SONAR_TIMEOUT":   "30",
	}

	setEnvAndRun(t, env, func() {
		cfg := defaultSonarConfig()
		readSonarEnvironment(&cfg)

		require.Equal(t, "https://sonar.example.com", cfg.Host)
		require.Equal(t, 9999, cfg.Port)
		require.Equal(t, "admin", cfg.User)
		require.Equal(t, "hunter2", cfg.Password)
		require.Equal(t, "tok", cfg.Token)
		require.Equal(t, "/sonar", cfg.BasePath)
		require.Equal(t, 30, cfg.Timeout)
	})
}

func TestReadSonarEnvironment_InvalidPortKeepsDefault(t *testing.T) {
	setEnvAndRun(t, map[string]string{"SONAR_PORT": "not-a-number"}, func() {
		cfg := defaultSonarConfig()
		readSonarEnvironment(&cfg)
		require.Equal(t, defaultPort, cfg.Port)
	})
}

func TestNewExportConfig_Flags(t *testing.T) {
	args := []string{
		"-host", "sonar.internal", "-port", "9001",
		"-user", "u", "-password", "p",
		"-output-dir", "/tmp/out", "-active-only",
		"-profile", "java-way", "-languages", "java,py",
	}
	withFreshFlagSet(t, args, func() {
		cfg := NewExportConfig()

		// scheme gets normalized onto bare hosts
		require.Equal(t, "http://sonar.internal", cfg.Sonar.Host)
		require.Equal(t, 9001, cfg.Sonar.Port)
		require.Equal(t, "u", cfg.Sonar.User)
		require.Equal(t, "/tmp/out", cfg.OutputDir)
		require.True(t, cfg.ActiveOnly)
		require.Equal(t, "java-way", cfg.Profile)
		require.Equal(t, "java,py", cfg.Languages)
		require.NotNil(t, cfg.Logger)
	})
}

func TestNewExportConfig_Defaults(t *testing.T) {
	withFreshFlagSet(t, nil, func() {
		cfg := NewExportConfig()
		require.Equal(t, defaultHost, cfg.Sonar.Host)
		require.Equal(t, defaultPort, cfg.Sonar.Port)
		require.Equal(t, defaultTimeout, cfg.Sonar.Timeout)
		require.Equal(t, "~", cfg.OutputDir)
		require.False(t, cfg.ActiveOnly)
	})
}

func TestNewExportConfig_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	js := `{"host":"https://json.example.com","port":9100,"token":"json-tok"}`
	require.NoError(t, os.WriteFile(path, []byte(js), 0o600))

	// Explicit flag beats the file; file fills the rest.
	withFreshFlagSet(t, []string{"-c", path, "-port", "9200"}, func() {
		cfg := NewExportConfig()
		require.Equal(t, "https://json.example.com", cfg.Sonar.Host)
		require.Equal(t, 9200, cfg.Sonar.Port)
		require.Equal(t, "json-tok", cfg.Sonar.Token)
	})
}

func TestNewActivateConfig_Positionals(t *testing.T) {
	withFreshFlagSet(t, []string{"-authtoken", "tok", "java-way", "rules.csv"}, func() {
		cfg, err := NewActivateConfig()
		require.NoError(t, err)
		require.Equal(t, "java-way", cfg.ProfileKey)
		require.Equal(t, "rules.csv", cfg.Filename)
		require.Equal(t, "tok", cfg.Sonar.Token)
	})
}

func TestNewActivateConfig_MissingArgs(t *testing.T) {
	withFreshFlagSet(t, []string{"only-profile"}, func() {
		_, err := NewActivateConfig()
		require.Error(t, err)
	})
}

func TestNewMigrateConfig_Prefixes(t *testing.T) {
	args := []string{
		"-source-host", "https://old.example.com", "-source-port", "9000",
		"-source-user", "su", "-source-password", "sp",
		"-target-host", "https://new.example.com", "-target-authtoken", "tt",
	}
	withFreshFlagSet(t, args, func() {
		cfg := NewMigrateConfig()
		require.Equal(t, "https://old.example.com", cfg.Source.Host)
		require.Equal(t, "su", cfg.Source.User)
		require.Equal(t, "https://new.example.com", cfg.Target.Host)
		require.Equal(t, "tt", cfg.Target.Token)
		// untouched sides keep defaults
		require.Equal(t, defaultPort, cfg.Target.Port)
	})
}

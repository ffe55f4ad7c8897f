// Package config provides application configuration structures and helpers.
package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SonarConfig holds the connection settings for one SonarQube server.
type SonarConfig struct {
	Host     string // Server host, including http(s) scheme
	Port     int    // Server port
	User     string // Authentication user
	Password string // Authentication password
	Token    string // Authentication token, preferred over user/password
	BasePath string // Base path of the Sonar installation, e.g. "/sonar"
	Timeout  int    // HTTP client timeout (in seconds)
}

const (
	defaultHost    = "http://localhost"
	defaultPort    = 9000
	defaultTimeout = 10
)

func defaultSonarConfig() SonarConfig {
	return SonarConfig{
		Host:    defaultHost,
		Port:    defaultPort,
		Timeout: defaultTimeout,
	}
}

// sonarFlags groups the set-tracking flag values for one server connection.
// A prefix ("source-", "target-") allows two connections in one flag set.
type sonarFlags struct {
	host, user, password, token, basePath strFlag
	port, timeout                         intFlag
}

func (sf *sonarFlags) register(prefix string) {
	flag.Var(&sf.host, prefix+"host", "SonarQube server host (must include http(s)://)")
	flag.Var(&sf.port, prefix+"port", "SonarQube server port")
	flag.Var(&sf.user, prefix+"user", "authentication user")
	flag.Var(&sf.password, prefix+"password", "authentication password")
	flag.Var(&sf.token, prefix+"authtoken", "authentication token (preferred over user/password)")
	flag.Var(&sf.basePath, prefix+"basepath", "base path of the Sonar installation")
	flag.Var(&sf.timeout, prefix+"timeout", "HTTP client timeout (seconds)")
}

func (sf *sonarFlags) apply(cfg *SonarConfig) {
	if sf.host.set {
		cfg.Host = sf.host.v
	}
	if sf.port.set {
		cfg.Port = sf.port.v
	}
	if sf.user.set {
		cfg.User = sf.user.v
	}
	if sf.password.set {
		cfg.Password = sf.password.v
	}
	if sf.token.set {
		cfg.Token = sf.token.v
	}
	if sf.basePath.set {
		cfg.BasePath = sf.basePath.v
	}
	if sf.timeout.set {
		cfg.Timeout = sf.timeout.v
	}
}

func (sf *sonarFlags) applyJSON(js *sonarJSON, cfg *SonarConfig) {
	if js == nil {
		return
	}
	if js.Host != nil && !sf.host.set {
		cfg.Host = *js.Host
	}
	if js.Port != nil && !sf.port.set {
		cfg.Port = *js.Port
	}
	if js.User != nil && !sf.user.set {
		cfg.User = *js.User
	}
	if js.Password != nil && !sf.password.set {
		cfg.Password = *js.Password
	}
	if js.Token != nil && !sf.token.set {
		cfg.Token = *js.Token
	}
	if js.BasePath != nil && !sf.basePath.set {
		cfg.BasePath = *js.BasePath
	}
}

func readSonarEnvironment(cfg *SonarConfig) {
	if host := os.Getenv("SONAR_HOST"); host != "" {
		cfg.Host = host
	}

	portEnv := os.Getenv("SONAR_PORT")
	if portEnv != "" {
		v, err := strconv.Atoi(portEnv)
		if err == nil {
			cfg.Port = v
		} else {
			log.Printf("invalid SONAR_PORT env var: %v", err)
		}
	}

	if user := os.Getenv("SONAR_USER"); user != "" {
		cfg.User = user
	}

	if password := os.Getenv("SONAR_PASSWORD"); password != "" {
		cfg.Password = password
	}

	if token := os.Getenv("SONAR_TOKEN"); token != "" {
		cfg.Token = token
	}

	if basePath := os.Getenv("SONAR_BASE_PATH"); basePath != "" {
		cfg.BasePath = basePath
	}

	timeoutEnv := os.Getenv("SONAR_TIMEOUT")
	if timeoutEnv != "" {
		v, err := strconv.Atoi(timeoutEnv)
		if err == nil {
			cfg.Timeout = v
		} else {
			log.Printf("invalid SONAR_TIMEOUT env var: %v", err)
		}
	}
}

// normalizeHost makes sure the host carries an http(s) scheme.
func normalizeHost(cfg *SonarConfig) {
	if !strings.HasPrefix(cfg.Host, "http://") && !strings.HasPrefix(cfg.Host, "https://") {
		cfg.Host = "http://" + cfg.Host
	}
}

func newLogger() *zap.SugaredLogger {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}

	return zap.Must(logCfg.Build()).Sugar()
}

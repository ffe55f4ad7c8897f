// internal/config/config_json.go
package config

import (
	"encoding/json"
	"os"
)

type sonarJSON struct {
	Host     *string `json:"host"`
	Port     *int    `json:"port"`
	User     *string `json:"user"`
	Password *string `json:"password"`
	Token    *string `json:"token"`
	BasePath *string `json:"base_path"`
}

func loadSonarJSON(path string) (*sonarJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c sonarJSON
	return &c, json.Unmarshal(b, &c)
}

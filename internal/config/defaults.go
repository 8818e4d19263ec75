package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"backend":      BackendEventKit,
		"log_level":    "info",
		"default_list": "", // empty means the backend's own default list
		"caldav": map[string]interface{}{
			"url":      "https://caldav.icloud.com",
			"username": "",
			"password": "",
		},
		"sqlite": map[string]interface{}{
			"path": "~/.mcp-reminders/reminders.db",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.mcp-reminders/config.yaml"
}

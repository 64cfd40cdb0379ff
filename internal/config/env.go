package config

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ServerEnv reads the configured env_file relative to workDir.
// It returns nil when no env_file is configured.
func (c *Config) ServerEnv(workDir string) (map[string]string, error) {
	if c.EnvFile == "" {
		return nil, nil
	}
	path := c.EnvFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load env file %s: %w", path, err)
	}
	return vars, nil
}

// InstallerEnv returns the proxy variables exported to the installer.
// It is empty unless a proxy is explicitly configured.
func (c *Config) InstallerEnv() map[string]string {
	if c.Proxy == "" {
		return nil
	}
	return map[string]string{
		"HTTP_PROXY":  c.Proxy,
		"HTTPS_PROXY": c.Proxy,
		"http_proxy":  c.Proxy,
		"https_proxy": c.Proxy,
	}
}

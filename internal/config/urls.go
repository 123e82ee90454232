// Package config provides URL and settings management for taskwatch.
//
// This package handles API URL resolution for production and development
// environments, reading port configuration from .env files when in dev mode,
// and loading the user settings file.
package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ProdAPIURL is the production API base URL.
	ProdAPIURL = "https://api.funmagic.ai/api"

	// DefaultBackendPort is the fallback port if apps/funmagic-backend/.env is not found.
	DefaultBackendPort = "3000"

	// backendDir is the backend app directory inside the monorepo.
	backendDir = "apps/funmagic-backend"

	// portCheckTimeout is the timeout for checking if a port is open.
	portCheckTimeout = 100 * time.Millisecond
)

// commonBackendPorts are the ports to try when auto-detecting the backend.
// Order matters - most common ports first.
var commonBackendPorts = []string{"3000", "3001", "8787", "8080"}

// findMonorepoRoot searches upward from the current directory to find the monorepo root.
// The root is identified by having an apps/funmagic-backend/ directory.
//
// Returns:
//   - string: The path to the monorepo root, or empty string if not found
func findMonorepoRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, backendDir)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// readPortFromEnv reads the PORT value from an .env file.
//
// Parameters:
//   - path: The path to the .env file
//
// Returns:
//   - string: The port value, or empty string if not found
func readPortFromEnv(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "PORT=") {
			return strings.Trim(strings.TrimPrefix(line, "PORT="), `"'`)
		}
	}
	return ""
}

// GetBackendPort reads the PORT from apps/funmagic-backend/.env.
// Falls back to DefaultBackendPort if the file is not found.
//
// Returns:
//   - string: The backend port number
func GetBackendPort() string {
	// First check environment variable override
	if port := os.Getenv("FUNMAGIC_BACKEND_PORT"); port != "" {
		return port
	}

	root := findMonorepoRoot()
	if root == "" {
		return DefaultBackendPort
	}
	if port := readPortFromEnv(filepath.Join(root, backendDir, ".env")); port != "" {
		return port
	}
	return DefaultBackendPort
}

// GetBackendPortWithAutoDetect reads the configured backend port, and if no
// server is listening on it, tries common alternative ports.
//
// Returns:
//   - string: The backend port number (either from config or auto-detected)
func GetBackendPortWithAutoDetect() string {
	if port := os.Getenv("FUNMAGIC_BACKEND_PORT"); port != "" {
		return port
	}

	configuredPort := GetBackendPort()
	if isPortOpen("localhost", configuredPort) {
		return configuredPort
	}

	for _, port := range commonBackendPorts {
		if port != configuredPort && isPortOpen("localhost", port) {
			return port
		}
	}

	// Fall back to configured port even if not responding
	// (let the actual request fail with a clear error)
	return configuredPort
}

// isPortOpen checks if a TCP port is open on the given host.
func isPortOpen(host, port string) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), portCheckTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// GetAPIURL returns the API base URL based on the dev mode setting.
// FUNMAGIC_API_URL overrides both modes.
//
// Parameters:
//   - devMode: If true, returns localhost URL with auto-detected port
//
// Returns:
//   - string: The API base URL
func GetAPIURL(devMode bool) string {
	if u := os.Getenv("FUNMAGIC_API_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	if devMode {
		return fmt.Sprintf("http://localhost:%s/api", GetBackendPortWithAutoDetect())
	}
	return ProdAPIURL
}

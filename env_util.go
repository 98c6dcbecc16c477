package restbase

import "os"

// GetEnvOrDefault returns the value of the environment variable key, or
// defaultValue when it is unset or empty. Examples and integration tests
// use it to locate a backend without hardcoding project credentials.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "sqlsift.yml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "sqlsift.yaml"

// FindConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	ymlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	yamlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing sqlsift.yml or sqlsift.yaml.
// Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// LoadVarsFile reads a YAML file of name->value pairs to use as a template
// context. Nested mappings are additionally flattened into dotted keys, so
// "user: {id: 1}" satisfies both a nested lookup and a flat "user.id"
// reference.
func LoadVarsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vars file: %w", err)
	}

	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parsing vars file %s: %w", path, err)
	}

	flat := make(map[string]any)
	for k, v := range vars {
		if nested, ok := v.(map[string]any); ok {
			flattenInto(flat, k, nested)
		}
	}
	for k, v := range flat {
		vars[k] = v
	}
	return vars, nil
}

// flattenInto records a dotted key under prefix for every entry of src,
// recursing into nested mappings.
func flattenInto(dst map[string]any, prefix string, src map[string]any) {
	for k, v := range src {
		key := prefix + "." + k
		dst[key] = v
		if nested, ok := v.(map[string]any); ok {
			flattenInto(dst, key, nested)
		}
	}
}

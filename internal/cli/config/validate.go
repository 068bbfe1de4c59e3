package config

import (
	"fmt"
	"os"
)

// validOutputs are the accepted values for the output setting.
var validOutputs = map[string]bool{
	"text":     true,
	"json":     true,
	"markdown": true,
	"table":    true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TemplatesDir == "" {
		return fmt.Errorf("templates_dir is required")
	}
	if c.OutputFormat != "" && !validOutputs[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (valid: text, json, markdown, table)", c.OutputFormat)
	}

	// Directory existence is validated separately so help commands work
	// without a valid directory
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.TemplatesDir); os.IsNotExist(err) {
		return fmt.Errorf("templates directory does not exist: %s\nHint: Create the directory or use --templates-dir to specify a different path", c.TemplatesDir)
	}
	return nil
}

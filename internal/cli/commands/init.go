package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	intconfig "github.com/sqlsift/sqlsift/internal/config"
)

const initConfigContent = `# sqlsift project configuration
templates_dir: templates
# vars_file: vars.yml
output: text # text|json|markdown|table

adapter:
  driver: duckdb # duckdb|postgres|sqlite
  # dsn: ""

history:
  enabled: true
  path: .sqlsift/history.db

server:
  host: 127.0.0.1
  port: 4455

watch:
  debounce_ms: 100
  extensions: [.sql, .sql.j2]
`

const initExampleTemplate = `SELECT
    id,
    name,
    created_at
FROM users
WHERE tenant_id = {{ tenant_id }}
{% if region %}
  AND region = {{ region | upper }}
{% endif %}
{% if only_deleted %}
  AND deleted_at IS NOT NULL
{% endif %}
ORDER BY created_at DESC
LIMIT {{ limit | default(100) }}
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new sqlsift project",
		Long: `Initialize a sqlsift project with a configuration file and an example
template.

This creates:
  - sqlsift.yml configuration file
  - templates/ directory with an example template`,
		Example: `  # Initialize in the current directory
  sqlsift init

  # Initialize in a new directory
  sqlsift init my-project

  # Overwrite an existing configuration
  sqlsift init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := NewCommandContext(cmd).Renderer

	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	if err := os.WriteFile(configPath, []byte(initConfigContent), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", intconfig.ConfigFileName, err)
	}

	templatesDir := filepath.Join(dir, "templates")
	if err := os.MkdirAll(templatesDir, 0o750); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}

	examplePath := filepath.Join(templatesDir, "example.sql.j2")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) || force {
		if err := os.WriteFile(examplePath, []byte(initExampleTemplate), 0o644); err != nil {
			return fmt.Errorf("failed to write example template: %w", err)
		}
	}

	r.Success(intconfig.ConfigFileName)
	r.Success("templates/example.sql.j2")
	r.Println("")
	r.Success("sqlsift project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  sqlsift vars templates/example.sql.j2     Inspect the extracted variables")
	r.Println("  sqlsift render templates/example.sql.j2   Render with demo values")
	r.Println("  sqlsift serve                             Open the playground")

	return nil
}

package commands

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Host      string
	Port      int
	NoBrowser bool
	NoWatch   bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the template playground server",
		Long: `Start a local web server with an interactive template playground.

The playground analyzes templates as you type: variable descriptors,
block decisions, reduced SQL, and a demo render. Changes to files in
the templates directory trigger a live refresh.`,
		Example: `  # Start on the configured host and port
  sqlsift serve

  # Custom port, no browser
  sqlsift serve --port 3000 --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to bind (default from config)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default from config)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "Don't watch the templates directory")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	serverCfg := cfg.GetServer()
	host := serverCfg.Host
	if opts.Host != "" {
		host = opts.Host
	}
	port := serverCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	store, cleanup, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer cleanup()

	uiCfg := ui.Config{
		Analyzer:      cmdCtx.Analyzer,
		Store:         store,
		Host:          host,
		Port:          port,
		SessionSecret: sessionSecret(),
		Logger:        cmdCtx.Logger,
	}
	if !opts.NoWatch {
		uiCfg.TemplatesDir = cfg.TemplatesDir
		uiCfg.Watch = cfg.GetWatch()
	}

	server := ui.NewServer(uiCfg)

	url := fmt.Sprintf("http://%s:%d", host, port)
	if !opts.NoBrowser {
		go openBrowser(url)
	}

	cmdCtx.Renderer.Printf("Starting playground on %s\n", url)
	cmdCtx.Renderer.Println("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}

// sessionSecret returns the playground cookie secret.
func sessionSecret() string {
	if secret := os.Getenv("SQLSIFT_SESSION_SECRET"); secret != "" {
		return secret
	}
	// Default secret for local development.
	return "sqlsift-dev-secret-change-in-production"
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	_ = cmd.Start()
}

package cmd

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/buildr-dev/buildr/internal/config"
	"github.com/buildr-dev/buildr/internal/server"
)

var (
	servePort int
	serveHost string
)

// serveCmd runs the collaboration sync server
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the collaboration sync server",
	Long: `Serve starts the websocket sync server editors connect to for
real-time collaboration. Each project id maps to one room; frames published
by a peer are relayed to every other member of the same room.

Examples:
  buildr serve
  buildr serve --port 9000 --host 0.0.0.0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind to (default from config)")

	if f := serveCmd.Flags().Lookup("port"); f != nil {
		f.Value = &validatingValue{Value: f.Value, validate: validatePort}
	}
}

// validatingValue wraps a flag value so bad input fails at parse time
// instead of surfacing later as a bind error.
type validatingValue struct {
	pflag.Value
	validate func(string) error
}

func (v *validatingValue) Set(s string) error {
	if err := v.validate(s); err != nil {
		return err
	}
	return v.Value.Set(s)
}

func validatePort(s string) error {
	port, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", s)
	}
	// 0 means "use the configured port".
	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         newLogger(),
	})
	return srv.Start(ctx)
}

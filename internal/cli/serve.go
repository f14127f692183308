package cli

import (
	"github.com/spf13/cobra"

	"skillgap/internal/common"
	"skillgap/internal/config"
	"skillgap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the skill-gap analysis.

Available endpoints:
- POST /analyze: Analyze a CV against a target role
- POST /index/rebuild: Rebuild the knowledge base index
- GET /roles: Known target roles
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS is enabled when both --cert-file and --key-file (or server.tls.*) are set.
With knowledge.watch enabled, edits to the knowledge base trigger a rebuild.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags struct {
	port     string
	host     string
	certFile string
	keyFile  string
	watch    bool
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	f.StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	f.StringVar(&serveFlags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	f.StringVar(&serveFlags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	f.BoolVar(&serveFlags.watch, "watch", false, "Rebuild the index when knowledge base files change")
}

// applyServeOverrides copies explicitly set flags over the configuration.
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = serveFlags.port
	}
	if flags.Changed("host") {
		cfg.Server.Host = serveFlags.host
	}
	if flags.Changed("cert-file") {
		cfg.Server.TLS.CertFile = serveFlags.certFile
	}
	if flags.Changed("key-file") {
		cfg.Server.TLS.KeyFile = serveFlags.keyFile
	}
	if flags.Changed("watch") {
		cfg.Knowledge.Watch = serveFlags.watch
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	comps, err := common.NewComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logger.LogError(err, "Failed to release resources")
		}
	}()

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: requestSizeLimit(cfg.App.MaxFileSize),
		RateLimit:      &cfg.Server.RateLimit,
		Index:          comps.Index,
		Narrator:       comps.Narrator,
		Catalog:        comps.Catalog,
		Sources:        comps.Sources,
	}
	return server.NewServer(cfg, serverCfg, logger).Start()
}

// requestSizeLimit leaves room for a base64-encoded CV of maxFileSize
// bytes plus the other JSON fields.
func requestSizeLimit(maxFileSize int64) int64 {
	if maxFileSize <= 0 {
		return 0
	}
	return maxFileSize/3*4 + 64*1024
}

// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jnovack/rusqbin/internal/config"
	"github.com/jnovack/rusqbin/pkg/admin"
	"github.com/jnovack/rusqbin/pkg/bins"
	"github.com/jnovack/rusqbin/pkg/logging"
	"github.com/jnovack/rusqbin/pkg/server"
	"github.com/jnovack/rusqbin/pkg/signals"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const greet = `
**************************** Rusqbin ****************************

Send:
- POST    /rusqbins                    To create a bin and get back bin_id
- GET     /rusqbins                    To list bin summaries
- GET     /rusqbins/${bin_id}          To get bin-specific summary information
- GET     /rusqbins/${bin_id}/requests To get detailed request information for a bin
- DELETE  /rusqbins/${bin_id}          To delete a bin

In any other case, send requests with a X-Rusqbin-Id header with a
bin_id to have your requests logged to a bin for later retrieval.
`

func main() {
	ctx, stop := signals.Notify(context.Background())
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("rusqbin failed")
	}
}

// run starts the bin API and the admin listener and blocks until ctx is
// canceled or one of them fails.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load(args)
	if errors.Is(err, config.ErrVersion) {
		fmt.Fprintln(stdout, "rusqbin", version)
		return nil
	}
	if err != nil {
		return err
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	metrics := admin.NewMetrics()
	srv := server.New(server.Config{
		Addr:              cfg.Addr,
		Store:             bins.NewInMemory(),
		Metrics:           metrics,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	})

	apiLn, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	var adminLn net.Listener
	if cfg.AdminAddr != "" {
		adminLn, err = net.Listen("tcp", cfg.AdminAddr)
		if err != nil {
			_ = apiLn.Close()
			return fmt.Errorf("listen %s: %w", cfg.AdminAddr, err)
		}
	}

	log.Info().
		Str("addr", apiLn.Addr().String()).
		Str("adminAddr", cfg.AdminAddr).
		Str("logLevel", cfg.LogLevel).
		Str("version", version).
		Msg("starting rusqbin")

	if cfg.Banner {
		fmt.Fprint(stdout, greet)
		fmt.Fprintf(stdout, "\nServer started on %s\n", apiLn.Addr())
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ServeListener(ctx, apiLn) })
	if adminLn != nil {
		adminSrv := &http.Server{
			Handler:           admin.NewMux(metrics, cfg),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		}
		g.Go(func() error {
			return server.RunHTTPServer(ctx, adminSrv, adminLn, cfg.ShutdownTimeout)
		})
	}

	err = g.Wait()
	log.Info().Msg("rusqbin stopped")
	return err
}

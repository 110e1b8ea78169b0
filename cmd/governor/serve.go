package governor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	voting "github.com/bjoernek/multi-chain-voting"
	"github.com/bjoernek/multi-chain-voting/api"
	"github.com/bjoernek/multi-chain-voting/config"
	"github.com/bjoernek/multi-chain-voting/internal/logging"
	"github.com/bjoernek/multi-chain-voting/sdk"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
	"github.com/bjoernek/multi-chain-voting/sdk/evm/aggregator"
	"github.com/bjoernek/multi-chain-voting/store"
)

const shutdownTimeout = 10 * time.Second

func buildServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the governor daemon",
		Long:  `Configure the daemon with GOVERNOR_* environment variables, optionally read from a .env file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "File with GOVERNOR_* variables, skipped if missing")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	zl, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	lggr := zl.Sugar()
	ctx = sdk.ContextWithLogger(ctx, lggr)

	chainName, err := cfg.ChainName()
	if err != nil {
		return err
	}
	lggr.Infof("Starting governor for %s (chain id %d) with %d providers", chainName, cfg.ChainID, len(cfg.Providers))

	st, err := store.Open(store.WithDataDir(cfg.DataDir), store.WithLogger(lggr))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			lggr.Errorf("Failed to close store: %v", cerr)
		}
	}()

	agg, err := aggregator.New(ctx, cfg.ProviderList())
	if err != nil {
		return err
	}
	defer agg.Close()

	contract, err := evm.DefaultContract()
	if err != nil {
		return err
	}
	contractAddress, err := evm.ParseAddress(cfg.ContractAddress)
	if err != nil {
		return err
	}
	gateway := evm.NewGateway(agg, contract, contractAddress, evm.WithMaxResponseBytes(cfg.MaxResponseBytes))

	signer, closeSigner, err := newSigningService(ctx, cfg.Signer)
	if err != nil {
		return err
	}
	defer closeSigner()

	resolver, err := voting.NewStaticResolver(cfg.Identities)
	if err != nil {
		return err
	}
	txParams, err := cfg.TxParams()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine := voting.NewEngine(st, resolver, gateway, signer,
		voting.WithTxParams(txParams),
		voting.WithMetrics(voting.NewMetrics(registry)),
	)

	address, err := engine.GetEthAddress(ctx)
	if err != nil {
		return fmt.Errorf("failed to derive the coordinator address: %w", err)
	}
	lggr.Infof("Coordinator address %s, governance contract %s", address, evm.FormatAddress(contractAddress))

	gin.SetMode(gin.ReleaseMode)
	handler, err := api.NewHandler(api.NewService(engine), lggr, registry)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		engine.Run(gctx, cfg.SweepInterval.Duration)

		return nil
	})
	g.Go(func() error {
		lggr.Infof("Listening on %s", cfg.ListenAddress)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lggr.Infof("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		handler.Close()

		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	engine.Wait()

	return err
}

func newSigningService(ctx context.Context, cfg config.SignerConfig) (sdk.SigningService, func(), error) {
	if cfg.Mode == config.SignerModeRemote {
		signer, err := voting.NewRemoteSigner(ctx, cfg.URL, cfg.KeyID, cfg.DerivationPath)
		if err != nil {
			return nil, nil, err
		}

		return signer, signer.Close, nil
	}

	signer, err := voting.NewPrivateKeySignerFromHex(cfg.PrivateKey)
	if err != nil {
		return nil, nil, err
	}

	return signer, func() {}, nil
}

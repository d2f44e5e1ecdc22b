// Command bsprice prices European call and put options with the
// Black-Scholes formula.
//
// Usage:
//
//	bsprice                       prompt for inputs (terminal form on a TTY)
//	bsprice --plain               line prompts, prints "call, put"
//	bsprice --serve --addr :8080  HTTP API and web form
//	bsprice --platform binance --pair BTC_USDT
//	                              prefill spot and volatility from the market
//
// Exchange credentials are read from the environment or a .env file:
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	BYBIT_API_KEY, BYBIT_API_SECRET
//	HYPERLIQUID_PRIVATE_KEY, HYPERLIQUID_API_URL
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/bsprice/config"
	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/internal/prompt"
	"github.com/vadiminshakov/bsprice/internal/services/market"
	"github.com/vadiminshakov/bsprice/internal/services/quoter"
	"github.com/vadiminshakov/bsprice/internal/setup"
	"github.com/vadiminshakov/bsprice/internal/storage/quotes"
	"github.com/vadiminshakov/bsprice/internal/web"
	"github.com/vadiminshakov/bsprice/pkg/retrier"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Get()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitConfig
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, closeStore, err := newQuoter(cfg, logger)
	if err != nil {
		return reportError(os.Stderr, err)
	}
	defer closeStore()

	if cfg.Serve {
		if err := serve(ctx, cfg, q, logger); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return exitFailure
		}
		return 0
	}

	return interactive(ctx, cfg, q, logger)
}

func newLogger(cfg config.Config) *zap.Logger {
	if !cfg.Serve && !cfg.Verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newQuoter(cfg config.Config, logger *zap.Logger) (*quoter.Quoter, func(), error) {
	if cfg.NoHistory {
		return quoter.New(nil, logger), func() {}, nil
	}

	store, err := quotes.NewWALStore(cfg.WALDir)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close quote store", zap.Error(err))
		}
	}
	return quoter.New(store, logger), closeStore, nil
}

func serve(ctx context.Context, cfg config.Config, q *quoter.Quoter, logger *zap.Logger) error {
	srv := web.NewServer(cfg.Addr, q, cfg.Precision, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(cfg.TLSDomains) > 0 {
			return srv.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.TLSCacheDir)
		}
		return srv.Start(ctx)
	})
	return g.Wait()
}

func interactive(ctx context.Context, cfg config.Config, q *quoter.Quoter, logger *zap.Logger) int {
	defaults := prompt.Defaults{}
	for name, v := range cfg.Defaults {
		defaults[name] = v
	}

	var note string
	if cfg.MarketAssisted() {
		assisted, err := assistInputs(ctx, cfg, logger)
		if err != nil {
			return reportError(os.Stderr, err)
		}
		defaults["spot"] = assisted.Spot
		defaults["volatility"] = assisted.Volatility
		note = fmt.Sprintf("%s on %s: spot %g, realized volatility %.4f over %d %s candles",
			assisted.Pair.String(), cfg.Platform, assisted.Spot, assisted.Volatility, assisted.Candles, cfg.Interval)
	}

	useTUI := !cfg.Plain && isatty.IsTerminal(os.Stdin.Fd())

	var (
		in     domain.OptionInputs
		err    error
		source string
	)
	if useTUI {
		source = domain.SourceTUI
		in, err = setup.RunTUI(defaults, note)
	} else {
		source = domain.SourceCLI
		if note != "" {
			fmt.Fprintln(os.Stderr, note)
		}
		p := prompt.New(os.Stdin, os.Stdout)
		p.Retries = cfg.PromptRetries
		in, err = p.ReadInputs(defaults)
		if err == nil {
			fmt.Fprintln(os.Stdout)
		}
	}
	if err != nil {
		return reportError(os.Stderr, err)
	}

	quote, err := q.Quote(ctx, in, source)
	if err != nil && quote.ID == "" {
		return reportError(os.Stderr, err)
	}
	if err != nil {
		// priced but not recorded
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	if useTUI {
		fmt.Println(setup.RenderQuote(quote, cfg.Precision))
		return 0
	}
	fmt.Println(prompt.FormatPrices(quote.Prices, cfg.Precision))
	return 0
}

func assistInputs(ctx context.Context, cfg config.Config, logger *zap.Logger) (market.Assisted, error) {
	source, err := market.NewSource(cfg.Platform, cfg.Credentials)
	if err != nil {
		return market.Assisted{}, err
	}

	r := retrier.New(
		retrier.WithMaxRetries(cfg.Retries),
		retrier.WithRetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retrier.WithOnRetry(func(attempt int, err error) {
			logger.Warn("market request failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		}),
	)

	return market.NewAssistant(source, r, cfg.Interval, cfg.Lookback, logger).Assist(ctx, *cfg.Pair)
}

const (
	exitFailure = 1
	exitConfig  = 2
	exitAborted = 130
)

// exitCode maps an interactive-mode error to the process exit code and the
// message shown to the user. An aborted form exits quietly.
func exitCode(err error) (int, string) {
	var parseErr *prompt.ParseError
	var inputErr *domain.InputError
	switch {
	case err == nil:
		return 0, ""
	case errors.Is(err, huh.ErrUserAborted):
		return exitAborted, ""
	case errors.As(err, &parseErr):
		return exitFailure, "Error: " + parseErr.Error()
	case errors.As(err, &inputErr):
		return exitFailure, "Error: " + inputErr.Error()
	default:
		return exitFailure, "Error: " + err.Error()
	}
}

func reportError(w io.Writer, err error) int {
	code, msg := exitCode(err)
	if msg != "" {
		fmt.Fprintln(w, msg)
	}
	return code
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/VTGare/Taterboard/arikawautils/middlewares"
	"github.com/VTGare/Taterboard/bot"
	"github.com/VTGare/Taterboard/commands"
	"github.com/VTGare/Taterboard/community"
	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/metrics"
	"github.com/VTGare/Taterboard/store"
	"github.com/VTGare/Taterboard/store/file"
	"github.com/VTGare/Taterboard/store/mongo"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/spf13/afero"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	kfile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const envPrefix = "TATERBOARD_"

var config = koanf.NewWithConf(koanf.Conf{
	Delim:       ".",
	StrictMerge: true,
})

func main() {
	if err := initializeConfig(); err != nil {
		log.Fatalf("failed to intialize config: %v", err)
	}

	logger, err := initializeLogger()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = ctxzap.ToContext(ctx, logger)

	persist, err := initializeStore(ctx)
	if err != nil {
		logger.With("error", err).Fatal("failed to initialize storage")
	}

	loaded, err := persist.LoadAll(ctx)
	if err != nil {
		logger.With("error", err).Fatal("failed to load guilds")
	}
	logger.With("guilds", len(loaded)).Info("loaded guilds")

	owner := discord.UserID(config.Int64("bot.owner"))
	communities := community.New(loaded, func() ledger.Config {
		return ledger.DefaultConfig(owner)
	})

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	m.Communities.Set(float64(communities.Len()))

	if addr := config.String("metrics.address"); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.With("error", err, "address", addr).Error("metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	b := bot.New(logger, config, persist, communities, m)

	b.AddMiddleware(middlewares.CommandLog(logger))
	commands.RegisterCommands(b)

	startErr := b.Start(ctx)

	// The gateway context is already cancelled at this point.
	shutdown, cancel := context.WithTimeout(ctxzap.ToContext(context.Background(), logger), 30*time.Second)
	defer cancel()

	if err := b.SaveAll(shutdown); err != nil {
		logger.With("error", err).Error("failed to save guilds on shutdown")
	} else {
		logger.With("guilds", communities.Len()).Info("saved guilds")
	}

	if err := persist.Close(shutdown); err != nil {
		logger.With("error", err).Warn("failed to close storage")
	}

	if startErr != nil {
		logger.With("error", startErr).Fatal("failed to start the bot")
	}
}

func initializeStore(ctx context.Context) (store.Store, error) {
	var (
		persist store.Store
		err     error
	)

	switch driver := config.String("store.driver"); driver {
	case "", "file":
		path := config.String("store.path")
		if path == "" {
			path = "taterboard_data"
		}

		persist = file.New(afero.NewOsFs(), path)
	case "mongo":
		persist, err = mongo.New(ctx, config.String("mongo.uri"), config.String("mongo.database"))
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unknown store driver: " + driver)
	}

	if err := persist.Init(ctx); err != nil {
		return nil, err
	}

	return persist, nil
}

func initializeLogger() (*zap.SugaredLogger, error) {
	if config.Bool("dev.mode") {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}

		return log.Sugar(), nil
	}

	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}

func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
}

func initializeConfig() error {
	// Load JSON config
	jsonPath := "config.json"
	if fileExists(jsonPath) {
		if err := config.Load(kfile.Provider(jsonPath), json.Parser()); err != nil {
			return err
		}
	}

	// Load environment variables
	if err := config.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return err
	}

	// Load .env file
	dotenvPath := ".env"
	if fileExists(dotenvPath) {
		if err := config.Load(kfile.Provider(dotenvPath), dotenv.ParserEnv(envPrefix, ".", envKey)); err != nil {
			return err
		}
	}

	return nil
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

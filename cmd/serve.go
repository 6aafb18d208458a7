package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/filtering"
	"github.com/spigell/crna-fit/internal/fitscore"
	"github.com/spigell/crna-fit/internal/logger"
	"github.com/spigell/crna-fit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fit-score API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", server.DefaultAddr, "listen address")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	schools, err := catalog.LoadSchools(config.Schools)
	if err != nil {
		logger.Fatal("loading schools", zap.Error(err))
	}

	filter, err := newProfanityFilter(config.Profanity, logger)
	if err != nil {
		logger.Fatal("building the profanity filter", zap.Error(err))
	}

	verifier, err := newLicenseVerifier(config.License, logger)
	if err != nil {
		logger.Fatal("building the license verifier", zap.Error(err))
	}

	advisor := optionalAdvisor(ctx, config.AI, logger)

	srv := server.New(&server.Deps{
		Schools:   schools,
		Profanity: filter,
		License:   verifier,
		Steps: func(profile *fitscore.UserProfile) []filtering.Filter {
			return prepareSteps(config, profile, advisor, logger)
		},
		Logger: logger,
	})

	logger.Info("starting the crna-fit server",
		zap.String("version", version),
		zap.Int("schools", schools.Len()),
	)

	if err := srv.Serve(ctx, config.Server.Addr); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}

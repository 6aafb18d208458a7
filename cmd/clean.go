package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/logger"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [text...]",
	Short: "Mask profanity in the given text or stdin",
	Run: func(cmd *cobra.Command, args []string) {
		clean(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolP("check", "c", false, "only report found words; exit with status 1 when any are found")
	cleanCmd.Flags().String("cache", "", "word list cache: none, memory or redis. Overrides the config")

	viper.BindPFlag("profanity.cache", cleanCmd.Flags().Lookup("cache"))
}

func clean(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	filter, err := newProfanityFilter(config.Profanity, logger)
	if err != nil {
		logger.Fatal("building the profanity filter", zap.Error(err))
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			logger.Fatal("reading stdin", zap.Error(err))
		}
		text = string(data)
	}

	if check, _ := cmd.Flags().GetBool("check"); check {
		words := filter.Find(ctx, text)
		if len(words) == 0 {
			logger.Info("no profanity found")
			return
		}
		logger.Info("profanity found", zap.Strings("words", words))
		os.Exit(1)
	}

	fmt.Fprint(cmd.OutOrStdout(), filter.Clean(ctx, text))
}

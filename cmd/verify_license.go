package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/license"
	"github.com/spigell/crna-fit/internal/logger"
)

var verifyLicenseCmd = &cobra.Command{
	Use:   "verify-license",
	Short: "Verify a nursing license",
	Run: func(cmd *cobra.Command, _ []string) {
		verifyLicense(cmd)
	},
}

func init() {
	rootCmd.AddCommand(verifyLicenseCmd)

	verifyLicenseCmd.Flags().StringP("number", "n", "", "license number")
	verifyLicenseCmd.Flags().StringP("state", "s", "", "two-letter state code of the issuing board")
	verifyLicenseCmd.Flags().String("first-name", "", "license holder first name")
	verifyLicenseCmd.Flags().String("last-name", "", "license holder last name")
	verifyLicenseCmd.Flags().String("mode", "", "verifier: mock or http. Overrides the config")

	viper.BindPFlag("license.mode", verifyLicenseCmd.Flags().Lookup("mode"))
}

func verifyLicense(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	verifier, err := newLicenseVerifier(config.License, logger)
	if err != nil {
		logger.Fatal("building the license verifier", zap.Error(err))
	}

	query := license.Query{
		LicenseNumber: cmd.Flag("number").Value.String(),
		State:         cmd.Flag("state").Value.String(),
		FirstName:     cmd.Flag("first-name").Value.String(),
		LastName:      cmd.Flag("last-name").Value.String(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	verification, err := verifier.Verify(ctx, query)
	if err != nil {
		logger.Fatal("verifying license", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(verification, "", "  ")
	fmt.Println(string(pretty))

	if !verification.Active() {
		logger.Warn("license is not active", zap.String("status", verification.Status))
	}
}

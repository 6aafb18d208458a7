package cmd

import (
	"context"
	"fmt"
	"log"

	json "github.com/goccy/go-json"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/fitscore"
	"github.com/spigell/crna-fit/internal/logger"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the profile against a single school",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("school", "s", "", "school id or name. Asks interactively when unset")
	scoreCmd.Flags().StringP("profile", "p", "", "json file with the applicant profile. Overrides the profile from config")
	scoreCmd.Flags().Bool("advise", false, "ask the AI advisor for next steps")
	scoreCmd.Flags().StringP("output", "o", outputText, "output format: text or json")
}

func score(cmd *cobra.Command) {
	ctx := context.Background()

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
	if schools.Len() == 0 {
		logger.Fatal("no schools configured", zap.String("hint", "add a schools list to the config file"))
	}

	profile, err := loadProfile(config, cmd.Flag("profile").Value.String())
	if err != nil {
		logger.Fatal("loading profile", zap.Error(err))
	}

	school, err := selectSchool(schools, cmd.Flag("school").Value.String())
	if err != nil {
		logger.Fatal("selecting a school", zap.Error(err))
	}

	result := fitscore.Calculate(school, profile)
	match := &catalog.Match{School: school, Result: result, Color: fitscore.Color(result.Score)}

	if advise, _ := cmd.Flags().GetBool("advise"); advise {
		cfg := *config.AI
		cfg.Enabled = true
		advisor, err := newAdvisor(ctx, &cfg, logger)
		if err != nil {
			logger.Fatal("building the advisor", zap.Error(err))
		}

		advice, err := advisor.Advise(ctx, school, profile, &result)
		if err != nil {
			logger.Warn("AI advice failed", zap.Error(err))
			match.Advice = &catalog.Advice{Error: err.Error()}
		} else {
			match.Advice = &catalog.Advice{Summary: advice.Summary, NextSteps: advice.NextSteps, Raw: advice.Raw}
		}
	}

	if cmd.Flag("output").Value.String() == outputJSON {
		pretty, _ := json.MarshalIndent(match, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	reportMatch(logger, match)
}

func selectSchool(schools *catalog.Schools, query string) (*fitscore.School, error) {
	if query != "" {
		if school := schools.FindByID(query); school != nil {
			return school, nil
		}
		if school := schools.FindByName(query); school != nil {
			return school, nil
		}
		return nil, fmt.Errorf("there is no such school %q", query)
	}

	schoolPrompt := promptui.Select{
		Label: "Choose a school and press ENTER",
		Items: schools.Names(),
		Size:  10,
	}

	idx, _, err := schoolPrompt.Run()
	if err != nil {
		return nil, err
	}
	return schools.Items[idx], nil
}

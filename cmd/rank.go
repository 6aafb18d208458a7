package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/ai"
	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/logger"
)

const (
	PromptShowRanking         = "Show ranking"
	PromptReportByStates      = "Report by states"
	PromptInspectSchool       = "Inspect a school"
	PromptMatchesToFile       = "Dump matches to file"
	PromptAppendToExcludeFile = "Append all schools to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
	excludeReason             = "excluded from ranking"
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank every configured school for the profile",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("profile", "p", "", "json file with the applicant profile. Overrides the profile from config")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "print the ranking without asking")
	rankCmd.Flags().StringP("output", "o", outputText, "output format: text or json")
	rankCmd.Flags().StringP("exclude-file", "e", "", "file with schools to exclude. Default is unset.")
	rankCmd.Flags().Int("minimum-score", 0, "drop schools scoring below this value")
	rankCmd.Flags().Bool("skip-ai", false, "do not ask the AI advisor even when ai.enabled is set")

	viper.BindPFlag("filters.exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("filters.minimum-score", rankCmd.Flags().Lookup("minimum-score"))
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the crna-fit ranking", zap.String("version", version))

	schools, err := catalog.LoadSchools(config.Schools)
	if err != nil {
		logger.Fatal("loading schools", zap.Error(err))
	}

	profile, err := loadProfile(config, cmd.Flag("profile").Value.String())
	if err != nil {
		logger.Fatal("loading profile", zap.Error(err))
	}

	matches := schools.Score(profile)
	matches.SortByScore()
	logger.Info("scored schools", zap.Int("count", matches.Len()))

	skipAI, _ := cmd.Flags().GetBool("skip-ai")

	var advisor ai.Advisor
	if !skipAI {
		advisor = optionalAdvisor(ctx, config.AI, logger)
	}
	filters := newPipeline(config, profile, advisor, skipAI, logger)

	matches, err = filters.RunFilters(ctx, matches)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if cmd.Flag("output").Value.String() == outputJSON {
		pretty, _ := json.MarshalIndent(matches, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	if matches.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no schools left after filters"))
		return
	}

	if auto, _ := cmd.Flags().GetBool("auto-approve"); auto {
		fmt.Print(matches.String())
		return
	}

	prompt := promptui.Select{
		Label: "What next?",
		Items: []string{PromptShowRanking, PromptReportByStates, PromptInspectSchool, PromptMatchesToFile, PromptExit},
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of schools", zap.Int("count", matches.Len()))

		if err := handleAction(action, logger, config, matches); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, matches *catalog.Matches) error {
	switch action {
	case PromptShowRanking:
		fmt.Print(matches.String())
		return nil
	case PromptReportByStates:
		pretty, _ := json.MarshalIndent(matches.ReportByState(), "", "  ")
		logger.Info(string(pretty), zap.Int("schools count", matches.Len()))
		return nil
	case PromptInspectSchool:
		return inspect(logger, config, matches)
	case PromptMatchesToFile:
		filename, err := matches.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// inspect lets the user walk through single schools and optionally move the whole list to
// the exclude file.
func inspect(logger *zap.Logger, config *Config, matches *catalog.Matches) error {
	for {
		items := make([]string, 0, matches.Len()+2)
		for _, m := range matches.Items {
			items = append(items, fmt.Sprintf("%s %s / %s / %d%%", m.School.ID, m.School.Name, m.School.State, m.Result.Score))
		}

		excludeFile := config.Filters.ExcludeFile
		if excludeFile != "" && matches.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		schoolPrompt := promptui.Select{
			Label: "Choose a school and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		_, selected, err := schoolPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			excluded, err := catalog.GetExcludedSchoolsFromFile(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(matches.ToExcluded(excludeReason))

			if err = excluded.ToFile(excludeFile); err != nil {
				return err
			}

			logger.Info("appended to exclude file", zap.String("filename", excludeFile))

			matches.Exclude(catalog.MatchIDField, excluded.SchoolIDs())
		default:
			id := strings.Split(selected, " ")[0]

			match := matches.FindByID(id)
			if match == nil {
				return fmt.Errorf("there is no such school id %s", id)
			}

			reportMatch(logger, match)
		}
	}
}

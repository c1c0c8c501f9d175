package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/fos"
	"github.com/spigell/unifit/internal/logger"
	"github.com/spigell/unifit/internal/textutil"
)

var programsCmd = &cobra.Command{
	Use:   "programs [filter]",
	Short: "List the program names accepted as a major",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		programs(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(programsCmd)
}

func programs(cmd *cobra.Command, args []string) {
	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug"), Output: "stderr"})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config.Data == nil || config.Data.FieldsOfStudy == "" {
		logger.Fatal("data.fields-of-study is required to list programs")
	}

	offerings, stats, err := fos.LoadFile(config.Data.FieldsOfStudy)
	if err != nil {
		logger.Fatal("loading fields of study", zap.Error(err))
	}
	index := fos.NewIndex(offerings)
	logger.Debug("fields of study loaded", zap.Int("rows", stats.Rows), zap.Int("dropped", stats.Dropped))

	needle := ""
	if len(args) == 1 {
		needle = strings.ToLower(textutil.Normalize(args[0]))
	}

	count := 0
	for _, name := range index.Programs() {
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		count++
	}
	logger.Info("programs listed", zap.Int("count", count), zap.Int("institutions_indexed", len(offeringIDs(offerings))))
}

func offeringIDs(offerings []fos.Offering) map[int]struct{} {
	ids := make(map[int]struct{})
	for _, o := range offerings {
		ids[o.InstitutionID] = struct{}{}
	}
	return ids
}

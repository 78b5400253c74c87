package main

import (
	"fmt"

	"github.com/kwhite/azchat/internal/logger"
	"github.com/kwhite/azchat/internal/storage/transcript"
	"github.com/spf13/cobra"
)

var transcriptsDay string

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Inspect archived chat transcripts",
}

var transcriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived transcript keys",
	Args:  cobra.NoArgs,
	RunE:  runTranscriptsList,
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print one archived transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscriptsShow,
}

func init() {
	transcriptsListCmd.Flags().StringVar(&transcriptsDay, "day", "", "limit to a YYYY/MM/DD prefix")
	transcriptsCmd.AddCommand(transcriptsListCmd)
	transcriptsCmd.AddCommand(transcriptsShowCmd)
	rootCmd.AddCommand(transcriptsCmd)
}

func newReader() (*transcript.Reader, error) {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, err
	}
	return transcript.ReaderFromConfig(cfg.Archive)
}

func runTranscriptsList(cmd *cobra.Command, args []string) error {
	reader, err := newReader()
	if err != nil {
		return err
	}

	keys, err := reader.List(cmd.Context(), transcriptsDay)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func runTranscriptsShow(cmd *cobra.Command, args []string) error {
	reader, err := newReader()
	if err != nil {
		return err
	}

	ex, err := reader.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("created:    %s\n", ex.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("deployment: %s\n", ex.Deployment)
	fmt.Printf("tokens:     %d in / %d out\n", ex.InputTokens, ex.OutputTokens)
	if ex.SystemMessage != "" {
		fmt.Printf("system:     %s\n", ex.SystemMessage)
	}
	fmt.Printf("\n> %s\n\n%s\n", ex.Prompt, ex.Completion)
	return nil
}

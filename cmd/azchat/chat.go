package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/kwhite/azchat/internal/chat"
	"github.com/kwhite/azchat/internal/config"
	"github.com/kwhite/azchat/internal/logger"
	"github.com/kwhite/azchat/internal/storage/transcript"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	chatSystem      string
	chatVars        []string
	chatTemperature float64
	chatMaxTokens   int
	chatTimeout     time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a single message and print the completion",
	Long: `Send a single message to the configured deployment. When --var flags
are given the message is treated as a template with {name} placeholders.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "system message")
	chatCmd.Flags().StringArrayVar(&chatVars, "var", nil, "template variable as key=value (repeatable)")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", -1, "sampling temperature override")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "completion token limit override")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 0, "per-call timeout override")
	rootCmd.AddCommand(chatCmd)
}

// loadConfig reads the config file, or falls back to AZURE_* environment
// variables when no file is given.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	log.Debug("no config file specified, reading AZURE_* environment")
	return config.FromEnv(), nil
}

func newClient(cfg *config.Config, log *zap.Logger, opts ...chat.ClientOption) (*chat.Client, error) {
	recorder, err := transcript.FromConfig(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	opts = append(opts, chat.WithLogger(log))
	if recorder != nil {
		opts = append(opts, chat.WithRecorder(recorder))
	}

	client, err := chat.NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return client, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, log)
	if err != nil {
		return err
	}

	var opts []chat.Option
	if chatSystem != "" {
		opts = append(opts, chat.WithSystemMessage(chatSystem))
	}
	if chatTemperature >= 0 {
		opts = append(opts, chat.WithTemperature(chatTemperature))
	}
	if chatMaxTokens > 0 {
		opts = append(opts, chat.WithMaxTokens(chatMaxTokens))
	}
	if chatTimeout > 0 {
		opts = append(opts, chat.WithTimeout(chatTimeout))
	}

	ctx := cmd.Context()
	var resp *chat.Response
	if len(chatVars) > 0 {
		vars, err := parseVars(chatVars)
		if err != nil {
			return err
		}
		resp, err = client.ChatWithTemplate(ctx, args[0], vars, opts...)
		if err != nil {
			return err
		}
	} else {
		resp, err = client.Chat(ctx, args[0], opts...)
		if err != nil {
			return err
		}
	}

	fmt.Println(resp.Content)
	return nil
}

func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/researchatlas/atlas/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, the config file and the environment
are combined. With --human the output is YAML that can be saved as a config file:

  atlas --human config > atlas.yml

API keys are never printed; only whether each required key is set.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path   string            `json:"path,omitempty"`
	Config *config.AppConfig `json:"config"`
	Keys   map[string]bool   `json:"api_keys"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, path, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\n%s", err, config.HelpfulConfigMessage())
	}

	if humanOutput {
		data, err := cfg.YAML()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if path != "" {
			fmt.Printf("# from %s\n", path)
		}
		os.Stdout.Write(data)
	} else {
		outputJSON(ConfigResponse{Path: path, Config: cfg, Keys: apiKeyStatus(cfg)})
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "\ninvalid configuration:\n%v\n", err)
		os.Exit(ExitConfigError)
	}
	return nil
}

// apiKeyStatus reports which of the keys needed by cfg are present.
func apiKeyStatus(cfg *config.AppConfig) map[string]bool {
	status := make(map[string]bool)
	for _, provider := range []string{cfg.LLM.Provider, cfg.Embedding.Provider} {
		env := config.APIKeyEnv(provider)
		if env == "" {
			continue
		}
		_, err := config.APIKey(provider)
		status[env] = err == nil
	}
	return status
}

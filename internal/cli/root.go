package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v          *viper.Viper
	configPath string
	settings   Settings
	client     *APIClient
}

func (a *app) init() error {
	settings, err := loadSettings(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.settings = settings
	a.client = NewAPIClient(settings.Server, settings.APIKey, settings.Timeout)
	return nil
}

// NewRootCmd builds the nexusctl command tree. Each call owns its own viper
// instance so trees are independent.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "nexusctl",
		Short: "Nexus 竞品分析专家命令行客户端",
		Long: `nexusctl drives a running Nexus server over its HTTP API.

Commands:
  models     Manage model configurations and the active model
  analyze    Run a competitive analysis
  reports    List, show, export and delete saved reports

Examples:
  nexusctl models add --name "Local Qwen" --provider ollama --base-url http://localhost:11434/v1 --model qwen2.5:7b
  nexusctl models activate custom-1700000000000
  nexusctl analyze --domain finance --competitor Stripe --competitor Adyen --purpose market_entry --region china --stream
  nexusctl reports export <id> -o report.html

Config: ~/.nexus/nexusctl.yaml (server, api_key, timeout), or NEXUS_SERVER / NEXUS_API_KEY / NEXUS_TIMEOUT`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", DefaultConfigPath(), "config file")
	flags.String("server", "", "Nexus server URL (default "+defaultServerURL+")")
	flags.String("api-key", "", "API key sent as x-api-key")
	flags.Duration("timeout", 0, "timeout for blocking requests (default "+defaultTimeout.String()+")")
	_ = a.v.BindPFlag("server", flags.Lookup("server"))
	_ = a.v.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = a.v.BindPFlag("timeout", flags.Lookup("timeout"))

	root.AddCommand(newModelsCmd(a))
	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newReportsCmd(a))
	return root
}

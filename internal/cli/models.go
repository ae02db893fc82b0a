package cli

import (
	"errors"
	"fmt"

	"nexus/internal/core"
	"nexus/internal/util"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage model configurations",
	}
	cmd.AddCommand(
		newModelsListCmd(a),
		newModelsAddCmd(a),
		newModelsUpdateCmd(a),
		newModelsRemoveCmd(a),
		newModelsActivateCmd(a),
		newModelsTestCmd(a),
		newModelsOllamaCmd(a),
	)
	return cmd
}

func newModelsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List model configurations; the active one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			active := ""
			if state.ActiveModelID != nil {
				active = *state.ActiveModelID
			}

			tw := newTable(cmd.OutOrStdout())
			printf(tw, "\tID\tNAME\tPROVIDER\tMODEL\tBASE URL\tAPI KEY\tENABLED\n")
			for _, m := range state.Models {
				marker := ""
				if m.ID == active {
					marker = "*"
				}
				printf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
					marker, m.ID, m.Name, m.Provider, m.Model, m.BaseURL, util.MaskSecret(m.APIKey), m.Enabled)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if active == "" {
				printf(cmd.ErrOrStderr(), "未选择活动模型\n")
			}
			return nil
		},
	}
}

func newModelsAddCmd(a *app) *cobra.Command {
	var in core.ModelInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new model configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.client.AddModel(cmd.Context(), in)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "已添加模型 %s (%s)\n", model.ID, model.Name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.Provider, "provider", core.ProviderOllama, "ollama, lmstudio, openai or custom")
	f.StringVar(&in.BaseURL, "base-url", "", "OpenAI-compatible base URL, e.g. http://localhost:11434/v1")
	f.StringVar(&in.APIKey, "model-api-key", "", "backend API key")
	f.StringVar(&in.Model, "model", "", "backend model name")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("base-url")
	return cmd
}

func newModelsUpdateCmd(a *app) *cobra.Command {
	var (
		name, provider, baseURL, apiKey, model string
		enabled                                bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a model configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.ModelPatch
			f := cmd.Flags()
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("provider") {
				patch.Provider = &provider
			}
			if f.Changed("base-url") {
				patch.BaseURL = &baseURL
			}
			if f.Changed("model-api-key") {
				patch.APIKey = &apiKey
			}
			if f.Changed("model") {
				patch.Model = &model
			}
			if f.Changed("enabled") {
				patch.Enabled = &enabled
			}
			if patch == (core.ModelPatch{}) {
				return errors.New("nothing to update: pass at least one field flag")
			}

			updated, err := a.client.UpdateModel(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "已更新模型 %s (%s)\n", updated.ID, updated.Name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&provider, "provider", "", "ollama, lmstudio, openai or custom")
	f.StringVar(&baseURL, "base-url", "", "OpenAI-compatible base URL")
	f.StringVar(&apiKey, "model-api-key", "", "backend API key")
	f.StringVar(&model, "model", "", "backend model name")
	f.BoolVar(&enabled, "enabled", true, "enable or disable the configuration")
	return cmd
}

func newModelsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a model configuration",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.RemoveModel(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "已删除模型 %s\n", args[0])
			return nil
		},
	}
}

func newModelsActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Select the model used for new analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.client.ActivateModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "活动模型: %s (%s)\n", model.Name, model.ID)
			return nil
		},
	}
}

func newModelsTestCmd(a *app) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "test <id>",
		Short: "Send a short test prompt to a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.client.TestModel(cmd.Context(), args[0], message)
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("连接失败: %s", result.Error)
			}
			printf(cmd.OutOrStdout(), "%s\n%s\n", result.Message, result.Response)
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "test prompt (default: "+core.DefaultTestMessage+")")
	return cmd
}

func newModelsOllamaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ollama",
		Short: "List models installed in the server's local Ollama",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.client.OllamaModels(cmd.Context())
			if err != nil {
				return err
			}
			if len(models) == 0 {
				printf(cmd.ErrOrStderr(), "Ollama 中没有已安装的模型\n")
				return nil
			}
			for _, m := range models {
				printf(cmd.OutOrStdout(), "%s\n", m.Name)
			}
			return nil
		},
	}
}

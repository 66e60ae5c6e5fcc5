package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cli "github.com/blimu-dev/asyncapi-gen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := cli.NewViper()
	root := &cobra.Command{
		Use:           "asyncapi-gen",
		Short:         "Generate Go clients and service scaffolds from AsyncAPI contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.AddLogFlags(root.PersistentFlags())

	root.AddCommand(newGenerateCmd(v))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newWatchCmd(v))

	if err := root.ExecuteContext(ctx); err != nil {
		cli.PrintError(err)
		stop()
		os.Exit(1)
	}
}

func bind(v *viper.Viper) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return cli.BindFlags(cmd, v)
	}
}

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a client (or service scaffold) from an AsyncAPI contract",
		PreRunE: bind(v),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunGenerate(cmd.Context(), cli.GenerateParams(v))
		},
	}
	cli.AddGenerateFlags(cmd.Flags())
	return cmd
}

func newWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Regenerate whenever the contract or config file changes",
		PreRunE: bind(v),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunWatch(cmd.Context(), cli.GenerateParams(v))
		},
	}
	cli.AddGenerateFlags(cmd.Flags())
	return cmd
}

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an AsyncAPI contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunValidate(input)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "AsyncAPI contract file (yaml/json)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"basegraph.app/mergebot/internal/labels"
	"basegraph.app/mergebot/internal/model"
	"basegraph.app/mergebot/internal/repoconfig"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "policyctl",
		Short:         "Inspect mergebot label policy files",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.AddCommand(newCheckCmd())
	root.AddCommand(newPlanCmd())
	return root
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a policy file and print the parsed policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			printPolicy(cmd.OutOrStdout(), cfg.Labels)
			return nil
		},
	}
}

func newPlanCmd() *cobra.Command {
	var pr int64

	cmd := &cobra.Command{
		Use:   "plan <file> <trigger>",
		Short: "Print the label calls a trigger would issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			trigger, err := labels.ParseTrigger(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			client := &printingClient{out: out}
			repo := &labels.RepositoryState{
				Name:   model.NewRepoName("local", "policy"),
				Policy: cfg.Labels,
				Client: client,
			}
			if err := labels.Reconcile(context.Background(), repo, model.PullRequestNumber(pr), trigger); err != nil {
				return err
			}
			if client.calls == 0 {
				fmt.Fprintf(out, "%s: no label changes\n", trigger)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&pr, "pr", 1, "pull request number shown in the plan")
	return cmd
}

func loadConfig(path string) (repoconfig.RepoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return repoconfig.RepoConfig{}, err
	}
	return repoconfig.Parse(data)
}

func printPolicy(w io.Writer, policy labels.Policy) {
	for _, trigger := range labels.Triggers() {
		mods, ok := policy.Lookup(trigger)
		if !ok {
			continue
		}
		parts := make([]string, len(mods))
		for i, mod := range mods {
			parts[i] = mod.String()
		}
		fmt.Fprintf(w, "%s: %s\n", trigger, strings.Join(parts, " "))
	}
}

// printingClient records the calls Reconcile would make against the platform.
type printingClient struct {
	out   io.Writer
	calls int
}

func (c *printingClient) AddLabels(ctx context.Context, pr model.PullRequestNumber, names []string) error {
	c.calls++
	fmt.Fprintf(c.out, "add %s %s\n", pr, strings.Join(names, ","))
	return nil
}

func (c *printingClient) RemoveLabels(ctx context.Context, pr model.PullRequestNumber, names []string) error {
	c.calls++
	fmt.Fprintf(c.out, "remove %s %s\n", pr, strings.Join(names, ","))
	return nil
}

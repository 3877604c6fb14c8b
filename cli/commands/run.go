package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loopworks/cfgbench/cli/keystore"
	"github.com/loopworks/cfgbench/core"
	"github.com/loopworks/cfgbench/openai"
	"github.com/loopworks/cfgbench/scenario"
)

func (a *App) newRunCommand() *cobra.Command {
	run := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark scenario",
		Long: `Run one scenario in one tool-definition mode. Each scenario has a
<name>-schema and a <name>-grammar variant; both drive the same exchange and
write a snapshot under the output directory.`,
	}

	run.PersistentFlags().BoolVar(&a.parallel, "parallel", false, "execute a round's tool calls concurrently")
	run.PersistentFlags().IntVar(&a.maxRounds, "max-rounds", 0, "round-trip cap (default 10)")

	for _, entry := range scenario.All() {
		for _, mode := range []scenario.Mode{scenario.ModeSchema, scenario.ModeGrammar} {
			build := entry.New
			m := mode
			run.AddCommand(&cobra.Command{
				Use:   fmt.Sprintf("%s-%s", entry.Name, mode),
				Short: fmt.Sprintf("Run the %s scenario with %s tools", entry.Name, mode),
				Args:  cobra.NoArgs,
				RunE: func(cmd *cobra.Command, args []string) error {
					return a.runScenario(cmd.Context(), build, m)
				},
			})
		}
	}

	return run
}

func (a *App) runScenario(ctx context.Context, build scenario.Constructor, mode scenario.Mode) error {
	apiKey, err := a.resolveAPIKey()
	if err != nil {
		return err
	}
	svc := a.newService(apiKey)

	logger := log.New(io.Discard, "", 0)
	if a.verbose {
		logger = log.New(a.stderr, "", log.LstdFlags)
	}

	sc := build(scenario.Config{
		Mode:      mode,
		OutputDir: a.cfg.OutputDir,
		Logger:    logger,
	})

	result, err := sc.Run(ctx, svc, scenario.RunOptions{
		Model:     core.ModelID(a.cfg.Model),
		Effort:    core.ReasoningEffort(a.cfg.ReasoningEffort),
		MaxRounds: a.maxRounds,
		Parallel:  a.parallel,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s (%s): %d round-trip(s), %d token(s)\n",
		sc.Name, mode, result.Rounds, result.Usage.TotalTokens)
	for _, rs := range result.RoundStats {
		fmt.Fprintf(a.stdout, "  round %d: %s\n", rs.Round, strings.Join(rs.ToolNames, ", "))
	}
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, result.FinalText)

	return nil
}

// resolveAPIKey resolves the credential: environment first, then the
// keystore. The key value is never printed or logged.
func (a *App) resolveAPIKey() (string, error) {
	if key := os.Getenv(openai.DefaultAPIKeyEnvVar); key != "" {
		return key, nil
	}

	ks, err := a.newKeystore()
	if err != nil {
		return "", fmt.Errorf("open keystore: %w", err)
	}

	key, err := ks.Get("openai")
	if err != nil {
		var notFound *keystore.ErrKeyNotFound
		if errors.As(err, &notFound) {
			return "", core.ErrMissingCredential
		}
		return "", fmt.Errorf("read keystore: %w", err)
	}
	return key, nil
}

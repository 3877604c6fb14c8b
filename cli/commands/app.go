package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopworks/cfgbench/cli/config"
	"github.com/loopworks/cfgbench/cli/keystore"
	"github.com/loopworks/cfgbench/core"
	"github.com/loopworks/cfgbench/openai"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// ServiceFactory creates the remote service client from an API key.
type ServiceFactory func(apiKey string) core.Service

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newKeystore KeystoreFactory
	newService  ServiceFactory
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile   string
	verbose   bool
	parallel  bool
	maxRounds int

	cfg *config.Config
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithServiceFactory injects a service factory dependency.
func WithServiceFactory(factory ServiceFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newService = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.LoadConfig,
		newKeystore: keystore.NewKeystore,
		newService: func(apiKey string) core.Service {
			return openai.New(apiKey)
		},
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cfgbench",
		Short: "cfgbench - compare schema and grammar tool calling",
		Long: `cfgbench runs fixed tool-calling scenarios against the OpenAI Responses
API twice: once with JSON-schema function tools and once with
grammar-constrained custom tools, recording round-trips and batching.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.cfgbench/config.yaml)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "log each round-trip and tool call")

	root.AddCommand(a.newRunCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.root.Execute()
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// Execute runs a fresh default app root command.
func Execute() error {
	return NewApp().Execute()
}

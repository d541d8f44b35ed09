package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"testagent/internal/adapters"
	"testagent/internal/config"
	"testagent/internal/events"
	"testagent/internal/formatting"
	"testagent/internal/gateway"
	"testagent/internal/session"
	"testagent/pkg/logging"

	"github.com/spf13/cobra"
)

// annotationSkipConfig marks commands that must work without a valid config.
const annotationSkipConfig = "testagent/skip-config"

// settings is the effective configuration of this invocation.
type settings struct {
	cfg       config.Config
	configDir string
}

var (
	settingsMu sync.Mutex
	loaded     *settings
)

// setupLogging loads the configuration (defaults, config.yaml, .env and
// environment, then flags) and initializes logging.
func setupLogging(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[annotationSkipConfig] == "true" {
		logging.InitForCLI(logging.LevelWarn, cmd.ErrOrStderr())
		return nil
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(s.cfg.LogLevel)
	if err != nil {
		return usageErrorf("%v", err)
	}
	logging.Init(level, logging.Format(s.cfg.LogFormat), cmd.ErrOrStderr())
	logging.Debug("CLI", "Using backend %s, config dir %s", s.cfg.Backend.URL, s.configDir)

	settingsMu.Lock()
	loaded = s
	settingsMu.Unlock()
	return nil
}

func loadSettings() (*settings, error) {
	configDir := flagConfigDir
	if configDir == "" {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := config.LoadDotEnv(""); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}

	if flagBackend != "" {
		cfg.Backend.URL = flagBackend
	}
	if flagOutput != "" {
		cfg.Output = flagOutput
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if errs := config.Validate(cfg); errs.HasErrors() {
		return nil, errs
	}

	return &settings{cfg: cfg, configDir: configDir}, nil
}

// application bundles the collaborators a command needs.
type application struct {
	cfg       config.Config
	configDir string
	session   *session.Store
	client    *gateway.Client
	api       *adapters.Set
	printer   *formatting.Printer
	out       io.Writer
	errOut    io.Writer
	in        io.Reader
}

// newApp wires config -> session -> gateway -> adapters for cmd.
func newApp(cmd *cobra.Command) (*application, error) {
	settingsMu.Lock()
	s := loaded
	settingsMu.Unlock()
	if s == nil {
		var err error
		if s, err = loadSettings(); err != nil {
			return nil, err
		}
	}

	format, err := formatting.ParseFormat(s.cfg.Output)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}

	store := session.New(session.NewFileStorage(s.cfg.SessionDir))
	client := gateway.New(s.cfg.Backend.URL, store,
		gateway.WithTimeout(s.cfg.Backend.Timeout),
		gateway.WithUserAgent("testagent/"+versionOrDev()),
	)

	app := &application{
		cfg:       s.cfg,
		configDir: s.configDir,
		session:   store,
		client:    client,
		api:       adapters.NewSet(client),
		printer: formatting.NewPrinter(formatting.Options{
			Format:  format,
			Quiet:   flagQuiet,
			NoColor: flagNoColor || os.Getenv("NO_COLOR") != "",
			Writer:  cmd.OutOrStdout(),
		}),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		in:     cmd.InOrStdin(),
	}

	store.OnLogout(func(ev events.LogoutEvent) {
		if ev.Reason == events.LogoutUnauthorized {
			fmt.Fprintln(app.errOut, gateway.MessageUnauthorized)
		}
	})
	return app, nil
}

func versionOrDev() string {
	if v := GetVersion(); v != "" {
		return v
	}
	return "dev"
}

// requireAuth fails fast when no token is stored.
func (a *application) requireAuth() error {
	if !a.session.Authenticated() {
		return &AuthRequiredError{Reason: "not signed in"}
	}
	return nil
}

// projectID returns explicit, or the current project's id.
func (a *application) projectID(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := a.session.Project(); p != nil && p.Key() != "" {
		return p.Key(), nil
	}
	return "", usageErrorf("no project selected: pass --project or run 'testagent project use <id>'")
}

// info prints a progress line to stderr unless --quiet.
func (a *application) info(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(a.errOut, format+"\n", args...)
}

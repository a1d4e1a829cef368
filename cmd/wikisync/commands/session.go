package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dyluth/wikisync/internal/config"
	"github.com/dyluth/wikisync/internal/gamedata"
	"github.com/dyluth/wikisync/internal/markup"
	"github.com/dyluth/wikisync/internal/printer"
	"github.com/dyluth/wikisync/internal/reconcile"
	"github.com/dyluth/wikisync/internal/runs"
	"github.com/dyluth/wikisync/pkg/journal"
	"github.com/dyluth/wikisync/pkg/wiki"
)

// session is everything one command needs: configuration, data, the wiki
// connection and, when configured, the run journal.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	data     *gamedata.Dataset
	renderer *markup.Renderer
	version  reconcile.VersionMarker
	wiki     *wiki.Client
	loggedIn bool
	journal  *journal.Client
}

type sessionNeeds struct {
	data    bool // load game data and build the renderer
	wiki    bool // connect to the wiki
	login   bool // log in; optional logins are skipped when no password is set
	journal bool // the journal is required rather than optional
}

// openSession loads what the command needs. The returned close function
// logs out and disconnects; it is safe to call when openSession failed.
func openSession(ctx context.Context, needs sessionNeeds) (*session, func(), error) {
	s := &session{}
	closeFn := func() { s.close(context.Background()) }

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, closeFn, fmt.Errorf("failed to create logger: %w", err)
	}
	s.logger = logger

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, closeFn, printer.Failure("failed to load configuration", err, []string{
			"Create a configuration with:\n  wikisync init",
			"Or point at an existing one:\n  wikisync --config path/to/wikisync.yml ...",
		})
	}
	s.cfg = cfg

	s.version, err = cfg.VersionMarker()
	if err != nil {
		return nil, closeFn, err
	}

	if needs.data {
		if err := s.loadData(); err != nil {
			return nil, closeFn, err
		}
	}

	if needs.wiki {
		if err := s.connectWiki(ctx, needs.login); err != nil {
			return nil, closeFn, err
		}
	}

	if err := s.connectJournal(ctx, needs.journal); err != nil {
		return nil, closeFn, err
	}

	return s, closeFn, nil
}

func (s *session) loadData() error {
	data, err := gamedata.Load(s.cfg.GameData)
	if err != nil {
		return printer.Failure("failed to load game data", err, []string{
			fmt.Sprintf("Check game_data in %s (currently %s)", configPath, s.cfg.GameData),
		})
	}
	opts, err := s.cfg.RendererOptions()
	if err != nil {
		return err
	}
	s.data = data
	s.renderer = markup.NewRenderer(data, opts)
	return nil
}

func (s *session) connectWiki(ctx context.Context, login bool) error {
	client, err := wiki.NewClient(s.cfg.WikiOptions())
	if err != nil {
		return fmt.Errorf("failed to create wiki client: %w", err)
	}
	s.wiki = client

	password, pwErr := s.cfg.Password()
	if pwErr != nil {
		if login {
			return printer.Failure("wiki password missing", pwErr, []string{
				fmt.Sprintf("Export the bot password:\n  export %s=...", s.cfg.Wiki.PasswordEnv),
			})
		}
		s.logger.Debug("no wiki password set, continuing anonymously")
		return nil
	}

	if err := client.Login(ctx, s.cfg.Wiki.Username, password); err != nil {
		return printer.ErrorWithContext(
			"wiki login failed",
			err.Error(),
			map[string]string{"Wiki": s.cfg.Wiki.APIURL, "User": s.cfg.Wiki.Username},
			[]string{"Check the bot password and that the account may edit"},
		)
	}
	s.loggedIn = true
	s.logger.Debug("logged in", zap.String("user", s.cfg.Wiki.Username))
	return nil
}

func (s *session) connectJournal(ctx context.Context, required bool) error {
	redisOpts, err := s.cfg.RedisOptions()
	if err != nil {
		return err
	}
	if redisOpts == nil {
		if required {
			return printer.Error(
				"no run journal configured",
				"This command reads the run journal, which is not configured.",
				[]string{fmt.Sprintf("Add a journal section to %s:\n  journal:\n    redis_url: redis://localhost:6379/0", configPath)},
			)
		}
		return nil
	}

	client, err := journal.NewClient(redisOpts, s.cfg.Journal.Namespace)
	if err != nil {
		return fmt.Errorf("failed to create journal client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to the run journal: %v", err),
			map[string]string{"Redis": s.cfg.Journal.RedisURL},
			[]string{"Start Redis or remove the journal section from the configuration"},
		)
	}
	s.journal = client
	return nil
}

func (s *session) close(ctx context.Context) {
	if s.loggedIn {
		if err := s.wiki.Logout(ctx); err != nil && s.logger != nil {
			s.logger.Debug("logout failed", zap.Error(err))
		}
	}
	if s.journal != nil {
		s.journal.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// driver builds a reconciliation driver, journaling runs when possible.
func (s *session) driver() *reconcile.Driver {
	engine := reconcile.NewEngine(s.wiki, s.version, s.logger)
	d := reconcile.NewDriver(engine, s.wiki, s.logger)
	if s.journal != nil {
		d.SetRecorder(runs.NewRecorder(s.journal))
	}
	return d
}

// kind looks up a named page kind.
func (s *session) kind(name string) (*reconcile.Kind, error) {
	kinds, err := markup.Kinds(s.renderer)
	if err != nil {
		return nil, err
	}
	k, ok := kinds[name]
	if !ok {
		names := make([]string, 0, len(kinds))
		for n := range kinds {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, printer.Error(
			fmt.Sprintf("unknown page kind: %s", name),
			fmt.Sprintf("Valid kinds: %v", names),
			[]string{"Item pages with all templates and sub-pages:\n  wikisync update items-full"},
		)
	}
	return k, nil
}

// runError renders driver errors the operator can act on.
func runError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, reconcile.ErrStartOutOfRange):
		return printer.Failure("invalid --start", err, []string{"Use a start index within the kind's entries"})
	case wiki.IsAuthFailure(err):
		return printer.Failure("wiki rejected the session", err, []string{
			"Nothing was submitted. Check the bot password and run the command again",
		})
	case errors.Is(err, context.Canceled):
		return printer.Failure("run interrupted", err, nil)
	default:
		return err
	}
}

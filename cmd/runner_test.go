package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/services"
	"github.com/desertthunder/mixdeck/internal/shared"
	tu "github.com/desertthunder/mixdeck/internal/testing"
	"github.com/urfave/cli/v3"
)

type fakeSearcher struct {
	tracks map[models.Provider][]models.Track
	errs   map[models.Provider]error
	limits []int
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		tracks: map[models.Provider][]models.Track{
			models.Spotify:    {tu.NewTrack(models.Spotify, "sp1", 180), tu.NewTrack(models.Spotify, "sp2", 200)},
			models.SoundCloud: {tu.NewTrack(models.SoundCloud, "sc1", 3600)},
		},
		errs: map[models.Provider]error{},
	}
}

func (f *fakeSearcher) Providers() []models.Provider { return models.Providers }

func (f *fakeSearcher) Search(_ context.Context, p models.Provider, _ string, limit int) ([]models.Track, error) {
	f.limits = append(f.limits, limit)
	if err := f.errs[p]; err != nil {
		return nil, err
	}
	out := make([]models.Track, len(f.tracks[p]))
	copy(out, f.tracks[p])
	return out, nil
}

func (f *fakeSearcher) SearchAll(ctx context.Context, q string, limit int) ([]services.Result, error) {
	var results []services.Result
	failed := 0
	for _, p := range models.Providers {
		tracks, err := f.Search(ctx, p, q, limit)
		if err != nil {
			failed++
		}
		results = append(results, services.Result{Provider: p, Tracks: tracks, Err: err})
	}
	if failed == len(results) {
		return results, errors.New("all providers failed")
	}
	return results, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// run executes args against a root command built from the runner's registered commands.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "mixdeck", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"mixdeck"}, args...))
}

func sqliteConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Driver = shared.DriverSQLite
	config.Database.Path = filepath.Join(t.TempDir(), "mixdeck.db")
	return config
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			search := newFakeSearcher()
			store := tu.NewMockStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Search:     search,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.search != search {
				t.Error("expected search to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("Init", func(t *testing.T) {
		t.Run("loads config file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[server]\nport = 9999\n"), 0644); err != nil {
				t.Fatal(err)
			}

			runner := NewRunner(RunnerOpts{Logger: quietLogger()})
			app := &cli.Command{
				Name: "mixdeck",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config"},
					&cli.BoolFlag{Name: "debug"},
				},
				Before: runner.Init,
				Action: func(context.Context, *cli.Command) error { return nil },
			}
			if err := app.Run(context.Background(), []string{"mixdeck", "--config", path, "--debug"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.config.Server.Port != 9999 {
				t.Errorf("expected port from file, got %d", runner.config.Server.Port)
			}
			if runner.config.Server.Host != "127.0.0.1" {
				t.Errorf("expected default host to survive, got %s", runner.config.Server.Host)
			}
			if runner.configPath != path {
				t.Errorf("expected configPath %s, got %s", path, runner.configPath)
			}
			if runner.logger.GetLevel() != log.DebugLevel {
				t.Error("expected --debug to lower the log level")
			}
		})

		t.Run("invalid config fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[database]\ndriver = \"mysql\"\n"), 0644)

			runner := NewRunner(RunnerOpts{Logger: quietLogger()})
			app := &cli.Command{
				Name:   "mixdeck",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "config"}, &cli.BoolFlag{Name: "debug"}},
				Before: runner.Init,
				Action: func(context.Context, *cli.Command) error { return nil },
			}
			err := app.Run(context.Background(), []string{"mixdeck", "--config", path})
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "search", "favorites", "player", "serve"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command at index %d: expected %s, got %v", i, want[i], cmd)
			}
		}
	})
}

func TestSearchCommand(t *testing.T) {
	newRunner := func() (*Runner, *bytes.Buffer, *fakeSearcher, *tu.MockStore) {
		output := &bytes.Buffer{}
		search := newFakeSearcher()
		store := tu.NewMockStore()
		r := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Search: search, Store: store})
		return r, output, search, store
	}

	t.Run("single provider marks favorites", func(t *testing.T) {
		r, output, search, store := newRunner()
		store.Add(context.Background(), tu.NewTrack(models.Spotify, "sp2", 200))

		if err := run(t, r, "search", "--provider", "spotify", "--limit", "5", "rick"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected title and 2 tracks, got %q", output.String())
		}
		if strings.Contains(lines[1], "♥") || !strings.Contains(lines[2], "♥") {
			t.Errorf("only sp2 should be marked: %q", output.String())
		}
		if search.limits[0] != 5 {
			t.Errorf("expected limit 5, got %d", search.limits[0])
		}
	})

	t.Run("all providers keeps partial results", func(t *testing.T) {
		r, output, search, _ := newRunner()
		search.errs[models.SoundCloud] = errors.New("soundcloud down")

		if err := run(t, r, "search", "--format", "json", "rick"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected spotify results only, got %d", len(tracks))
		}
	})

	t.Run("all providers failing is an error", func(t *testing.T) {
		r, _, search, _ := newRunner()
		search.errs[models.Spotify] = errors.New("spotify down")
		search.errs[models.SoundCloud] = errors.New("soundcloud down")

		if err := run(t, r, "search", "rick"); err == nil {
			t.Error("expected error when every provider fails")
		}
	})

	t.Run("writes to file", func(t *testing.T) {
		r, output, _, _ := newRunner()
		path := filepath.Join(t.TempDir(), "results.csv")

		if err := run(t, r, "search", "-p", "soundcloud", "-f", "csv", "-o", path, "mix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Len() != 0 {
			t.Error("stdout should be empty when writing to a file")
		}
		if !strings.Contains(tu.MustReadFile(t, path), "soundcloud,sc1") {
			t.Error("file should contain the CSV row")
		}
	})

	t.Run("validation", func(t *testing.T) {
		r, _, _, _ := newRunner()

		if err := run(t, r, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := run(t, r, "search", "--provider", "tidal", "x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for provider, got %v", err)
		}
		if err := run(t, r, "search", "--format", "xml", "x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for format, got %v", err)
		}
	})

	t.Run("store failure leaves results unmarked", func(t *testing.T) {
		r, output, _, store := newRunner()
		store.Err = errors.New("db down")

		if err := run(t, r, "search", "-p", "spotify", "rick"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(output.String(), "♥") {
			t.Error("no track should be marked")
		}
	})

	t.Run("end to end against provider server", func(t *testing.T) {
		ps := tu.NewProviderServer(t, tu.SoundCloudSearchJSON)

		config := sqliteConfig(t)
		config.Credentials.Spotify = shared.SpotifyConfig{}
		config.Credentials.SoundCloud = shared.SoundCloudConfig{ClientID: "cid", APIURL: ps.URL}
		output := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger(), Output: output})
		defer r.Close()

		if err := run(t, r, "search", "-p", "soundcloud", "late night"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "dj-nobody - Late Night Mix") {
			t.Errorf("unexpected output %q", output.String())
		}
		if ps.Hits() != 1 {
			t.Errorf("expected 1 provider request, got %d", ps.Hits())
		}
	})
}

func TestFavoritesCommands(t *testing.T) {
	t.Run("add list remove", func(t *testing.T) {
		output := &bytes.Buffer{}
		store := tu.NewMockStore()
		r := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Search: newFakeSearcher(), Store: store})

		if err := run(t, r, "favorites", "add", "--index", "2", "rick"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if _, ok := store.Favs["spotify:sp2"]; !ok {
			t.Fatal("second result should be stored")
		}
		if !strings.Contains(output.String(), "(spotify:sp2)") {
			t.Errorf("unexpected add output %q", output.String())
		}

		output.Reset()
		if err := run(t, r, "favorites", "list", "--format", "json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var tracks []models.Track
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil || len(tracks) != 1 {
			t.Fatalf("expected one favorite, got %v (%v)", tracks, err)
		}

		output.Reset()
		if err := run(t, r, "favorites", "remove", "sp2"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if len(store.Favs) != 0 {
			t.Error("favorite should be removed")
		}

		output.Reset()
		if err := run(t, r, "favorites", "rm", "sp2"); err != nil {
			t.Fatalf("removing a missing favorite should not fail: %v", err)
		}
		if !strings.Contains(output.String(), "is not a favorite") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("list all providers with counts", func(t *testing.T) {
		output := &bytes.Buffer{}
		store := tu.NewMockStore()
		ctx := context.Background()
		for _, tr := range []models.Track{
			tu.NewTrack(models.Spotify, "s1", 60),
			tu.NewTrack(models.SoundCloud, "c1", 60),
			tu.NewTrack(models.SoundCloud, "c2", 60),
		} {
			if err := store.Add(ctx, tr); err != nil {
				t.Fatal(err)
			}
		}
		r := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Search: newFakeSearcher(), Store: store})

		for _, args := range [][]string{{"favorites", "list"}, {"favorites", "list", "-p", "all"}} {
			output.Reset()
			if err := run(t, r, args...); err != nil {
				t.Fatalf("%v failed: %v", args, err)
			}
			out := output.String()
			if !strings.Contains(out, "All favorites (spotify 1, soundcloud 2)") {
				t.Errorf("%v: missing per-provider counts in %q", args, out)
			}
			for _, title := range []string{"Track s1", "Track c1", "Track c2"} {
				if !strings.Contains(out, title) {
					t.Errorf("%v: missing %s in %q", args, title, out)
				}
			}
		}

		output.Reset()
		if err := run(t, r, "favorites", "list", "-p", "soundcloud", "--format", "json"); err != nil {
			t.Fatalf("list soundcloud failed: %v", err)
		}
		var tracks []models.Track
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil || len(tracks) != 2 {
			t.Fatalf("expected two soundcloud favorites, got %v (%v)", tracks, err)
		}

		if err := run(t, r, "favorites", "list", "-p", "napster"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("add prints JSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Search: newFakeSearcher(), Store: tu.NewMockStore()})

		if err := run(t, r, "favorites", "add", "--json", "rick"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		var track models.Track
		if err := json.Unmarshal(output.Bytes(), &track); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if track.ID != "sp1" || !track.IsFavorited {
			t.Errorf("unexpected track %+v", track)
		}
	})

	t.Run("add index out of range", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, Search: newFakeSearcher(), Store: tu.NewMockStore()})
		if err := run(t, r, "favorites", "add", "-p", "soundcloud", "-i", "3", "mix"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("store error surfaces", func(t *testing.T) {
		store := tu.NewMockStore()
		store.Err = errors.New("connection refused")
		r := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, Search: newFakeSearcher(), Store: store})

		err := run(t, r, "favorites", "list")
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected store error, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		r := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, ConfigPath: path})

		if err := run(t, r, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := run(t, r, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database and rollback", func(t *testing.T) {
		config := sqliteConfig(t)
		output := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger(), Output: output})
		defer r.Close()

		if err := run(t, r, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)

		track := tu.NewTrack(models.Spotify, "sp1", 180)
		if err := r.store.Add(context.Background(), track); err != nil {
			t.Fatalf("store should be usable after setup: %v", err)
		}

		if err := run(t, r, "setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if err := run(t, r, "setup", "rollback"); err == nil {
			t.Error("expected error with nothing to roll back")
		}
	})

	t.Run("rollback requires sqlite", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Driver = shared.DriverPostgres
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})

		if err := run(t, r, "setup", "rollback"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unreachable database", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "missing", "dir", "mixdeck.db")
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})

		err := run(t, r, "setup", "database")
		if !errors.Is(err, shared.ErrDatabaseConnection) {
			t.Errorf("expected ErrDatabaseConnection, got %v", err)
		}
	})

	t.Run("bad postgres url", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Driver = shared.DriverPostgres
		config.Database.URL = "postgres://%zz"
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})

		if err := run(t, r, "setup", "database"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSearcher(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials = shared.CredentialsConfig{}
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})

		if _, err := r.searcher(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("wires configured providers and cache", func(t *testing.T) {
		mr := miniredis.RunT(t)

		config := shared.DefaultConfig()
		config.Cache.RedisURL = "redis://" + mr.Addr()
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})
		defer r.Close()

		search, err := r.searcher(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := search.Providers(); len(got) != 2 {
			t.Errorf("expected both providers, got %v", got)
		}
		if len(r.closers) != 1 {
			t.Errorf("expected the cache to register a closer, got %d", len(r.closers))
		}

		again, _ := r.searcher(context.Background())
		if again != search {
			t.Error("searcher should be built once")
		}
	})

	t.Run("unreachable cache is skipped", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Cache.RedisURL = "redis://127.0.0.1:1"
		r := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})

		if _, err := r.searcher(context.Background()); err != nil {
			t.Fatalf("cache failure should not block search: %v", err)
		}
		if len(r.closers) != 0 {
			t.Error("no closer expected without a cache")
		}
	})
}

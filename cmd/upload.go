package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/formatter"
	"github.com/desertthunder/plx/internal/ingest"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/repositories"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Parse reads the export file and prints what an upload would do.
func (r *Runner) Parse(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	batch, err := r.parseInput(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(batch, true)
	}
	return r.writePlain("%s", formatter.RenderParseSummary(batch))
}

// Upload parses the export, writes the snapshot, and mirrors the playlists
// onto Spotify.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	batch, err := r.parseInput(cmd)
	if err != nil {
		return err
	}
	r.writePlain("%s\n", formatter.RenderParseSummary(batch))

	exportDir := cmd.String("output-dir")
	if exportDir == "" {
		exportDir = r.config.Export.Dir
	}
	snapshotPath, err := formatter.WriteSnapshot(batch, exportDir)
	if err != nil {
		return err
	}
	r.logger.Info("snapshot written", "path", snapshotPath)
	r.writePlain("Snapshot: %s\n", snapshotPath)

	if cmd.Bool("export-only") {
		return nil
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	confirmed := cmd.Bool("confirm")
	interactive := isatty.IsTerminal(r.stdin.Fd()) || isatty.IsCygwinTerminal(r.stdin.Fd())
	if !confirmed && !interactive {
		return cli.Exit("confirmation required: stdin is not a terminal, re-run with --confirm", 2)
	}

	cache, db, err := r.openCache()
	if err != nil {
		r.logger.Warn("search cache unavailable, continuing without it", "err", err)
	}
	if db != nil {
		defer db.Close()
	}

	opts := tasks.Options{
		Confirm:           confirmed,
		StopOn429:         cmd.Bool("stop-on-429") || shared.EnvBool("PLX_STOP_ON_429"),
		MaxAttempts:       r.config.Upload.MaxAttempts,
		RequestsPerSecond: r.config.Upload.RequestsPerSecond,
		TitleFallback:     r.config.Matching.TitleFallback,
		Public:            cmd.Bool("public") || r.config.Upload.Public,
		ConfirmFunc:       r.confirmPlaylist,
	}
	if cmd.IsSet("max-retries") {
		opts.MaxAttempts = cmd.Int("max-retries")
	}

	rateLogPath := cmd.String("rate-log-file")
	if rateLogPath == "" {
		rateLogPath = r.config.Upload.RateLogFile
	}

	engine := tasks.NewUploadEngine(r.service, cache, tasks.NewRateLog(rateLogPath), r.logger)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.CreatePlaylist, tasks.AddTracks, tasks.PlaylistDone:
				r.writePlain("%s\n", update.Message)
			case tasks.RateLimitWait:
				r.writePlain("⏳ %s\n", update.Message)
			case tasks.SearchTracks:
				r.logger.Debug(update.Message)
			}
		}
	}()

	result, err := engine.Upload(ctx, batch, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("%s", formatter.RenderUploadSummary(result.Results, result.Summary))

	missingPath := r.config.Upload.MissingTracksFile
	if missingPath == "" {
		missingPath = "missing_tracks.csv"
	}
	written, reportErr := formatter.WriteMissingTracks(result.Results, missingPath)
	if reportErr != nil {
		r.logger.Warn("failed to write missing tracks report", "err", reportErr)
	} else if written {
		r.writePlain("Missing tracks report: %s\n", missingPath)
	}

	// An aborted run is already reported through the Failed result and the
	// summary's stop reason; the command itself still completed.
	if result.Summary.StopReason != "" {
		r.logger.Warn("upload stopped early", "reason", result.Summary.StopReason)
	}
	return nil
}

// parseInput resolves the input path and delimiter from flags and config and
// runs the parser.
func (r *Runner) parseInput(cmd *cli.Command) (*models.ExportBatch, error) {
	path := cmd.String("input")
	if path == "" {
		path = r.config.Input.File
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no input file (use --input or set input.file)", shared.ErrMissingArgument)
	}

	delimiter := cmd.String("delimiter")
	if delimiter == "" {
		delimiter = r.config.Input.Delimiter
	}

	columns := ingest.DefaultColumns()
	if c := r.config.Input.Columns; c != (shared.ColumnsConfig{}) {
		columns = ingest.ColumnLabels{
			Playlist: c.Playlist,
			Title:    c.Title,
			Artist:   c.Artist,
			Album:    c.Album,
			Duration: c.Duration,
		}
	}

	r.logger.Debug("parsing export", "path", path, "delimiter", delimiter)
	return ingest.Parse(path, ingest.Options{Delimiter: delimiter, Columns: columns})
}

// connect loads the saved token and verifies it against the API.
func (r *Runner) connect(ctx context.Context) error {
	if r.service == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrMissingCredentials)
	}

	spotify, ok := r.service.(*services.SpotifyService)
	if !ok {
		// Injected non-Spotify services (tests) are assumed ready.
		return nil
	}

	token, err := services.LoadToken(r.tokenPath())
	if err != nil {
		return fmt.Errorf("%w: run `plx auth login` first", err)
	}
	spotify.SetToken(ctx, token)

	user, err := spotify.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: saved token rejected, run `plx auth login`", shared.ErrNotAuthenticated)
	}
	r.logger.Info("authenticated", "user", user.ID)
	return nil
}

func (r *Runner) tokenPath() string {
	if path := r.config.Credentials.Spotify.TokenPath; path != "" {
		return path
	}
	return services.DefaultTokenPath()
}

// confirmPlaylist prompts before each playlist upload.
func (r *Runner) confirmPlaylist(playlist models.Playlist) (bool, error) {
	upload := true
	prompt := huh.NewConfirm().
		Title(fmt.Sprintf("Upload %q (%d tracks)?", playlist.Name, len(playlist.Tracks))).
		Affirmative("Upload").
		Negative("Skip").
		Value(&upload)

	if err := prompt.Run(); err != nil {
		return false, err
	}
	return upload, nil
}

// openCache opens the sqlite search cache. An empty cache.path means the
// cache is deliberately disabled and is not an error.
func (r *Runner) openCache() (tasks.MatchCache, *sql.DB, error) {
	path := r.config.Cache.Path
	if path == "" {
		r.logger.Debug("search cache disabled, set cache.path to enable")
		return nil, nil, nil
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Cache.MaxOpenConns, r.config.Cache.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repositories.NewMatchRepository(db), db, nil
}

package main

import (
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the config file and the local cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file and initialize the local cache",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// parseCommand reads an export file and reports what would be uploaded.
func parseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Parse a playlist export and print a summary without uploading",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Path to the delimited export file",
			},
			&cli.StringFlag{
				Name:    "delimiter",
				Aliases: []string{"d"},
				Usage:   "Field delimiter (single character)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the parsed batch as JSON instead of a summary",
			},
			configFlag(),
		},
		Action: r.Parse,
	}
}

// uploadCommand runs the full parse, snapshot and upload pipeline.
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Parse a playlist export and upload its playlists to Spotify",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Path to the delimited export file",
			},
			&cli.StringFlag{
				Name:    "delimiter",
				Aliases: []string{"d"},
				Usage:   "Field delimiter (single character)",
			},
			&cli.BoolFlag{
				Name:  "export-only",
				Usage: "Write the JSON snapshot and exit without uploading",
			},
			&cli.BoolFlag{
				Name:  "confirm",
				Usage: "Skip per-playlist confirmation prompts",
			},
			&cli.BoolFlag{
				Name:  "stop-on-429",
				Usage: "Abort the remaining queue on the first rate limit response",
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Retry attempts per request before a playlist is marked failed",
			},
			&cli.StringFlag{
				Name:  "rate-log-file",
				Usage: "Append rate limit events to this JSONL file",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for the JSON snapshot",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create playlists as public",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output",
			},
			configFlag(),
		},
		Action: r.Upload,
	}
}

// authCommand manages the saved Spotify token.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Run the OAuth authorization code flow and save the token",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a saved token works",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// cacheCommand manages the local search match cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the local search cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache size and age range",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached search matches",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"kurskal/internal/config"
	"kurskal/internal/ics"
	"kurskal/internal/pipeline"
	"kurskal/internal/tasks"
	"kurskal/internal/web"
)

const syncTimeout = 2 * time.Minute

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.NewEntry(logger).WithField("component", "kurskal")

	app := &cli.App{
		Name:                 "kurskal",
		Usage:                "clean a course schedule ICS feed, republish it and sync tasks",
		EnableBashCompletion: true,
		Suggest:              true,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"KURSKAL_CONFIG"},
				Value:   "/etc/kurskal/config.yaml",
				Usage:   "path to the YAML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the cleaned calendar over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Aliases: []string{"l"},
						Usage:   "host and port to listen on (overrides config if set)",
					},
				},
				Action: func(ctx *cli.Context) error {
					return runServe(ctx, log)
				},
			},
			{
				Name:  "sync",
				Usage: "run one fetch, clean and task-sync pass and exit",
				Action: func(ctx *cli.Context) error {
					return runSync(ctx, log)
				},
			},
			{
				Name:  "export",
				Usage: "write the cleaned calendar to an ICS file",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "output ICS file path (\"-\" for stdout)",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					return runExport(ctx, log)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("exiting")
	}
}

// loadAll loads the YAML config, overlays environment values and builds
// the pipeline.
func loadAll(ctx *cli.Context, log *logrus.Entry) (*config.Config, *config.Env, *pipeline.Pipeline, error) {
	cfg, err := config.Load(ctx.Path("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	env, err := config.LoadEnv()
	if err != nil {
		return nil, nil, nil, err
	}

	if env.ICSURL != "" {
		cfg.Primary = []config.SourceConfig{{ID: "env", URL: env.ICSURL}}
	}

	pl, err := pipeline.New(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, env, pl, nil
}

func runServe(ctx *cli.Context, log *logrus.Entry) error {
	cfg, env, pl, err := loadAll(ctx, log)
	if err != nil {
		return err
	}
	if listen := ctx.String("listen"); listen != "" {
		cfg.Listen = listen
	}

	// Background task sync runs on the refresh schedule when the Notion
	// credentials are present; the HTTP surface works without them.
	if env.NotionConfigured() && cfg.RefreshCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.RefreshCron, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), syncTimeout)
			defer cancel()
			if err := syncOnce(runCtx, cfg, env, pl, log); err != nil {
				log.WithError(err).Error("scheduled sync failed")
			}
		}); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
		}
		c.Start()
		defer c.Stop()
		log.WithField("schedule", cfg.RefreshCron).Info("task sync scheduled")
	} else {
		log.Info("task sync disabled (no Notion credentials)")
	}

	srv := web.NewServer(pl, log)
	log.WithField("listen", "http://"+cfg.Listen).Info("starting HTTP server")
	return http.ListenAndServe(cfg.Listen, srv.Handler())
}

func runSync(ctx *cli.Context, log *logrus.Entry) error {
	cfg, env, pl, err := loadAll(ctx, log)
	if err != nil {
		return err
	}
	if !env.NotionConfigured() {
		return errors.New("NOTION_API_KEY and NOTION_DATABASE_ID must be set for sync")
	}

	runCtx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	return syncOnce(runCtx, cfg, env, pl, log)
}

// syncOnce runs one fetch→reconcile→task-sync pass.
func syncOnce(ctx context.Context, cfg *config.Config, env *config.Env, pl *pipeline.Pipeline, log *logrus.Entry) error {
	events, err := pl.Run(ctx)
	if err != nil {
		return err
	}

	keys, err := tasks.LoadKeySet(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("load synced key set: %w", err)
	}

	creator, err := tasks.NewNotionCreator(tasks.NotionConfig{
		APIKey:        env.NotionAPIKey,
		DatabaseID:    env.NotionDatabaseID,
		TitleProperty: cfg.Notion.TitleProperty,
		DateProperty:  cfg.Notion.DateProperty,
	}, log)
	if err != nil {
		return err
	}

	tracker := tasks.NewTracker(keys, creator, log)
	res, err := tracker.SyncAll(ctx, events)
	log.WithFields(logrus.Fields{
		"created": res.Created,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	}).Info("sync completed")
	return err
}

func runExport(ctx *cli.Context, log *logrus.Entry) error {
	_, _, pl, err := loadAll(ctx, log)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	events, err := pl.Run(runCtx)
	if err != nil {
		return err
	}

	body := ics.Serialize(events)

	output := ctx.Path("output")
	if output == "-" {
		_, err := os.Stdout.Write(body)
		return err
	}
	if err := os.WriteFile(output, body, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	log.WithFields(logrus.Fields{"output": output, "event_count": len(events)}).Info("calendar exported")
	return nil
}

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/ops"
	"github.com/Alksalt/llm-social-agent/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.App {
	app := &cli.App{
		Name:    "agent",
		Usage:   "Diary-to-social-draft agent",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(database, cfg, deps),
			draftCmd(database, cfg, deps),
			approveCmd(database, cfg, deps),
			publishCmd(database, cfg, deps),
			scheduleCmd(database, cfg, deps),
			queueCmd(database, cfg, deps),
			discardCmd(database, cfg, deps),
			editCmd(database, cfg, deps),
			regenerateCmd(database, cfg, deps),
			routingCmd(database, cfg, deps),
			schedulerCmd(database, cfg, deps),
			statusCmd(database, cfg, deps),
			dryRunCmd(database, cfg, deps),
			webCmd(database, cfg, deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command. Directives in the entry text
// chain follow-up work: #draft generates drafts, #publish generates,
// approves, and publishes them in one shot.
func captureCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Capture a diary entry (text as argument or piped via stdin)",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Value: "default", Usage: "User id"},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("entry text is required (argument or stdin)"))
				}
				var err error
				text, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			output, err := ops.Capture(c.Context, database, cfg, deps, ops.CaptureInput{
				UserID: c.String("user"),
				Text:   text,
				Source: "cli",
			})
			if err != nil {
				return outputError(err)
			}

			d := output.Directives
			if output.Entry.Private || (!d.Draft && !d.Publish) {
				return outputJSON(output)
			}

			drafts, err := ops.Draft(c.Context, database, cfg, deps, ops.DraftInput{
				EntryID:   output.Entry.ID,
				UserID:    output.Entry.UserID,
				Platforms: d.PublishPlatforms,
			})
			if err != nil {
				return outputError(err)
			}
			if !d.Publish {
				return outputJSON(drafts)
			}

			// #publish: the user asked for the full pipeline, so approval
			// is implied for every draft that validated.
			published := make([]*ops.PublishOutput, 0, len(drafts.Results))
			for _, r := range drafts.Results {
				if r.Error != "" {
					continue
				}
				if _, err := ops.Approve(c.Context, database, cfg, deps, ops.ApproveInput{DraftID: r.Draft.ID}); err != nil {
					fmt.Fprintf(os.Stderr, "warning: approve %s: %v\n", r.Draft.ID, err)
					continue
				}
				out, err := ops.Publish(c.Context, database, cfg, deps, ops.PublishInput{DraftID: r.Draft.ID})
				if err != nil {
					fmt.Fprintf(os.Stderr, "warning: publish %s: %v\n", r.Draft.ID, err)
					continue
				}
				published = append(published, out)
			}
			return outputJSON(map[string]any{
				"entry":     output.Entry,
				"drafts":    drafts.Results,
				"published": published,
			})
		},
	}
}

// draftCmd creates the draft command.
func draftCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "draft",
		Usage:     "Generate platform drafts from an entry (latest entry if no id)",
		ArgsUsage: "[entry-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Value: "default", Usage: "User id"},
			&cli.StringFlag{Name: "platforms", Aliases: []string{"p"}, Usage: "Comma-separated platforms (default: all enabled)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.DraftInput{
				EntryID:   c.Args().First(),
				UserID:    c.String("user"),
				Platforms: parsePlatforms(c.String("platforms")),
			}

			output, err := ops.Draft(c.Context, database, cfg, deps, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// approveCmd creates the approve command.
func approveCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "approve",
		Usage:     "Approve a pending draft",
		ArgsUsage: "<draft-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "publish", Usage: "Publish immediately after approving"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("draft id is required"))
			}
			draftID := c.Args().First()

			output, err := ops.Approve(c.Context, database, cfg, deps, ops.ApproveInput{DraftID: draftID})
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("publish") {
				return outputJSON(output)
			}

			pub, err := ops.Publish(c.Context, database, cfg, deps, ops.PublishInput{DraftID: draftID})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(pub)
		},
	}
}

// publishCmd creates the publish command. Without an id it publishes
// every approved draft for the user.
func publishCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish an approved draft (all approved drafts if no id)",
		ArgsUsage: "[draft-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Value: "default", Usage: "User id (when publishing all)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				output, err := ops.Publish(c.Context, database, cfg, deps, ops.PublishInput{DraftID: c.Args().First()})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			approved, err := db.ListApproved(database, c.String("user"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			results := make([]any, 0, len(approved))
			for _, d := range approved {
				out, err := ops.Publish(c.Context, database, cfg, deps, ops.PublishInput{DraftID: d.ID})
				if err != nil {
					results = append(results, map[string]any{"draft_id": d.ID, "error": err.Error()})
					continue
				}
				results = append(results, out)
			}
			return outputJSON(map[string]any{"published": results})
		},
	}
}

// scheduleCmd creates the schedule command.
func scheduleCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "Schedule a draft for later publishing",
		ArgsUsage: "<draft-id> <when>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: schedule <draft-id> <when> (e.g. \"2025-06-01 09:00\")"))
			}

			output, err := ops.Schedule(c.Context, database, cfg, deps, ops.ScheduleInput{
				DraftID: c.Args().Get(0),
				When:    strings.Join(c.Args().Slice()[1:], " "),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// queueCmd creates the queue command.
func queueCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "List live drafts, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Value: "default", Usage: "User id"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum drafts to list"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Queue(c.Context, database, cfg, deps, ops.QueueInput{
				UserID: c.String("user"),
				Limit:  c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// discardCmd creates the discard command.
func discardCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "discard",
		Usage:     "Discard a draft",
		ArgsUsage: "<draft-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("draft id is required"))
			}
			output, err := ops.Discard(c.Context, database, cfg, deps, ops.DiscardInput{DraftID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command.
func editCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Replace a draft's text (text as argument or piped via stdin)",
		ArgsUsage: "<draft-id> [text]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("draft id is required"))
			}

			text := strings.Join(c.Args().Slice()[1:], " ")
			if text == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("replacement text is required (argument or stdin)"))
				}
				var err error
				text, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			output, err := ops.Edit(c.Context, database, cfg, deps, ops.EditInput{
				DraftID: c.Args().First(),
				Text:    text,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// regenerateCmd creates the regenerate command.
func regenerateCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "regenerate",
		Usage:     "Generate a fresh alternative text for a draft",
		ArgsUsage: "<draft-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("draft id is required"))
			}
			output, err := ops.Regenerate(c.Context, database, cfg, deps, ops.RegenerateInput{DraftID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// routingCmd creates the routing command group.
func routingCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "routing",
		Usage: "Show or change provider routing",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the candidate list for every stage",
				Action: func(c *cli.Context) error {
					output, err := ops.ShowRouting(c.Context, database, cfg, deps)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "set",
				Usage:     "Replace a stage's candidate list",
				ArgsUsage: "<stage> <provider:model> [provider:model...]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: routing set <stage> <provider:model>..."))
					}
					output, err := ops.SetRouting(c.Context, database, cfg, deps, ops.SetRoutingInput{
						Stage:  c.Args().First(),
						Routes: c.Args().Slice()[1:],
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// schedulerCmd creates the scheduler command group.
func schedulerCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "scheduler",
		Usage: "Publish scheduled drafts when they come due",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one due sweep and exit",
				Action: func(c *cli.Context) error {
					output, err := ops.RunDue(c.Context, database, cfg, deps)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "watch",
				Usage: "Run due sweeps on a cron schedule until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "cron", Value: "* * * * *", Usage: "Cron spec for the sweep"},
				},
				Action: func(c *cli.Context) error {
					return watchSchedule(c, database, cfg, deps)
				},
			},
		},
	}
}

// watchSchedule runs RunDue on a cron schedule until SIGINT/SIGTERM.
func watchSchedule(c *cli.Context, database *sql.DB, cfg *config.Config, deps *ops.Deps) error {
	runner := cron.New()
	_, err := runner.AddFunc(c.String("cron"), func() {
		output, err := ops.RunDue(c.Context, database, cfg, deps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: due sweep failed: %v\n", err)
			return
		}
		if output.Due > 0 {
			_ = outputJSON(output)
		}
	})
	if err != nil {
		return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid cron spec: %v", err)))
	}

	runner.Start()
	defer runner.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-c.Context.Done():
	}
	return nil
}

// statusCmd creates the status command.
func statusCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show modes, platforms, spend, and the last publish attempt",
		Action: func(c *cli.Context) error {
			output, err := ops.Status(c.Context, database, cfg, deps)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// dryRunCmd creates the dry-run command.
func dryRunCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "dry-run",
		Usage:     "Turn dry-run mode on or off",
		ArgsUsage: "<on|off>",
		Action: func(c *cli.Context) error {
			var dryRun bool
			switch c.Args().First() {
			case "on":
				dryRun = true
			case "off":
				dryRun = false
			default:
				return outputError(errors.NewInvalidRequest("usage: dry-run <on|off>"))
			}

			output, err := ops.SetDryRun(c.Context, database, cfg, deps, ops.SetDryRunInput{DryRun: dryRun})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// webCmd creates the web command serving the read-only queue view.
func webCmd(database *sql.DB, cfg *config.Config, deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve a read-only browser view of the queue and status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8793, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(database, cfg, deps, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.AgentError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parsePlatforms splits a comma-separated platform list, resolving
// aliases like twitter or li.
func parsePlatforms(s string) []diary.Platform {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	platforms := make([]diary.Platform, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		platforms = append(platforms, diary.NormalizePlatform(t))
	}
	return platforms
}

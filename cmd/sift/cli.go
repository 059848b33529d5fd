package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/ops"
	"github.com/hpungsan/sift/internal/web"
)

// maxInputBytes caps text read from stdin or --file.
const maxInputBytes = 4 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc *ops.Services) *cli.App {
	app := &cli.App{
		Name:    "sift",
		Usage:   "Capture conversations and reduce them to decisions, tasks and highlights",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log at debug level to stderr"},
		},
		Commands: []*cli.Command{
			captureCmd(svc),
			fetchCmd(svc),
			listCmd(svc),
			projectCmd(svc),
			parseCmd(),
			jobsCmd(svc),
			serveCmd(svc),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command.
func captureCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Store raw text as a capture (reads --content, --file, or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content", Usage: "Capture text"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read capture text from a file"},
			&cli.StringFlag{Name: "container", Aliases: []string{"c"}, Value: "me", Usage: "Container kind: me|project"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project ID (implies --container=project)"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(capture.SourceModeDurable), Usage: "Source mode: durable|discard_after_reduce"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: string(capture.SourceTypeText), Usage: "Source type: text|chat|email|slack|extension"},
			&cli.StringFlag{Name: "thinking", Value: "today", Usage: "Thinking window: today|yesterday|last_week|last_month"},
			&cli.StringSliceFlag{Name: "meta", Usage: "Metadata as key=value (repeatable)"},
			&cli.BoolFlag{Name: "diagnostics", Aliases: []string{"d"}, Usage: "Include reduction diagnostics in output"},
		},
		Action: func(c *cli.Context) error {
			content, err := readContent(c)
			if err != nil {
				return outputError(err)
			}

			metadata, err := parseMeta(c.StringSlice("meta"))
			if err != nil {
				return outputError(err)
			}

			container := capture.ContainerRef{Kind: c.String("container")}
			if project := c.String("project"); project != "" {
				container.ProjectID = project
				if !c.IsSet("container") {
					container.Kind = string(capture.ContainerProject)
				}
			}

			output, err := ops.CreateCapture(c.Context, svc, ops.CreateCaptureInput{
				Container:          container,
				SourceMode:         c.String("mode"),
				SourceType:         c.String("type"),
				Content:            content,
				ThinkingChoice:     c.String("thinking"),
				Metadata:           metadata,
				IncludeDiagnostics: c.Bool("diagnostics"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a capture with its segment and artifacts",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-content", Usage: "Exclude raw segment text from output"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchCaptureInput{ID: c.Args().First()}
			if c.Bool("no-content") {
				includeContent := false
				input.IncludeContent = &includeContent
			}

			output, err := ops.FetchCapture(c.Context, svc.DB, svc.Cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List captures, newest thinking window first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "container", Aliases: []string{"c"}, Usage: "Filter by container kind: me|project"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project ID"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Results to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListCaptures(c.Context, svc.DB, svc.Cfg, ops.ListCapturesInput{
				ContainerKind: c.String("container"),
				ProjectID:     c.String("project"),
				Limit:         c.Int("limit"),
				Offset:        c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// projectCmd creates the project command group.
func projectCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Manage projects",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a project",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Usage: "Project description"},
				},
				Action: func(c *cli.Context) error {
					input := ops.CreateProjectInput{Name: strings.Join(c.Args().Slice(), " ")}
					if desc := c.String("description"); desc != "" {
						input.Description = &desc
					}

					output, err := ops.CreateProject(c.Context, svc.DB, svc.Cfg, input)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List projects",
				Action: func(c *cli.Context) error {
					output, err := ops.ListProjects(c.Context, svc.DB, svc.Cfg)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(output)
				},
			},
		},
	}
}

// parseCmd creates the parse command. It needs no database.
func parseCmd() *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Split a transcript into role-tagged messages without storing it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content", Usage: "Transcript text"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read transcript from a file"},
			&cli.BoolFlag{Name: "swap", Usage: "Swap user and assistant roles"},
			&cli.BoolFlag{Name: "single-block", Usage: "Treat the whole text as one user message"},
		},
		Action: func(c *cli.Context) error {
			text, err := readContent(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ParseTranscript(ops.ParseTranscriptInput{
				Text:        text,
				SwapRoles:   c.Bool("swap"),
				SingleBlock: c.Bool("single-block"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// jobsCmd creates the jobs command.
func jobsCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "List pending structure recompute jobs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultJobsLimit, Usage: "Maximum results"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListJobs(c.Context, svc.DB, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := svc.Cfg.HTTP.Bind, svc.Cfg.HTTP.Port
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv := web.NewServer(svc, Version, bind, port)
			if err := web.Run(srv, svc.Logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if siftErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", siftErr.Code, siftErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readContent returns text from --content, --file, or piped stdin, in that order.
func readContent(c *cli.Context) (string, error) {
	if c.IsSet("content") {
		return c.String("content"), nil
	}
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", errors.NewInvalidRequest(fmt.Sprintf("cannot open file: %v", err))
		}
		defer f.Close()
		return readLimited(f, maxInputBytes)
	}
	if stdinHasData() {
		return readStdin(maxInputBytes)
	}
	return "", errors.NewInvalidRequest("content is required (use --content, --file, or pipe via stdin)")
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads stdin verbatim, up to limit bytes.
func readStdin(limit int64) (string, error) {
	return readLimited(os.Stdin, limit)
}

func readLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return string(data), nil
}

// parseMeta turns key=value pairs into a metadata map.
func parseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("metadata must be key=value, got %q", p))
		}
		meta[key] = value
	}
	return meta, nil
}

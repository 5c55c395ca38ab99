package ctl

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	service "github.com/okian/syncops/internal/app"
	"github.com/okian/syncops/internal/domain/model"
)

var version = "dev"

// NewApp builds the scorecardctl command tree. Output goes to out.
func NewApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "scorecardctl",
		Usage:   "Query service scorecards and push snapshots",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://localhost:9080",
				Usage:   "Scorecard server base URL",
				EnvVars: []string{"SYNCOPS_SERVER"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   FormatText,
				Usage:   "Output format: text, json",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.UintFlag{
				Name:  "retries",
				Value: 3,
				Usage: "Attempts per request",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "Per-request timeout",
			},
		},
		Before: func(c *cli.Context) error {
			switch c.String("format") {
			case FormatText, FormatJSON:
			default:
				return fmt.Errorf("%w: unknown format %q", ErrUsage, c.String("format"))
			}
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "services",
				Usage: "List services with their overall score",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "team", Usage: "Only services of this team"},
					&cli.StringFlag{Name: "repository", Usage: "Only services of this repository"},
				},
				Action: runServices,
			},
			{
				Name:      "scorecard",
				Usage:     "Show the scorecard of a service",
				ArgsUsage: "<service-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "formula", Usage: "gate or legacy"},
				},
				Action: runScorecard,
			},
			{
				Name:  "leaderboard",
				Usage: "Rank teams or services",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "entity", Value: service.EntityTeams, Usage: "teams or services"},
					&cli.IntFlag{Name: "limit", Usage: "Number of entries"},
				},
				Action: runLeaderboard,
			},
			{
				Name:      "classify",
				Usage:     "Classify a raw metric value",
				ArgsUsage: "<metric> <value>",
				Action:    runClassify,
			},
			{
				Name:      "push",
				Usage:     "Submit snapshots from a JSON or YAML file",
				ArgsUsage: "<file>",
				Action:    runPush,
			},
		},
	}
}

func clientFor(c *cli.Context) *Client {
	return NewClient(c.String("server"),
		WithRetries(c.Uint("retries")),
		WithHTTPClient(&http.Client{Timeout: c.Duration("timeout")}),
	)
}

func rendererFor(c *cli.Context) renderer {
	return renderer{w: c.App.Writer, format: c.String("format")}
}

func runServices(c *cli.Context) error {
	list, err := clientFor(c).Services(c.Context, c.String("team"), c.String("repository"))
	if err != nil {
		return err
	}
	return rendererFor(c).services(list)
}

func runScorecard(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: scorecard takes one service id", ErrUsage)
	}
	sc, err := clientFor(c).Scorecard(c.Context, c.Args().First(), c.String("formula"))
	if err != nil {
		return err
	}
	return rendererFor(c).scorecard(sc)
}

func runLeaderboard(c *cli.Context) error {
	entries, err := clientFor(c).Leaderboard(c.Context, c.String("entity"), c.Int("limit"))
	if err != nil {
		return err
	}
	return rendererFor(c).leaderboard(entries)
}

func runClassify(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("%w: classify takes a metric and a value", ErrUsage)
	}
	b, err := clientFor(c).Classify(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	return rendererFor(c).badge(b)
}

func runPush(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: push takes one file", ErrUsage)
	}
	snaps, err := readSnapshots(c.Args().First())
	if err != nil {
		return err
	}
	client := clientFor(c)
	results := make([]service.SubmitResult, 0, len(snaps))
	for _, s := range snaps {
		res, err := client.Push(c.Context, s)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	return rendererFor(c).submitted(results)
}

// readSnapshots reads one snapshot or a list of them. YAML is a superset of
// JSON, so one decoder serves both. Snapshots without an id get a random
// one before the first attempt so retries stay idempotent.
func readSnapshots(path string) ([]model.Snapshot, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var snaps []model.Snapshot
	if isYAMLList(raw) {
		err = yaml.Unmarshal(raw, &snaps)
	} else {
		var one model.Snapshot
		err = yaml.Unmarshal(raw, &one)
		snaps = []model.Snapshot{one}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: no snapshots in %s", ErrInvalidInput, path)
	}
	for i := range snaps {
		if strings.TrimSpace(snaps[i].ServiceID) == "" {
			return nil, fmt.Errorf("%w: snapshot #%d has no serviceId", ErrInvalidInput, i)
		}
		if snaps[i].ID == "" {
			snaps[i].ID = uuid.NewString()
		}
	}
	return snaps, nil
}

func isYAMLList(raw []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind == yaml.SequenceNode
}

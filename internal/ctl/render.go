package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	service "github.com/okian/syncops/internal/app"
	"github.com/okian/syncops/internal/domain/ranking"
	"github.com/okian/syncops/internal/domain/scoring"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type renderer struct {
	w      io.Writer
	format string
}

func (r renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r renderer) table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(r.w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func (r renderer) services(list []service.ServiceView) error {
	if r.format == FormatJSON {
		return r.json(list)
	}
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.ID, s.Name, s.Team, s.Repository, status(s.Status), overall(s.Overall)})
	}
	return r.table([]string{"ID", "Name", "Team", "Repository", "Status", "Overall"}, rows)
}

func (r renderer) scorecard(sc service.ServiceScorecard) error {
	if r.format == FormatJSON {
		return r.json(sc)
	}
	color.New(color.Bold).Fprintf(r.w, "%s (%s) formula=%s\n\n", sc.Name, sc.ServiceID, sc.Formula)
	rows := make([][]string, 0, len(sc.Categories))
	for _, c := range sc.Categories {
		rows = append(rows, []string{
			c.Name,
			strconv.Itoa(c.Score),
			fmt.Sprintf("%d/%d", c.Passed, c.Total),
			tier(c.Tier, c.Label),
		})
	}
	if err := r.table([]string{"Category", "Score", "Gates", "Tier"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(r.w, "\nOverall: %s\n", overall(sc.Overall))
	return nil
}

func (r renderer) leaderboard(entries []ranking.Entry) error {
	if r.format == FormatJSON {
		return r.json(entries)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.Name,
			strconv.Itoa(e.Score),
			strconv.FormatFloat(e.Composite, 'f', 2, 64),
			level(e.Level),
		})
	}
	return r.table([]string{"Rank", "Name", "Score", "Composite", "Level"}, rows)
}

func (r renderer) badge(b scoring.Badge) error {
	if r.format == FormatJSON {
		return r.json(b)
	}
	fmt.Fprintf(r.w, "%s = %s: %s\n", b.Metric, strconv.FormatFloat(b.Value, 'f', -1, 64), tier(b.Tier, b.Label))
	if b.Reason != "" {
		color.New(color.FgYellow).Fprintf(r.w, "  %s\n", b.Reason)
	}
	return nil
}

func (r renderer) submitted(results []service.SubmitResult) error {
	if r.format == FormatJSON {
		return r.json(results)
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{res.ID, res.ServiceID, res.Status})
	}
	return r.table([]string{"Snapshot", "Service", "Status"}, rows)
}

func tier(t scoring.Tier, label string) string {
	if label == "" {
		label = t.String()
	}
	switch t {
	case scoring.Gold:
		return color.YellowString(label)
	case scoring.Silver:
		return color.WhiteString(label)
	case scoring.Bronze:
		return color.RedString(label)
	default:
		return color.HiBlackString(label)
	}
}

func level(l scoring.Level) string {
	switch l {
	case scoring.Excellent:
		return color.GreenString(l.String())
	case scoring.Good:
		return color.CyanString(l.String())
	case scoring.Fair:
		return color.YellowString(l.String())
	default:
		return color.RedString(l.String())
	}
}

func overall(o scoring.Overall) string {
	return fmt.Sprintf("%d %s", o.Score, level(o.Level))
}

func status(s string) string {
	switch s {
	case "Healthy":
		return color.GreenString(s)
	case "Warning":
		return color.YellowString(s)
	case "Error":
		return color.RedString(s)
	default:
		return s
	}
}

// Command issue-report fetches the configured Jira projects and writes a
// markdown Known Issues report with delivery metrics to the configured
// output file. With report.refresh_minutes set it keeps running and
// rewrites the report on every refresh.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nhle/engmetrics"
	"github.com/nhle/engmetrics/internal/report"
	"github.com/nhle/engmetrics/internal/sync"
	"github.com/nhle/engmetrics/internal/theme"
	"github.com/nhle/engmetrics/jira"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := engmetrics.LoadConfig(engmetrics.DefaultConfigPath())
	if err != nil {
		return err
	}
	if len(cfg.Report.Projects) == 0 {
		return fmt.Errorf(
			"no projects configured; set report.projects in %s",
			engmetrics.DefaultConfigPath(),
		)
	}

	engine, err := engmetrics.New(*cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()

	projects, err := engine.Jira().PopulateProjects(
		ctx, cfg.Report.Projects, cfg.Report.MaxResults,
	)
	if err != nil {
		return err
	}

	if err := writeReport(cfg, projects); err != nil {
		return err
	}
	fmt.Println(theme.SuccessStyle.Render("Report written to " + cfg.Report.Output))

	if cfg.Report.RefreshMinutes <= 0 {
		return nil
	}
	return watch(cfg, engine)
}

// watch keeps the report current, rewriting it after every refresh sweep.
func watch(cfg *engmetrics.AppConfig, engine *engmetrics.Engine) error {
	interval := time.Duration(cfg.Report.RefreshMinutes) * time.Minute
	refresher := sync.New(engine.Jira(), interval, cfg.Report.MaxResults)
	for _, key := range cfg.Report.Projects {
		refresher.Add(key)
	}
	refresher.Start()
	defer refresher.Stop()

	fmt.Println(theme.SubtleStyle.Render(fmt.Sprintf(
		"Refreshing every %d minutes. Ctrl-C to stop.", cfg.Report.RefreshMinutes,
	)))

	for result := range refresher.Results() {
		if result.Err != nil {
			fmt.Fprintln(os.Stderr, theme.WarnStyle.Render(fmt.Sprintf(
				"refresh of %s failed: %v", result.Project, result.Err,
			)))
			continue
		}

		if err := writeReport(cfg, engine.Jira().Projects()); err != nil {
			return err
		}
		fmt.Println(theme.SubtleStyle.Render(fmt.Sprintf(
			"%s refreshed: %d issues", result.Project, result.IssueCount,
		)))
	}
	return nil
}

// writeReport renders every configured project, in config order, into the
// output file.
func writeReport(
	cfg *engmetrics.AppConfig,
	projects map[string]*jira.Project,
) error {
	var b strings.Builder
	for _, key := range cfg.Report.Projects {
		project, ok := projects[key]
		if !ok {
			continue
		}

		project.CalculateLeadTimes(jira.DefaultResolutionStatus, false)
		project.CalculateCycleTimes(
			jira.DefaultBeginStatus,
			jira.DefaultResolutionStatus,
			false,
		)

		b.WriteString(report.KnownIssues(project))
		b.WriteString(report.MetricsSummary(&project.QueryResult))
	}

	if err := os.WriteFile(cfg.Report.Output, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", cfg.Report.Output, err)
	}
	return nil
}

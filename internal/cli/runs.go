package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/typeset-tools/autofit/pkg/errors"
	"github.com/typeset-tools/autofit/pkg/history"
)

// runsCommand creates the runs command group for inspecting recorded runs.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect solve runs recorded by an autofit server",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())

	return cmd
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand() *cobra.Command {
	var (
		server string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRunsList(cmd.Context(), server, limit)
		},
	}

	cmd.Flags().StringVar(&server, "server", defaultServerURL, "autofit server URL")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its full step trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRunsShow(cmd.Context(), server, args[0])
		},
	}

	cmd.Flags().StringVar(&server, "server", defaultServerURL, "autofit server URL")

	return cmd
}

func (c *CLI) runRunsList(ctx context.Context, server string, limit int) error {
	var resp struct {
		Runs []*history.Run `json:"runs"`
	}
	url := fmt.Sprintf("%s/v1/runs?limit=%d", server, limit)
	loggerFromContext(ctx).Debug("fetching runs", "url", url)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return err
	}

	if len(resp.Runs) == 0 {
		printInfo("No runs recorded")
		return nil
	}

	for _, run := range resp.Runs {
		status := StyleSuccess.Render(run.Outcome)
		if run.Outcome != "done" {
			status = StyleWarning.Render(run.Outcome)
		}
		fmt.Printf("%s  %s  %s\n",
			StyleHighlight.Render(run.ID),
			status,
			StyleDim.Render(run.CreatedAt.Local().Format(time.DateTime)))
		printDetail("%d items, %d groups, %d columns  %s  %.1fpx / %.2f",
			run.Profile.ItemCount, run.Profile.GroupCount, run.Initial.Columns,
			"→", run.Final.FontSizePx, run.Final.LineSpacing)
	}
	printNewline()
	printNextStep("Inspect a run", "autofit runs show <run-id>")
	return nil
}

func (c *CLI) runRunsShow(ctx context.Context, server, id string) error {
	if err := errors.ValidateRunID(id); err != nil {
		return err
	}

	var run history.Run
	if err := c.getJSON(ctx, server+"/v1/runs/"+id, &run); err != nil {
		return err
	}

	printKeyValue("run", run.ID)
	printKeyValue("created", run.CreatedAt.Local().Format(time.DateTime))
	printKeyValue("outcome", run.Outcome)
	if run.Message != "" {
		printKeyValue("message", run.Message)
	}
	printKeyValue("profile", fmt.Sprintf("%d items, %d groups, %d columns",
		run.Profile.ItemCount, run.Profile.GroupCount, run.Initial.Columns))
	printKeyValue("initial", fmt.Sprintf("%.1fpx / %.2f", run.Initial.FontSizePx, run.Initial.LineSpacing))
	printKeyValue("final", fmt.Sprintf("%.1fpx / %.2f", run.Final.FontSizePx, run.Final.LineSpacing))
	printKeyValue("duration", fmt.Sprintf("%dms", run.DurationMS))
	printNewline()

	for _, ts := range run.Steps {
		fit := "fits"
		if ts.Overflow {
			fit = "overflow"
		}
		printDetail("step %2d  %-9s %-11s %-6s  font %5.1f  spacing %.2f  %s",
			ts.Step, ts.Mode, ts.Phase, ts.Search, ts.FontSizePx, ts.LineSpacing, fit)
	}
	return nil
}

// getJSON fetches url and decodes the JSON body into v. Error responses
// from the server are surfaced with their message.
func (c *CLI) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("server: %s", apiErr.Message)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/moto/pkg/dashboard"
)

func (c *CLI) statsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show or edit your dashboard stats",
		Long: `Show or edit the revenue goal, monthly income and client count behind
the dashboard's flow-rate visualizer. Requires 'moto login'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatsGet(cmd.Context())
		},
	}
	cmd.AddCommand(c.statsGetCommand())
	cmd.AddCommand(c.statsSetCommand())
	return cmd
}

func (c *CLI) statsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show your stats and flow rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatsGet(cmd.Context())
		},
	}
}

func (c *CLI) statsSetCommand() *cobra.Command {
	var e dashboard.Edit
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update your stats",
		Long: `Update the stats row. Flags left unset keep their current value.
Goal and income are free text; "$12,500/mo" reads as 12500 for the flow
rate.`,
		Example: `  moto stats set --goal 20000 --income "$12,500" --clients 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			return c.runStatsSet(cmd.Context(), func(cur dashboard.Edit) dashboard.Edit {
				if f.Changed("goal") {
					cur.Goal = e.Goal
				}
				if f.Changed("income") {
					cur.Income = e.Income
				}
				if f.Changed("clients") {
					cur.Clients = e.Clients
				}
				return cur
			})
		},
	}
	cmd.Flags().StringVar(&e.Goal, "goal", "", "monthly revenue goal")
	cmd.Flags().StringVar(&e.Income, "income", "", "current monthly income")
	cmd.Flags().IntVar(&e.Clients, "clients", 0, "number of active clients")
	return cmd
}

func (c *CLI) loadView(ctx context.Context) (*dashboard.Service, *dashboard.View, func() error, error) {
	sess, err := c.requireSession(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	recs, err := c.openRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := dashboard.New(recs, c.Logger)
	view, err := svc.Load(ctx, sess.UserID())
	if err != nil {
		recs.Close()
		return nil, nil, nil, err
	}
	return svc, view, recs.Close, nil
}

func (c *CLI) runStatsGet(ctx context.Context) error {
	_, view, done, err := c.loadView(ctx)
	if err != nil {
		return err
	}
	defer done()
	printStats(view)
	return nil
}

func (c *CLI) runStatsSet(ctx context.Context, apply func(dashboard.Edit) dashboard.Edit) error {
	svc, view, done, err := c.loadView(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := svc.Save(ctx, view, apply(view.Form())); err != nil {
		return err
	}
	printSuccess("Stats saved")
	printStats(view)
	return nil
}

func printStats(view *dashboard.View) {
	if !view.Editable() {
		printWarning("No stats yet")
		return
	}
	form := view.Form()
	m := dashboard.MetricsFor(form)
	printKeyValue("Goal", orDash(form.Goal))
	printKeyValue("Income", orDash(form.Income))
	printKeyValue("Clients", strconv.Itoa(form.Clients))
	flow := m.FlowRate()
	if m.GoalMet {
		flow = StyleSuccess.Render(flow + " goal met")
	}
	printKeyValue("Flow rate", flow)
	printDetail("%d orbits · one turn every %.1fs", m.Orbits, m.Rotation)
}

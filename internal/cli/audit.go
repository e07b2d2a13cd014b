package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moto/pkg/audit"
	"github.com/matzehuels/moto/pkg/cache"
	"github.com/matzehuels/moto/pkg/config"
	moerr "github.com/matzehuels/moto/pkg/errors"
)

func (c *CLI) auditCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "audit [description]",
		Short: "Run a free AI conversion audit",
		Long: `Describe a website or project and get a conversion score with three
recommendations. Reads the description from stdin when no argument is
given or the argument is "-".

Requires an API key: set GEMINI_API_KEY or [audit] api_key.`,
		Example: `  moto audit "E-commerce store selling high-end headphones"
  echo "SaaS landing page for dentists" | moto audit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := auditInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runAudit(cmd.Context(), desc, noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always ask the model")
	return cmd
}

func auditInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read description: %w", err)
	}
	return string(data), nil
}

func (c *CLI) runAudit(ctx context.Context, description string, noCache bool) error {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	probe := &hitProbe{Cache: store}
	consultant, err := c.newConsultant(ctx, probe)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Analyzing...")
	spinner.Start()
	res, err := consultant.Run(ctx, description)
	if err != nil {
		spinner.StopWithError("Audit failed")
		return c.auditError(err)
	}
	spinner.Stop()

	printAudit(res)
	printFacts(probe.hit.Load(), c.config().Audit.Model)
	return nil
}

// auditError adds a hint for the errors a user can fix.
func (c *CLI) auditError(err error) error {
	switch moerr.GetCode(err) {
	case moerr.ErrCodeAuditMissing:
		printDetail("Set GEMINI_API_KEY or [audit] api_key in %s", c.configHint())
	case moerr.ErrCodeEmptyAudit:
		printDetail("Pass a description or pipe one on stdin")
	}
	var rl *moerr.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		printDetail("Try again in %ds", rl.RetryAfter)
	}
	return err
}

func (c *CLI) configHint() string {
	if c.configPath != "" {
		return c.configPath
	}
	if p, err := config.DefaultPath(); err == nil {
		return p
	}
	return "config.toml"
}

func printAudit(res *audit.Result) {
	printNewline()
	fmt.Println(StyleTitle.Render("Conversion Audit"))
	printNewline()
	printKeyValue("Score", scoreStyle(res.Score).Render(fmt.Sprintf("%.0f/100", res.Score)))
	printNewline()
	fmt.Println(recommendationTable(res.Recommendations))
	if tips := strings.TrimSpace(res.Tips); tips != "" {
		printNewline()
		printDetail("%s", tips)
	}
	printNewline()
}

// hitProbe records whether any read was served from the wrapped cache.
type hitProbe struct {
	cache.Cache
	hit atomic.Bool
}

func (p *hitProbe) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := p.Cache.Get(ctx, key)
	if ok {
		p.hit.Store(true)
	}
	return data, ok, err
}

var _ cache.Cache = (*hitProbe)(nil)


func recommendationTable(recs []string) string {
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = []string{strconv.Itoa(i + 1), rec}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Recommendation").
		Rows(rows...).
		Width(80).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		}).
		String()
}

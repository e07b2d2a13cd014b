package audit

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/moto/pkg/cache"
	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/httputil"
	"github.com/matzehuels/moto/pkg/observability"
)

// Consultant defaults.
const (
	DefaultCacheTTL     = 24 * time.Hour
	DefaultRatePerMin   = 10
	DefaultRetries      = 3
	DefaultRetryBackoff = 500 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
)

// ConsultantOptions configures a Consultant. Zero values select defaults.
type ConsultantOptions struct {
	Model        string // label for hooks and cache keys
	Cache        cache.Cache
	Keyer        cache.Keyer
	CacheTTL     time.Duration
	RatePerMin   float64
	Burst        int
	Retries      int
	RetryBackoff time.Duration
	Timeout      time.Duration
	Logger       *log.Logger
}

// Consultant guards an Auditor with input checks, rate limiting, caching and
// retries.
type Consultant struct {
	auditor Auditor
	opts    ConsultantOptions
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewConsultant wraps auditor. A nil auditor yields a consultant that
// reports every audit as not configured.
func NewConsultant(auditor Auditor, opts ConsultantOptions) *Consultant {
	if opts.Model == "" {
		opts.Model = DefaultModel
		if m, ok := auditor.(interface{ Model() string }); ok {
			opts.Model = m.Model()
		}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.RatePerMin <= 0 {
		opts.RatePerMin = DefaultRatePerMin
	}
	if opts.Burst <= 0 {
		opts.Burst = max(1, int(opts.RatePerMin/4))
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Consultant{
		auditor: auditor,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerMin/60), opts.Burst),
		logger:  logger,
	}
}

// Configured reports whether an auditor is available.
func (c *Consultant) Configured() bool { return c.auditor != nil }

// Run audits description and returns a coded error on failure. Blank input
// is rejected without contacting the model.
func (c *Consultant) Run(ctx context.Context, description string) (*Result, error) {
	if err := moerr.ValidateDescription(description); err != nil {
		return nil, err
	}
	if c.auditor == nil {
		return nil, moerr.New(moerr.ErrCodeAuditMissing, "audits are not configured")
	}
	description = strings.TrimSpace(description)

	key := c.opts.Keyer.AuditKey(c.opts.Model, description)
	var cached Result
	if hit, err := cache.GetJSON(ctx, c.opts.Cache, "audit", key, &cached); err != nil {
		c.logger.Debug("audit cache read failed", "error", err)
	} else if hit {
		c.logger.Debug("audit cache hit", "model", c.opts.Model)
		return &cached, nil
	}

	if r := c.limiter.Reserve(); !r.OK() {
		return nil, &moerr.RateLimitedError{Message: "audit burst exceeded"}
	} else if d := r.Delay(); d > 0 {
		r.Cancel()
		return nil, &moerr.RateLimitedError{RetryAfter: int(math.Ceil(d.Seconds()))}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	observability.Audit().OnAuditStart(ctx, c.opts.Model)
	var res *Result
	err := httputil.Retry(ctx, c.opts.Retries, c.opts.RetryBackoff, func() error {
		var err error
		res, err = c.auditor.Audit(ctx, description)
		return err
	})
	observability.Audit().OnAuditComplete(ctx, c.opts.Model, time.Since(start), err)
	if err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeAuditFailed, err, "audit failed")
	}

	if err := cache.SetJSON(ctx, c.opts.Cache, "audit", key, res, c.opts.CacheTTL); err != nil {
		c.logger.Debug("audit cache write failed", "error", err)
	}
	c.logger.Info("audit complete", "model", c.opts.Model, "score", res.Score, "took", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// Submit audits description and reports whether a result was produced.
// Every failure, blank input included, is logged and reported as no result.
func (c *Consultant) Submit(ctx context.Context, description string) (*Result, bool) {
	res, err := c.Run(ctx, description)
	if err != nil {
		if moerr.Is(err, moerr.ErrCodeEmptyAudit) {
			return nil, false
		}
		c.logger.Warn("no audit result", "error", err)
		return nil, false
	}
	return res, true
}

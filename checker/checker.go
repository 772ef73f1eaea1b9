package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"copymatch/client/matchapi"
	"copymatch/config"
	"copymatch/highlight"
	"copymatch/ingest"
	"copymatch/logger"
	"copymatch/matcher"
	"copymatch/metrics"
	"copymatch/store"
	"copymatch/text"
	"copymatch/types"
	"copymatch/utils"

	"github.com/google/uuid"
)

// ErrMissingDocument is returned when either side of a comparison is empty
var ErrMissingDocument = errors.New("both documents are required for comparison")

// Request names the two documents to compare. A path wins over inline text,
// except that TextB is used when PathB yields nothing.
type Request struct {
	PathA string
	PathB string
	TextA string
	TextB string
	// NameA and NameB label inline text; paths default to their base name
	NameA string
	NameB string
	// Transport is reported in metrics events (cli, http, nvim)
	Transport string
	SkipCache bool
}

// Options wires a Checker
type Options struct {
	Engine   matcher.Engine
	Fallback matcher.Engine // used when Engine fails, may be nil
	Config   highlight.Config
	Reports  *store.Reports // nil disables the cache
	Tracker  *metrics.Tracker
	Limits   config.LimitsConfig
}

// Checker runs a full comparison: ingest, exact matching, highlight
// refinement, caching and metrics.
type Checker struct {
	engine   matcher.Engine
	fallback matcher.Engine
	hl       *highlight.Engine
	reports  *store.Reports
	tracker  *metrics.Tracker
	limits   config.LimitsConfig
}

// New creates a checker from explicit parts
func New(opts Options) *Checker {
	if opts.Engine == nil {
		opts.Engine = matcher.NewLocal(0, 0)
	}
	if opts.Tracker == nil {
		opts.Tracker = metrics.NewTracker("", "")
	}
	if opts.Config == (highlight.Config{}) {
		opts.Config = highlight.DefaultConfig()
	}
	return &Checker{
		engine:   opts.Engine,
		fallback: opts.Fallback,
		hl:       highlight.NewEngine(opts.Config),
		reports:  opts.Reports,
		tracker:  opts.Tracker,
		limits:   opts.Limits,
	}
}

// FromConfig builds the engine, cache and tracker described by cfg.
// Callers must Close the checker.
func FromConfig(cfg config.Config) (*Checker, error) {
	local := matcher.NewLocal(cfg.Engine.Window, cfg.Engine.ShingleSize)

	opts := Options{
		Engine:  local,
		Config:  cfg.Highlight,
		Tracker: metrics.NewTracker(cfg.Metrics.WebhookURL, dataDir(cfg)),
		Limits:  cfg.Limits,
	}
	if cfg.Engine.Type == config.EngineRemote {
		opts.Engine = matchapi.NewClient(cfg.Engine.URL, cfg.Engine.APIKey, cfg.Engine.TimeoutMs)
		if cfg.Engine.Fallback {
			opts.Fallback = local
		}
	}

	if cfg.Cache.Enabled {
		db, err := store.OpenBolt(cfg.Cache.Path, "reports")
		if err != nil {
			// A second process may hold the cache; run without it
			logger.Warn("checker: cache disabled: %v", err)
		} else {
			opts.Reports = store.NewReports(db)
		}
	}

	return New(opts), nil
}

func dataDir(cfg config.Config) string {
	if !cfg.Cache.Enabled || cfg.Cache.Path == "" {
		return ""
	}
	return filepath.Dir(cfg.Cache.Path)
}

// Check compares the two documents of req
func (c *Checker) Check(ctx context.Context, req Request) (*types.Report, error) {
	defer logger.Trace("checker.Check")()
	start := time.Now()

	report, err := c.check(ctx, req, start)
	if err != nil {
		c.tracker.Track(metrics.Event{
			EventType:  metrics.EventFailed,
			Transport:  req.Transport,
			Engine:     c.engine.Name(),
			DurationMs: time.Since(start).Milliseconds(),
			Error:      err.Error(),
		})
		return nil, err
	}
	return report, nil
}

func (c *Checker) check(ctx context.Context, req Request, start time.Time) (*types.Report, error) {
	textA, nameA, err := c.loadSource(req)
	if err != nil {
		return nil, err
	}
	textB, nameB, err := c.loadTarget(req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return nil, ErrMissingDocument
	}

	textA, cutA := utils.BoundDocument(textA, c.limits.MaxDocumentChars)
	textB, cutB := utils.BoundDocument(textB, c.limits.MaxDocumentChars)
	if cutA || cutB {
		logger.Warn("checker: documents cut to %d characters", c.limits.MaxDocumentChars)
	}

	key := store.ContentKey(textA, textB, c.engine.Name(), c.hl.Config())
	if c.reports != nil && !req.SkipCache {
		if cached, err := c.reports.Lookup(key, textA, textB); err == nil {
			logger.Debug("checker: cache hit %s", cached.ID)
			c.tracker.Counters().CacheHit()
			cached.SourceFileName, cached.TargetFileName = nameA, nameB
			return cached, nil
		}
	}

	engineName := c.engine.Name()
	mr, err := c.engine.Match(ctx, textA, textB)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("checker: %s engine failed: %v", c.engine.Name(), err)
		c.tracker.Counters().EngineFailure()
		mr, engineName = c.degrade(ctx, textA, textB)
	}

	res := c.hl.Run(highlight.Input{
		A:       text.NewDocument(nameA, textA),
		B:       text.NewDocument(nameB, textB),
		Matches: mr.Matches,
		Score:   mr.LocalScore,
	})

	report := &types.Report{
		ID:                  uuid.NewString(),
		OverallScore:        mr.LocalScore,
		LocalScore:          mr.LocalScore,
		RabinKarpScore:      mr.RabinKarpScore,
		JaccardScore:        mr.JaccardScore,
		Highlights:          res.Highlights,
		LocalHighlights:     res.Local,
		ParagraphHighlights: res.Paragraph,
		Mode:                types.ModeLocal,
		Engine:              engineName,
		SourceFullText:      textA,
		TargetFullText:      textB,
		SourceFileName:      nameA,
		TargetFileName:      nameB,
		DroppedMatches:      mr.Dropped,
		Truncated:           cutA || cutB,
		CreatedAt:           time.Now().UTC(),
	}

	if c.reports != nil {
		// A degraded report stays fetchable by ID but is not indexed, so the
		// next request for the same texts retries the engine
		if engineName != c.engine.Name() {
			key = ""
		}
		if err := c.reports.Put(report, key); err != nil {
			logger.Warn("checker: failed to cache report: %v", err)
		}
	}

	counts := make(map[string]int)
	for matchType, n := range report.CountByType() {
		counts[string(matchType)] = n
	}
	c.tracker.Track(metrics.Event{
		EventType:      metrics.EventCompleted,
		ReportID:       report.ID,
		Transport:      req.Transport,
		Engine:         engineName,
		OverallScore:   report.OverallScore,
		Highlights:     counts,
		DroppedMatches: report.DroppedMatches,
		DurationMs:     time.Since(start).Milliseconds(),
	})
	return report, nil
}

// degrade answers for a failed engine: the fallback engine if one is set,
// otherwise score 0 with no matches
func (c *Checker) degrade(ctx context.Context, textA, textB string) (*types.MatchResult, string) {
	if c.fallback != nil {
		mr, err := c.fallback.Match(ctx, textA, textB)
		if err == nil {
			return mr, c.fallback.Name()
		}
		logger.Warn("checker: fallback engine failed: %v", err)
	}
	return types.EmptyMatchResult(), "none"
}

func (c *Checker) loadSource(req Request) (string, string, error) {
	name := displayName(req.NameA, req.PathA, highlight.DefaultSourceFile)
	if req.PathA == "" {
		return req.TextA, name, nil
	}
	s, err := ingest.ReadFile(req.PathA, c.limits.MaxFileBytes)
	if err != nil {
		return "", "", fmt.Errorf("source document: %w", err)
	}
	return s, name, nil
}

func (c *Checker) loadTarget(req Request) (string, string, error) {
	name := displayName(req.NameB, req.PathB, highlight.DefaultTargetFile)
	if req.PathB == "" {
		return req.TextB, name, nil
	}
	s, err := ingest.ReadFile(req.PathB, c.limits.MaxFileBytes)
	if err == nil && strings.TrimSpace(s) != "" {
		return s, name, nil
	}
	if req.TextB != "" {
		logger.Debug("checker: target file unusable (%v), using inline text", err)
		return req.TextB, displayName(req.NameB, "", highlight.DefaultTargetFile), nil
	}
	if err != nil {
		return "", "", fmt.Errorf("target document: %w", err)
	}
	return s, name, nil
}

func displayName(name, path, fallback string) string {
	if name != "" {
		return name
	}
	if path != "" {
		return filepath.Base(path)
	}
	return fallback
}

// Refine runs only the highlight pipeline, for callers that bring their own
// raw matches. The texts are used as given so the match offsets stay valid.
func (c *Checker) Refine(textA, textB string, matches []highlight.RawMatch, score float64) *highlight.Result {
	return c.hl.Run(highlight.Input{
		A:       text.NewDocument(highlight.DefaultSourceFile, textA),
		B:       text.NewDocument(highlight.DefaultTargetFile, textB),
		Matches: matches,
		Score:   score,
	})
}

// Report returns a cached report by ID
func (c *Checker) Report(id string) (*types.Report, error) {
	if c.reports == nil {
		return nil, store.ErrNotFound
	}
	return c.reports.Get(id)
}

// ReportIDs lists the cached report IDs in sorted order
func (c *Checker) ReportIDs() ([]string, error) {
	if c.reports == nil {
		return []string{}, nil
	}
	ids, err := c.reports.IDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteReport removes a cached report, or returns store.ErrNotFound
func (c *Checker) DeleteReport(id string) error {
	if c.reports == nil {
		return store.ErrNotFound
	}
	if _, err := c.reports.Get(id); err != nil {
		return err
	}
	return c.reports.Delete(id)
}

// Counters exposes the process counters
func (c *Checker) Counters() *metrics.Counters {
	return c.tracker.Counters()
}

// EngineName names the primary exact-match engine
func (c *Checker) EngineName() string {
	return c.engine.Name()
}

// Close flushes metrics and closes the cache
func (c *Checker) Close() error {
	c.tracker.Flush()
	if c.reports != nil {
		return c.reports.Close()
	}
	return nil
}

package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/fingerprint"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/frontmatter"
	"git.home.luguber.info/inful/postforge/internal/graph"
	"git.home.luguber.info/inful/postforge/internal/incremental"
	"git.home.luguber.info/inful/postforge/internal/logfields"
	"git.home.luguber.info/inful/postforge/internal/metrics"
	"git.home.luguber.info/inful/postforge/internal/render"
	"git.home.luguber.info/inful/postforge/internal/store"
)

// renderConfig is the part of the configuration that changes output bytes.
type renderConfig struct {
	Site             config.SiteConfig `json:"site"`
	PostsPerPage     int               `json:"posts_per_page"`
	PaginationWindow int               `json:"pagination_window"`
	FeedLimit        int               `json:"feed_limit"`
	HomeLimit        int               `json:"home_limit"`
	Drafts           bool              `json:"drafts"`
	SearchIndex      bool              `json:"search_index"`
	HighlightStyle   string            `json:"highlight_style"`
}

func renderConfigOf(cfg *config.Config) renderConfig {
	return renderConfig{
		Site:             cfg.Site,
		PostsPerPage:     cfg.Build.PostsPerPage,
		PaginationWindow: cfg.Build.PaginationWindow,
		FeedLimit:        cfg.Build.FeedLimit,
		HomeLimit:        cfg.Build.HomeLimit,
		Drafts:           cfg.Build.Drafts,
		SearchIndex:      cfg.SearchIndexEnabled(),
		HighlightStyle:   cfg.Build.HighlightStyle,
	}
}

// pass holds the working set of one build pass.
type pass struct {
	e    *Engine
	cfg  *config.Config
	prev *store.State
	next *store.State
	req  Request
	res  *Result
	log  *slog.Logger

	site     fingerprint.Fingerprint
	renderer Renderer
	opts     graph.Options
}

func newPass(e *Engine, prev *store.State, req Request) *pass {
	if prev == nil {
		prev = store.NewState()
	}
	id := uuid.NewString()
	return &pass{
		e:    e,
		cfg:  e.cfg,
		prev: prev,
		req:  req,
		res:  &Result{PassID: id, Mode: req.Mode, StartedAt: e.now()},
		log:  slog.Default().With(logfields.PassID(id), logfields.Mode(string(req.Mode))),
	}
}

func (p *pass) run(ctx context.Context) (*store.State, error) {
	if err := p.e.validate(p.req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.req.Reason != "" {
		p.log.Info("Build pass started", logfields.Cause(p.req.Reason))
	} else {
		p.log.Info("Build pass started")
	}

	if err := p.loadSiteInputs(); err != nil {
		return nil, err
	}
	p.next = p.prev.Clone()

	var err error
	if p.req.Mode == ModeSingle {
		err = p.buildSingle(ctx)
	} else {
		err = p.buildAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.req.Mode != ModeSingle {
		p.next.SiteFingerprint = p.site
	}
	p.next.Generation = p.prev.Generation + 1
	start := time.Now()
	if err := p.e.store.Commit(p.next); err != nil {
		return nil, err
	}
	p.stage("commit", start)
	p.res.Generation = p.next.Generation
	return p.next, nil
}

// loadSiteInputs fingerprints templates, category descriptions and render
// configuration, and builds the pass's renderer.
func (p *pass) loadSiteInputs() error {
	start := time.Now()
	cats, catFP, err := content.LoadCategories(p.cfg.ContentRoot())
	if err != nil {
		return err
	}
	tplFP, err := fingerprint.Tree(p.cfg.TemplateRoot())
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot read template directory").
			WithContext("path", p.cfg.TemplateRoot()).
			Fatal().
			Build()
	}
	p.site, err = incremental.SiteSignature(incremental.SiteInputs{
		RenderConfig: renderConfigOf(p.cfg),
		Templates:    tplFP,
		Categories:   catFP,
		Renderer:     render.Version,
	})
	if err != nil {
		return errors.InternalError("cannot compute site signature").WithCause(err).Build()
	}
	if p.renderer, err = p.e.renderers(p.cfg, cats); err != nil {
		return err
	}

	hidden := map[string]bool{}
	for slug, c := range cats {
		if c.Hidden {
			hidden[slug] = true
		}
	}
	p.opts = graph.Options{
		PerPage:       p.cfg.Build.PostsPerPage,
		HomeLimit:     p.cfg.Build.HomeLimit,
		FeedLimit:     p.cfg.Build.FeedLimit,
		IncludeDrafts: p.cfg.Build.Drafts,
		SearchIndex:   p.cfg.SearchIndexEnabled(),
		Hidden:        hidden,
	}
	p.stage("site_inputs", start)
	return nil
}

// parsedUnit is a changed unit after its header was read.
type parsedUnit struct {
	entry content.Entry
	body  []byte
	err   error
}

// unitOutcome is the result of rendering one changed unit.
type unitOutcome struct {
	entry    content.Entry
	artifact *render.Artifact
	err      error
}

func (p *pass) parseUnit(u content.Unit) parsedUnit {
	meta, body, err := frontmatter.Parse(u.Raw)
	if err != nil {
		return parsedUnit{err: errors.ParseError("invalid post header").
			WithCause(err).
			WithContext("unit", u.ID).
			Build()}
	}
	return parsedUnit{entry: content.NewEntry(u.ID, meta), body: body}
}

func (p *pass) renderUnit(ctx context.Context, u content.Unit, pu parsedUnit) unitOutcome {
	entry := pu.entry
	if !entry.Published(p.opts.IncludeDrafts) {
		return unitOutcome{entry: entry}
	}

	out, err := p.renderer.RenderUnit(ctx, entry, pu.body)
	if err != nil {
		return unitOutcome{err: err}
	}
	if err := p.e.out.Write(out.Artifact.Path, out.Artifact.Body); err != nil {
		return unitOutcome{err: err}
	}
	entry.Summary = out.Summary
	p.log.Debug("Rendered unit", logfields.Unit(u.ID), logfields.Path(out.Artifact.Path))
	return unitOutcome{entry: entry, artifact: &out.Artifact}
}

// record turns a successful outcome into the unit's new build record.
func (p *pass) record(u content.Unit, o unitOutcome) store.UnitRecord {
	rec := store.UnitRecord{
		Fingerprint:     u.Fingerprint,
		SiteFingerprint: p.site,
		Entry:           o.entry,
		BuiltAt:         p.e.now().UTC(),
	}
	if o.artifact != nil {
		rec.OutputPath = o.artifact.Path
		rec.OutputFingerprint = o.artifact.Fingerprint
	}
	return rec
}

func (p *pass) unitFailed(id string, err error) {
	p.res.Units.Failed++
	p.res.fail(metrics.KindUnit, id, err)
	p.log.Warn("Unit failed, keeping previous output", logfields.Unit(id), logfields.Error(err))
}

// outputOwners maps every page path claimed by a published entry to the
// lowest unit ID that claims it.
func outputOwners(entries map[string]content.Entry, includeDrafts bool) map[string]string {
	owners := map[string]string{}
	for id, e := range entries {
		if !e.Published(includeDrafts) {
			continue
		}
		path := e.OutputPath()
		if cur, ok := owners[path]; !ok || id < cur {
			owners[path] = id
		}
	}
	return owners
}

func collisionError(id, path, owner string) error {
	return errors.WriteError("output path is claimed by another post").
		WithContext("unit", id).
		WithContext("path", path).
		WithContext("owner", owner).
		Build()
}

func (p *pass) buildAll(ctx context.Context) error {
	full := p.req.Mode == ModeFull
	p.res.FullReason = p.req.Reason
	if !full && p.prev.SiteFingerprint != p.site {
		full = true
		p.res.FullReason = "site inputs changed"
		if p.prev.SiteFingerprint.IsZero() {
			p.res.FullReason = "no previous build"
		}
	}
	p.res.Full = full
	if full {
		p.log.Info("Rebuilding everything", logfields.Cause(p.res.FullReason))
	}

	start := time.Now()
	scan, err := content.Scan(p.cfg.ContentRoot())
	if err != nil {
		return err
	}
	for _, s := range scan.Skipped {
		p.log.Warn("Skipping unreadable content", logfields.Path(s.Prefix), logfields.Error(s.Err))
	}
	p.stage("scan", start)

	cs := incremental.Classify(scan.Units, p.prev.Units, scan.Covers)
	stale := map[string]struct{}{}
	for _, id := range cs.Unchanged {
		if full || p.prev.Units[id].SiteFingerprint != p.site {
			stale[id] = struct{}{}
		}
	}
	cs = cs.Promote(stale)
	p.res.Changes = cs
	p.log.Debug("Classified units",
		slog.Int("unchanged", len(cs.Unchanged)),
		slog.Int("modified", len(cs.Modified)),
		slog.Int("added", len(cs.Added)),
		slog.Int("removed", len(cs.Removed)))

	entries := map[string]content.Entry{}
	units := make(map[string]content.Unit, len(scan.Units))
	for _, u := range scan.Units {
		units[u.ID] = u
	}
	for id, rec := range p.prev.Units {
		if _, ok := units[id]; !ok && scan.Covers(id) {
			entries[id] = rec.Entry
		}
	}
	for _, id := range cs.Unchanged {
		entries[id] = p.prev.Units[id].Entry
	}

	if err := p.buildUnits(ctx, cs, units, entries); err != nil {
		return err
	}
	p.removeUnits(cs.Removed)

	all := make([]content.Entry, 0, len(entries))
	for _, e := range entries {
		all = append(all, e)
	}
	if err := p.buildAggregates(ctx, cs, all, full); err != nil {
		return err
	}
	p.syncAssets(full)
	return nil
}

func (p *pass) buildUnits(ctx context.Context, cs incremental.ChangeSet, units map[string]content.Unit, entries map[string]content.Entry) error {
	start := time.Now()
	changed := cs.Changed()
	parsed := make([]parsedUnit, len(changed))
	if err := forEach(ctx, p.e.workers, len(changed), func(i int) {
		parsed[i] = p.parseUnit(units[changed[i]])
	}); err != nil {
		return err
	}

	failed := map[string]bool{}
	for i, id := range changed {
		if parsed[i].err == nil {
			entries[id] = parsed[i].entry
			continue
		}
		failed[id] = true
		p.unitFailed(id, parsed[i].err)
		if prior, had := p.prev.Units[id]; had {
			entries[id] = prior.Entry
		} else {
			delete(entries, id)
		}
	}

	// Posts that map to a taken page path lose to the lowest ID and keep no
	// record until the clash is resolved.
	moved := map[string]string{}
	owners := outputOwners(entries, p.opts.IncludeDrafts)
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := entries[id]
		if !e.Published(p.opts.IncludeDrafts) {
			continue
		}
		owner := owners[e.OutputPath()]
		if owner == id {
			continue
		}
		if !failed[id] {
			failed[id] = true
			p.unitFailed(id, collisionError(id, e.OutputPath(), owner))
		}
		delete(entries, id)
		if prior, had := p.next.Units[id]; had {
			delete(p.next.Units, id)
			if prior.OutputPath != "" {
				moved[id] = prior.OutputPath
			}
		}
	}
	for _, id := range cs.Unchanged {
		if _, ok := entries[id]; ok {
			p.res.Units.Skipped++
		}
	}

	var todo []int
	for i, id := range changed {
		if !failed[id] {
			todo = append(todo, i)
		}
	}
	outcomes := make([]unitOutcome, len(changed))
	if err := forEach(ctx, p.e.workers, len(todo), func(j int) {
		i := todo[j]
		outcomes[i] = p.renderUnit(ctx, units[changed[i]], parsed[i])
	}); err != nil {
		return err
	}

	for _, i := range todo {
		id := changed[i]
		o := outcomes[i]
		prior, had := p.prev.Units[id]
		if o.err != nil {
			p.unitFailed(id, o.err)
			if had {
				entries[id] = prior.Entry
			} else {
				delete(entries, id)
			}
			continue
		}
		rec := p.record(units[id], o)
		p.next.Units[id] = rec
		entries[id] = rec.Entry
		if o.artifact != nil {
			p.res.Units.Built++
		} else {
			p.res.Units.Skipped++
		}
		if had && prior.OutputPath != "" && prior.OutputPath != rec.OutputPath {
			moved[id] = prior.OutputPath
		}
	}

	ids = make([]string, 0, len(moved))
	for id := range moved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	claimed := p.claimedUnitOutputs()
	for _, id := range ids {
		if claimed[moved[id]] {
			continue
		}
		if err := p.e.out.Remove(moved[id]); err != nil {
			p.res.Units.Failed++
			p.res.fail(metrics.KindUnit, id, err)
			continue
		}
		p.res.Units.Deleted++
		p.log.Debug("Removed stale unit output", logfields.Unit(id), logfields.Path(moved[id]))
	}
	p.stage("units", start)
	return nil
}

func (p *pass) removeUnits(removed []string) {
	claimed := p.claimedUnitOutputs()
	for _, id := range removed {
		rec := p.prev.Units[id]
		delete(p.next.Units, id)
		if rec.OutputPath == "" || claimed[rec.OutputPath] {
			continue
		}
		if err := p.e.out.Remove(rec.OutputPath); err != nil {
			// keep the record so the removal is retried
			p.next.Units[id] = rec
			p.res.Units.Failed++
			p.res.fail(metrics.KindUnit, id, err)
			continue
		}
		p.res.Units.Deleted++
		p.log.Debug("Removed output of deleted unit", logfields.Unit(id), logfields.Path(rec.OutputPath))
	}
}

func (p *pass) claimedUnitOutputs() map[string]bool {
	out := make(map[string]bool, len(p.next.Units))
	for _, rec := range p.next.Units {
		if rec.OutputPath != "" {
			out[rec.OutputPath] = true
		}
	}
	return out
}

type aggregateOutcome struct {
	artifact render.Artifact
	err      error
}

func (p *pass) buildAggregates(ctx context.Context, cs incremental.ChangeSet, entries []content.Entry, full bool) error {
	start := time.Now()
	membership := graph.Build(entries, p.opts)
	var keys []graph.Key
	if full {
		keys = graph.All(membership)
	} else {
		keys = graph.Affected(cs, p.prev.Aggregates, membership)
	}
	p.res.Aggregates.Skipped = len(membership) - len(keys)

	idx := render.NewIndex(graph.Published(entries, p.opts))
	outcomes := make([]aggregateOutcome, len(keys))
	if err := forEach(ctx, p.e.workers, len(keys), func(i int) {
		agg := membership[keys[i]]
		art, err := p.renderer.RenderAggregate(ctx, agg, idx)
		if err == nil {
			err = p.e.out.Write(art.Path, art.Body)
		}
		outcomes[i] = aggregateOutcome{artifact: art, err: err}
	}); err != nil {
		return err
	}

	for i, k := range keys {
		ks := k.String()
		agg := membership[k]
		if err := outcomes[i].err; err != nil {
			rec := p.prev.Aggregates[ks]
			rec.OutputPath = k.OutputPath()
			rec.Failed = true
			p.next.Aggregates[ks] = rec
			p.res.Aggregates.Failed++
			p.res.fail(metrics.KindAggregate, ks, err)
			p.log.Warn("Aggregate failed, will retry", logfields.Aggregate(ks), logfields.Error(err))
			continue
		}
		p.next.Aggregates[ks] = store.AggregateRecord{
			Members:           agg.Members,
			Shape:             agg.Shape,
			OutputPath:        outcomes[i].artifact.Path,
			OutputFingerprint: outcomes[i].artifact.Fingerprint,
			BuiltAt:           p.e.now().UTC(),
		}
		p.res.Aggregates.Built++
	}

	live := p.claimedUnitOutputs()
	for k := range membership {
		live[k.OutputPath()] = true
	}
	for _, ks := range graph.Vanished(p.prev.Aggregates, membership) {
		rec := p.prev.Aggregates[ks]
		if rec.OutputPath != "" && !live[rec.OutputPath] {
			if err := p.e.out.Remove(rec.OutputPath); err != nil {
				p.res.Aggregates.Failed++
				p.res.fail(metrics.KindAggregate, ks, err)
				continue
			}
		}
		delete(p.next.Aggregates, ks)
		p.res.Aggregates.Deleted++
		p.log.Debug("Removed vanished aggregate", logfields.Aggregate(ks), logfields.Path(rec.OutputPath))
	}
	p.stage("aggregates", start)
	return nil
}

// desiredAsset is one file the output tree should contain besides rendered
// pages.
type desiredAsset struct {
	fp     fingerprint.Fingerprint
	source string
	body   []byte
}

// syncAssets copies new or changed static and content assets, writes the
// code stylesheet and removes assets whose source disappeared. A listing
// failure leaves every asset as it was.
func (p *pass) syncAssets(full bool) {
	start := time.Now()
	desired := map[string]desiredAsset{}

	css, err := p.renderer.StyleSheet()
	if err != nil {
		p.res.Assets.Failed++
		p.res.fail(metrics.KindAsset, render.StyleSheetPath, err)
	} else {
		desired[css.Path] = desiredAsset{fp: css.Fingerprint, body: css.Body}
	}
	for _, list := range []func() ([]content.Asset, error){
		func() ([]content.Asset, error) { return content.ContentAssets(p.cfg.ContentRoot()) },
		func() ([]content.Asset, error) { return content.StaticAssets(p.cfg.StaticRoot()) },
	} {
		assets, err := list()
		if err != nil {
			p.res.Assets.Failed++
			p.res.fail(metrics.KindAsset, "", err)
			p.log.Warn("Cannot list assets, leaving them untouched", logfields.Error(err))
			return
		}
		for _, a := range assets {
			desired[a.Target] = desiredAsset{fp: a.Fingerprint, source: a.Source}
		}
	}

	pages := p.claimedUnitOutputs()
	for _, rec := range p.next.Aggregates {
		pages[rec.OutputPath] = true
	}

	targets := make([]string, 0, len(desired))
	for t := range desired {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, target := range targets {
		d := desired[target]
		if pages[target] {
			p.log.Warn("Asset collides with a rendered page, skipping", logfields.Path(target))
			continue
		}
		prior, had := p.prev.Assets[target]
		if !full && had && prior.Fingerprint == d.fp && prior.Source == d.source && p.e.out.Exists(target) {
			p.res.Assets.Skipped++
			continue
		}
		var err error
		if d.source != "" {
			err = p.e.out.Copy(target, d.source)
		} else {
			err = p.e.out.Write(target, d.body)
		}
		if err != nil {
			p.res.Assets.Failed++
			p.res.fail(metrics.KindAsset, target, err)
			continue
		}
		p.next.Assets[target] = store.AssetRecord{Fingerprint: d.fp, Source: d.source}
		p.res.Assets.Built++
	}

	for target := range p.prev.Assets {
		if _, ok := desired[target]; ok {
			continue
		}
		if !pages[target] {
			if err := p.e.out.Remove(target); err != nil {
				p.res.Assets.Failed++
				p.res.fail(metrics.KindAsset, target, err)
				continue
			}
		}
		delete(p.next.Assets, target)
		p.res.Assets.Deleted++
	}
	p.stage("assets", start)
}

// buildSingle renders one unit and records it without touching aggregates.
// The record is left stale so the next incremental pass brings the
// aggregates listing the unit up to date.
func (p *pass) buildSingle(ctx context.Context) error {
	root, err := filepath.Abs(p.cfg.ContentRoot())
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot resolve content root").Build()
	}
	target := p.req.Unit
	if !filepath.IsAbs(target) {
		if _, err := os.Stat(target); err != nil {
			target = filepath.Join(root, target)
		}
	}
	if target, err = filepath.Abs(target); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid unit path").Build()
	}

	u, err := content.ReadUnit(root, target)
	if err != nil {
		return err
	}
	pu := p.parseUnit(u)
	if pu.err == nil && pu.entry.Published(p.opts.IncludeDrafts) {
		entries := map[string]content.Entry{u.ID: pu.entry}
		for id, rec := range p.prev.Units {
			if id != u.ID && rec.Entry.Published(p.opts.IncludeDrafts) && rec.Entry.OutputPath() == pu.entry.OutputPath() {
				entries[id] = rec.Entry
			}
		}
		if owner := outputOwners(entries, p.opts.IncludeDrafts)[pu.entry.OutputPath()]; owner != u.ID {
			pu.err = collisionError(u.ID, pu.entry.OutputPath(), owner)
		} else {
			// the displaced post loses its record and fails on the next pass
			for id := range entries {
				if id != u.ID {
					delete(p.next.Units, id)
				}
			}
		}
	}
	if pu.err != nil {
		p.res.Units.Failed++
		p.res.fail(metrics.KindUnit, u.ID, pu.err)
		return pu.err
	}
	o := p.renderUnit(ctx, u, pu)
	if o.err != nil {
		p.res.Units.Failed++
		p.res.fail(metrics.KindUnit, u.ID, o.err)
		return o.err
	}

	prior, had := p.prev.Units[u.ID]
	rec := p.record(u, o)
	// Aggregates still list the stored entry. A zero fingerprint makes the
	// next pass treat the unit as modified and refresh them.
	rec.Fingerprint = fingerprint.Zero
	p.next.Units[u.ID] = rec
	if o.artifact != nil {
		p.res.Units.Built++
	} else {
		p.res.Units.Skipped++
	}
	if had && prior.OutputPath != "" && prior.OutputPath != rec.OutputPath && !p.claimedUnitOutputs()[prior.OutputPath] {
		if err := p.e.out.Remove(prior.OutputPath); err != nil {
			p.res.Units.Failed++
			p.res.fail(metrics.KindUnit, u.ID, err)
		} else {
			p.res.Units.Deleted++
		}
	}
	if had {
		p.res.Changes.Modified = []string{u.ID}
	} else {
		p.res.Changes.Added = []string{u.ID}
	}
	return nil
}

func (p *pass) stage(name string, start time.Time) {
	d := time.Since(start)
	p.e.recorder.ObserveStageDuration(name, d)
	p.log.Debug("Stage complete", logfields.Stage(name), logfields.DurationMS(float64(d.Microseconds())/1000))
}

// finish fills in the outcome, records metrics, logs the summary and
// notifies hooks of successful passes.
func (p *pass) finish(ctx context.Context, err error) {
	res := p.res
	res.FinishedAt = p.e.now()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)

	switch {
	case err != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)):
		res.Status = StatusCanceled
	case err != nil:
		res.Status = StatusFailed
	case res.Failed() > 0:
		res.Status = StatusPartial
	default:
		res.Status = StatusSuccess
	}

	rec := p.e.recorder
	rec.ObservePassDuration(string(res.Mode), res.Duration)
	rec.IncPassOutcome(metrics.PassOutcome(res.Status))
	for kind, c := range map[string]Counts{
		metrics.KindUnit:      res.Units,
		metrics.KindAggregate: res.Aggregates,
		metrics.KindAsset:     res.Assets,
	} {
		rec.AddItems(kind, metrics.ResultBuilt, c.Built)
		rec.AddItems(kind, metrics.ResultSkipped, c.Skipped)
		rec.AddItems(kind, metrics.ResultFailed, c.Failed)
		rec.AddItems(kind, metrics.ResultDeleted, c.Deleted)
	}

	attrs := []any{
		slog.String("status", string(res.Status)),
		slog.Bool("full", res.Full),
		slog.Int("built", res.Built()),
		slog.Int("skipped", res.Skipped()),
		slog.Int("failed", res.Failed()),
		slog.Int("deleted", res.Deleted()),
		logfields.DurationMS(float64(res.Duration.Microseconds()) / 1000),
	}
	switch res.Status {
	case StatusSuccess:
		p.log.Info("Build pass complete", append(attrs, logfields.Generation(res.Generation))...)
	case StatusPartial:
		p.log.Warn("Build pass complete with failures", append(attrs, logfields.Generation(res.Generation))...)
	case StatusCanceled:
		p.log.Info("Build pass canceled", attrs...)
	default:
		p.log.Error("Build pass failed", append(attrs, logfields.Error(err))...)
	}

	if err == nil {
		for _, h := range p.e.hooks {
			h.PassCompleted(ctx, res)
		}
	}
}

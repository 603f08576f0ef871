// Package resolver maps a raw mention to a roster node through a fixed
// cascade: exact alias, dialect-normalized alias, fuzzy alias, then dated
// portfolio title. The first stage that binds the mention wins.
//
// A Resolver never mutates its index and holds no per-call state, so one
// instance serves any number of goroutines.
package resolver

import (
	"time"

	"go.uber.org/zap"

	"github.com/teranos/hansard/alias"
	"github.com/teranos/hansard/dialect"
	"github.com/teranos/hansard/logger"
)

// Defaults for the tunable confidences.
const (
	DefaultFuzzyThreshold          = 0.85
	DefaultDialectDiscount         = 0.95
	DefaultCollisionConfidence     = 0.5
	DefaultCurrentHolderConfidence = 0.8
)

// Resolver resolves mentions against one alias index.
type Resolver struct {
	ix                      *alias.Index
	dialect                 *dialect.Table
	fuzzyThreshold          float64
	dialectDiscount         float64
	collisionConfidence     float64
	currentHolderConfidence float64
	stages                  []stage
	log                     *zap.SugaredLogger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithFuzzyThreshold sets the minimum token-sort ratio for a fuzzy match
func WithFuzzyThreshold(t float64) Option {
	return func(r *Resolver) { r.fuzzyThreshold = t }
}

// WithDialectDiscount sets the multiplier applied to dialect-normalized hits
func WithDialectDiscount(d float64) Option {
	return func(r *Resolver) { r.dialectDiscount = d }
}

// WithCollisionConfidence sets the confidence of a best-effort pick among colliding claimants
func WithCollisionConfidence(c float64) Option {
	return func(r *Resolver) { r.collisionConfidence = c }
}

// WithCurrentHolderConfidence sets the confidence of an undated portfolio match
func WithCurrentHolderConfidence(c float64) Option {
	return func(r *Resolver) { r.currentHolderConfidence = c }
}

// WithDialectTable replaces the built-in dialect table; nil disables the dialect stage
func WithDialectTable(t *dialect.Table) Option {
	return func(r *Resolver) { r.dialect = t }
}

// WithLogger sets the logger used for per-mention debug output
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Resolver) { r.log = l }
}

// New creates a Resolver over ix.
func New(ix *alias.Index, opts ...Option) *Resolver {
	r := &Resolver{
		ix:                      ix,
		dialect:                 dialect.MustDefault(),
		fuzzyThreshold:          DefaultFuzzyThreshold,
		dialectDiscount:         DefaultDialectDiscount,
		collisionConfidence:     DefaultCollisionConfidence,
		currentHolderConfidence: DefaultCurrentHolderConfidence,
		log:                     logger.ComponentLogger("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stages = []stage{
		{MethodExact, r.exact},
		{MethodDialectNormalized, r.dialectNormalized},
		{MethodFuzzy, r.fuzzy},
		{MethodTemporalPortfolio, r.temporalPortfolio},
	}
	return r
}

// Index returns the index this resolver reads.
func (r *Resolver) Index() *alias.Index {
	return r.ix
}

// Resolve binds raw to a node. A zero refDate means no date is known, which
// only matters for portfolio titles and tenure-based disambiguation.
// Resolution failure is a result, never an error.
func (r *Resolver) Resolve(raw string, refDate time.Time) Result {
	q := r.newQuery(raw, refDate)
	if q.key == "" {
		return Unresolved
	}

	for _, s := range r.stages {
		if res, ok := s.eval(q); ok {
			r.log.Debugw("Mention resolved",
				logger.FieldMention, raw,
				logger.FieldNormalized, q.key,
				logger.FieldNodeID, res.NodeID,
				logger.FieldMethod, res.Method.String(),
				logger.FieldConfidence, res.Confidence,
				logger.FieldCollision, res.CollisionWarning)
			return res
		}
	}

	r.log.Debugw("Mention unresolved",
		logger.FieldMention, raw,
		logger.FieldNormalized, q.key)
	return Unresolved
}

type stage struct {
	method Method
	eval   func(query) (Result, bool)
}

// query is the per-call view of a mention, computed once.
type query struct {
	key      string
	variants []string // normalized dialect variants, excluding key
	refDate  time.Time
}

func (q query) dated() bool {
	return !q.refDate.IsZero()
}

func (r *Resolver) newQuery(raw string, refDate time.Time) query {
	q := query{key: alias.Normalize(raw), refDate: refDate}
	if r.dialect == nil || q.key == "" {
		return q
	}
	seen := map[string]bool{q.key: true}
	for _, v := range r.dialect.Variants(raw) {
		k := alias.Normalize(v)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		q.variants = append(q.variants, k)
	}
	return q
}

func (r *Resolver) exact(q query) (Result, bool) {
	return r.lookupStatic(q.key, q.refDate, MethodExact)
}

func (r *Resolver) dialectNormalized(q query) (Result, bool) {
	for _, v := range q.variants {
		if res, ok := r.lookupStatic(v, q.refDate, MethodDialectNormalized); ok {
			res.Confidence *= r.dialectDiscount
			return res, true
		}
	}
	return Result{}, false
}

// fuzzyHit is one alias that cleared the threshold, already bound to a node.
type fuzzyHit struct {
	score     float64
	order     int
	nodeID    string
	collision bool
}

func (r *Resolver) fuzzy(q query) (Result, bool) {
	// A literal portfolio title belongs to the temporal stage, which knows its holder exactly
	if r.portfolioKey(q) != "" {
		return Result{}, false
	}

	candidates := append([]string{q.key}, q.variants...)
	score := func(key string) float64 {
		best := 0.0
		for _, c := range candidates {
			if s := TokenSortRatio(c, key); s > best {
				best = s
			}
		}
		return best
	}

	var (
		best  fuzzyHit
		found bool
	)
	consider := func(h fuzzyHit) {
		if !found || h.score > best.score || (h.score == best.score && h.order < best.order) {
			best, found = h, true
		}
	}

	for _, e := range r.ix.Entries() {
		s := score(e.Alias)
		if s < r.fuzzyThreshold {
			continue
		}
		nodeID, collision := r.pick(e.NodeIDs, q.refDate)
		consider(fuzzyHit{score: s, order: r.firstOrder(e.NodeIDs), nodeID: nodeID, collision: collision})
	}

	// Near-miss titles bind to whoever held the title on the date, as a literal would
	for _, key := range r.ix.PortfolioAliases() {
		s := score(key)
		if s < r.fuzzyThreshold {
			continue
		}
		claim, n := r.holder(r.ix.PortfolioClaims(key), q)
		if n == 0 {
			continue
		}
		consider(fuzzyHit{score: s, order: claim.Order, nodeID: claim.NodeID, collision: n > 1})
	}

	if !found {
		return Result{}, false
	}
	res := Result{NodeID: best.nodeID, Confidence: best.score, Method: MethodFuzzy, CollisionWarning: best.collision}
	if best.collision && res.Confidence > r.collisionConfidence {
		res.Confidence = r.collisionConfidence
	}
	return res, true
}

func (r *Resolver) temporalPortfolio(q query) (Result, bool) {
	key := r.portfolioKey(q)
	if key == "" {
		return Result{}, false
	}

	claim, n := r.holder(r.ix.PortfolioClaims(key), q)
	switch n {
	case 0:
		return Result{}, false
	case 1:
		conf := 1.0
		if !q.dated() {
			conf = r.currentHolderConfidence
		}
		return Result{NodeID: claim.NodeID, Confidence: conf, Method: MethodTemporalPortfolio}, true
	default:
		conf := r.collisionConfidence
		if !q.dated() && r.currentHolderConfidence < conf {
			conf = r.currentHolderConfidence
		}
		return Result{NodeID: claim.NodeID, Confidence: conf, Method: MethodTemporalPortfolio, CollisionWarning: true}, true
	}
}

// holder picks among the claims of one portfolio alias: the claims covering
// the reference date, or the current claims when there is none. It returns
// the earliest roster entry among them and how many matched.
func (r *Resolver) holder(claims []alias.PortfolioClaim, q query) (alias.PortfolioClaim, int) {
	var (
		first alias.PortfolioClaim
		n     int
	)
	for _, c := range claims {
		if q.dated() && !c.ActiveOn(q.refDate) || !q.dated() && !c.Current() {
			continue
		}
		if n == 0 || c.Order < first.Order {
			first = c
		}
		n++
	}
	return first, n
}

// portfolioKey returns the first of the mention's forms that is a portfolio literal.
func (r *Resolver) portfolioKey(q query) string {
	if r.ix.IsPortfolioAlias(q.key) {
		return q.key
	}
	for _, v := range q.variants {
		if r.ix.IsPortfolioAlias(v) {
			return v
		}
	}
	return ""
}

func (r *Resolver) lookupStatic(key string, refDate time.Time, method Method) (Result, bool) {
	claimants := r.ix.Claimants(key)
	if len(claimants) == 0 {
		return Result{}, false
	}
	nodeID, collision := r.pick(claimants, refDate)
	if collision {
		return Result{NodeID: nodeID, Confidence: r.collisionConfidence, Method: method, CollisionWarning: true}, true
	}
	return Result{NodeID: nodeID, Confidence: 1.0, Method: method}, true
}

// pick chooses among claimants of one alias. With a date, claimants not
// seated on that day are dropped first; if exactly one remains the pick is
// unambiguous. Otherwise the earliest roster entry wins and the pick is
// reported as a collision.
func (r *Resolver) pick(claimants []string, refDate time.Time) (string, bool) {
	if len(claimants) == 1 {
		return claimants[0], false
	}

	pool := claimants
	if !refDate.IsZero() {
		var seated []string
		for _, id := range claimants {
			if rec, ok := r.ix.Record(id); ok && rec.HeldSeatOn(refDate) {
				seated = append(seated, id)
			}
		}
		if len(seated) == 1 {
			return seated[0], false
		}
		if len(seated) > 1 {
			pool = seated
		}
	}

	best := pool[0]
	bestOrder := r.order(best)
	for _, id := range pool[1:] {
		if o := r.order(id); o < bestOrder {
			best, bestOrder = id, o
		}
	}
	return best, true
}

func (r *Resolver) order(nodeID string) int {
	if o, ok := r.ix.Order(nodeID); ok {
		return o
	}
	return int(^uint(0) >> 1)
}

func (r *Resolver) firstOrder(nodeIDs []string) int {
	lowest := int(^uint(0) >> 1)
	for _, id := range nodeIDs {
		if o := r.order(id); o < lowest {
			lowest = o
		}
	}
	return lowest
}

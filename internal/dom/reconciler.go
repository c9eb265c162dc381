package dom

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultReleaseThreshold bounds the release pool when no explicit
// threshold is configured.
const DefaultReleaseThreshold = 64

// Result reports what one Sync pass did. A pass over an unchanged
// tree yields the zero Result.
type Result struct {
	// Created is the number of brand-new elements.
	Created int

	// Reused is the number of elements revived from the release pool.
	Reused int

	// Updated counts elements whose content, classes, styles or
	// attributes changed.
	Updated int

	// Moved counts surviving elements whose position changed.
	Moved int

	// Released counts elements parked in the release pool.
	Released int

	// Removed counts elements destroyed outright, including pool
	// evictions forced by this pass.
	Removed int
}

// add folds a child pass into the parent's result.
func (r *Result) add(other Result) {
	r.Created += other.Created
	r.Reused += other.Reused
	r.Updated += other.Updated
	r.Moved += other.Moved
	r.Released += other.Released
	r.Removed += other.Removed
}

// Zero reports whether the pass changed nothing.
func (r Result) Zero() bool {
	return r == Result{}
}

// Reconciler synchronizes live element trees with descriptor trees.
// It owns the release pool shared by every container it syncs.
type Reconciler struct {
	pool    *lru.Cache[string, *Element]
	logger  *zap.Logger
	evicted int
}

// Option configures a Reconciler.
type Option func(*reconcilerConfig)

type reconcilerConfig struct {
	releaseThreshold int
	logger           *zap.Logger
}

// WithReleaseThreshold bounds the release pool. Zero disables pooling:
// unmatched elements are destroyed immediately.
func WithReleaseThreshold(n int) Option {
	return func(c *reconcilerConfig) {
		c.releaseThreshold = n
	}
}

// WithReconcilerLogger sets the logger.
func WithReconcilerLogger(logger *zap.Logger) Option {
	return func(c *reconcilerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewReconciler constructs a Reconciler.
func NewReconciler(opts ...Option) *Reconciler {
	cfg := reconcilerConfig{
		releaseThreshold: DefaultReleaseThreshold,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Reconciler{logger: cfg.logger}
	if cfg.releaseThreshold > 0 {
		// Eviction destroys the oldest pooled element; the pool never
		// grows past the threshold.
		pool, err := lru.NewWithEvict(cfg.releaseThreshold, func(_ string, el *Element) {
			el.destroy()
			r.evicted++
		})
		if err == nil {
			r.pool = pool
		}
	}
	return r
}

// PoolSize returns the number of elements currently parked.
func (r *Reconciler) PoolSize() int {
	if r.pool == nil {
		return 0
	}
	return r.pool.Len()
}

// SyncOption configures a single Sync pass.
type SyncOption func(*syncConfig)

type syncConfig struct {
	force bool
}

// WithForce re-applies desired classes even when already present, so
// a class removed and re-added within one pass still observably
// restarts its transition.
func WithForce() SyncOption {
	return func(c *syncConfig) {
		c.force = true
	}
}

// Sync makes target's children match desired, with minimal creation,
// patching, reordering and removal. When two desired siblings share a
// key it returns ErrSyncIDCollision before touching anything.
func (r *Reconciler) Sync(target *Element, desired []Node, opts ...SyncOption) (Result, error) {
	cfg := syncConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkSyncIDs(desired); err != nil {
		return Result{}, err
	}
	// Evictions are tallied once per pass, here, no matter how deep
	// the retire that forced them happened.
	evictedBefore := r.evicted
	res, err := r.syncChildren(target, desired, cfg)
	res.Removed += r.evicted - evictedBefore
	return res, err
}

// checkSyncIDs validates key uniqueness for one sibling list and,
// recursively, every nested list.
func checkSyncIDs(desired []Node) error {
	var seen map[string]bool
	for _, d := range desired {
		if d.SyncID != "" {
			if seen == nil {
				seen = make(map[string]bool, len(desired))
			}
			if seen[d.SyncID] {
				return &CollisionError{SyncID: d.SyncID}
			}
			seen[d.SyncID] = true
		}
		if err := checkSyncIDs(d.Children); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) syncChildren(target *Element, desired []Node, cfg syncConfig) (Result, error) {
	var res Result

	live := target.children
	consumed := make([]bool, len(live))
	oldIndex := make(map[*Element]int, len(live))
	byKey := make(map[string]int)
	for i, el := range live {
		oldIndex[el] = i
		if el.lastSyncID != "" {
			byKey[el.lastSyncID] = i
		}
	}

	next := make([]*Element, 0, len(desired))
	// cursor walks the unkeyed live children in order for positional
	// matching; a tag mismatch leaves the candidate where it is so a
	// later descriptor of the right tag can still claim it.
	cursor := 0

	for _, d := range desired {
		var el *Element

		if d.SyncID != "" {
			if i, ok := byKey[d.SyncID]; ok && !consumed[i] && live[i].tag == d.Tag {
				el = live[i]
				consumed[i] = true
			}
		} else {
			for cursor < len(live) && (consumed[cursor] || live[cursor].lastSyncID != "") {
				cursor++
			}
			if cursor < len(live) && live[cursor].tag == d.Tag {
				el = live[cursor]
				consumed[cursor] = true
				cursor++
			}
		}

		existed := el != nil
		if el == nil {
			el = r.takeFromPool(d)
			if el != nil {
				res.Reused++
			} else {
				el = NewElement(d.Tag)
				res.Created++
			}
		}

		changed, err := r.patch(el, d, cfg, &res)
		if err != nil {
			return res, err
		}
		if changed && existed {
			res.Updated++
		}
		el.lastSyncID = d.SyncID
		el.parent = target

		if existed && oldIndex[el] != len(next) {
			res.Moved++
		}
		next = append(next, el)
	}

	for i, el := range live {
		if consumed[i] {
			continue
		}
		r.retire(el, &res)
	}

	target.children = next
	return res, nil
}

// takeFromPool revives a pooled element for a keyed descriptor.
func (r *Reconciler) takeFromPool(d Node) *Element {
	if r.pool == nil || d.SyncID == "" {
		return nil
	}
	el, ok := r.pool.Get(d.SyncID)
	if !ok || el.tag != d.Tag {
		return nil
	}
	r.pool.Remove(d.SyncID)
	el.revive()
	return el
}

// retire parks a keyed element in the pool for later revival. Unkeyed
// elements are destroyed outright, since takeFromPool only looks up
// sync IDs and could never find them again.
func (r *Reconciler) retire(el *Element, res *Result) {
	if r.pool == nil || el.lastSyncID == "" {
		el.destroy()
		res.Removed++
		return
	}
	el.release()
	res.Released++
	r.pool.Add(el.lastSyncID, el)
}

// patch applies one descriptor to one element, diffing rather than
// replacing. Returns whether anything observable changed.
func (r *Reconciler) patch(el *Element, d Node, cfg syncConfig, res *Result) (bool, error) {
	changed := false

	changed = diffClasses(el, d.Classes, cfg.force) || changed
	changed = diffMap(el.style, d.Style) || changed
	changed = diffMap(el.dataset, d.Dataset) || changed
	changed = diffMap(el.attrs, d.Attrs) || changed

	switch {
	case d.hasChildren():
		// Children win over flat content.
		if el.text != "" || el.raw != "" {
			el.text, el.raw = "", ""
			changed = true
		}
		childRes, err := r.syncChildren(el, d.Children, cfg)
		if err != nil {
			return changed, err
		}
		res.add(childRes)
	case d.Text != "":
		if el.text != d.Text || el.raw != "" {
			el.text, el.raw = d.Text, ""
			changed = true
		}
		changed = r.clearChildren(el, res) || changed
	default:
		if el.raw != d.Raw || el.text != "" {
			el.raw, el.text = d.Raw, ""
			changed = true
		}
		changed = r.clearChildren(el, res) || changed
	}

	return changed, nil
}

// clearChildren retires every child of an element switching away from
// the children content mode.
func (r *Reconciler) clearChildren(el *Element, res *Result) bool {
	if len(el.children) == 0 {
		return false
	}
	for _, child := range el.children {
		r.retire(child, res)
	}
	el.children = nil
	return true
}

// diffClasses reconciles the element's class set with the desired
// list. Removed classes are dropped, new ones applied; with force,
// present classes are re-applied for transition restarts.
func diffClasses(el *Element, want []string, force bool) bool {
	wanted := make(map[string]bool, len(want))
	for _, c := range want {
		wanted[c] = true
	}

	changed := false
	for _, c := range append([]string(nil), el.classes...) {
		if !wanted[c] {
			changed = el.removeClass(c) || changed
		}
	}
	for _, c := range want {
		changed = el.addClass(c, force) || changed
	}
	return changed
}

// diffMap patches current toward want key by key.
func diffMap(current map[string]string, want map[string]string) bool {
	changed := false
	for k := range current {
		if _, ok := want[k]; !ok {
			delete(current, k)
			changed = true
		}
	}
	for k, v := range want {
		if current[k] != v {
			current[k] = v
			changed = true
		}
	}
	return changed
}

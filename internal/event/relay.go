package event

import (
	"strings"
	"unicode"
)

// CaseTransform controls how a relayed event name is recased after the
// relay prefix is applied.
type CaseTransform int

const (
	// TransformNone relays the name unchanged.
	TransformNone CaseTransform = iota

	// TransformCapitalize upper-cases the first rune of the original
	// name, so a prefix reads naturally: "itemdrop" relayed with
	// prefix "grid" becomes "gridItemdrop".
	TransformCapitalize
)

// relay forwards events from one bus to a destination bus.
type relay struct {
	dest      *Bus
	prefix    string
	transform CaseTransform
	removed   bool
}

// rename applies the relay's renaming rule to an event name.
func (r *relay) rename(name string) string {
	if r.prefix == "" && r.transform == TransformNone {
		return name
	}
	renamed := name
	if r.transform == TransformCapitalize && renamed != "" {
		runes := []rune(renamed)
		runes[0] = unicode.ToUpper(runes[0])
		renamed = string(runes)
	}
	return r.prefix + renamed
}

// RelayOption configures a RelayTo call.
type RelayOption func(*relay)

// WithRelayPrefix prepends prefix to every relayed event name.
func WithRelayPrefix(prefix string) RelayOption {
	return func(r *relay) {
		r.prefix = prefix
	}
}

// WithRelayTransform sets the case transform applied before the prefix.
func WithRelayTransform(t CaseTransform) RelayOption {
	return func(r *relay) {
		r.transform = t
	}
}

// RelayTo forwards every event triggered on this bus to dest, after
// local listeners have run. A veto on the destination propagates back
// to the original Trigger caller. Relays to a closed destination are
// dropped automatically. The returned Detacher removes the relay.
func (b *Bus) RelayTo(dest *Bus, opts ...RelayOption) Detacher {
	r := &relay{dest: dest}
	for _, opt := range opts {
		opt(r)
	}
	// Normalize the prefix so dispatch stays case-insensitive end to
	// end: the destination lower-cases on Trigger anyway.
	r.prefix = strings.TrimSpace(r.prefix)

	b.mu.Lock()
	relays := make([]*relay, 0, len(b.relays)+1)
	relays = append(relays, b.relays...)
	relays = append(relays, r)
	b.relays = relays
	b.mu.Unlock()

	return func() { b.dropRelay(r) }
}

// dropRelay removes a relay target, copy-on-write like listeners.
func (b *Bus) dropRelay(r *relay) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.removed {
		return
	}
	r.removed = true
	out := make([]*relay, 0, len(b.relays))
	for _, existing := range b.relays {
		if existing != r {
			out = append(out, existing)
		}
	}
	b.relays = out
}

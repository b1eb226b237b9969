// Package eventhistory implements the shared age-one / refresh-counter
// hysteresis scheme used by every condition evaluator to decide whether a
// previously-seen alert condition has genuinely cleared or merely failed to
// be re-observed on one poll.
package eventhistory

// Resilience is the number of consecutive misses a record tolerates before
// it is dropped. A fresh or re-observed record starts at Resilience; each
// run that does not re-observe it decrements Refresh by one ("age-one");
// a record reaching 0 is deleted.
const Resilience = 4

// Record is one entry in a per-domain event history blob, keyed by a
// domain-specific stable identifier (see each evaluator package).
type Record struct {
	// Refresh counts down from Resilience. Restored to Resilience whenever
	// the condition is re-observed on a poll.
	Refresh int
	// Payload carries the domain-specific alert body (severity, message,
	// and whatever fields that domain's alert needs) so a re-observed
	// record can report whether its content changed.
	Payload map[string]string
}

// History is a per-identifier map of Record, the full state blob for one
// evaluator domain on one cluster.
type History map[string]Record

// Observe records that identifier was seen again this poll with the given
// payload. It returns the updated History and whether the payload changed
// relative to what the previous observation held -- "changed" is true only
// when the record already existed with a refresh other than Resilience-1
// and its stored payload differs from the new one.
func (h History) Observe(identifier string, payload map[string]string) (History, bool) {
	if h == nil {
		h = History{}
	}

	existing, existed := h[identifier]
	changed := false
	if existed && existing.Refresh != Resilience-1 && !equalPayload(existing.Payload, payload) {
		changed = true
	}

	h[identifier] = Record{Refresh: Resilience, Payload: payload}
	return h, changed
}

// AgeOne decrements Refresh on every record not observed this poll and
// deletes any record that reaches zero. ids is the set of identifiers
// observed this poll (and therefore already refreshed via Observe, and
// exempt from aging).
func (h History) AgeOne(observedIDs map[string]struct{}) History {
	if h == nil {
		return h
	}
	for id, rec := range h {
		if _, observed := observedIDs[id]; observed {
			continue
		}
		rec.Refresh--
		if rec.Refresh <= 0 {
			delete(h, id)
			continue
		}
		h[id] = rec
	}
	return h
}

// Exists reports whether identifier is currently tracked.
func (h History) Exists(identifier string) bool {
	_, ok := h[identifier]
	return ok
}

func equalPayload(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

package auditingest

import "regexp"

// Filter is the compound audit-record filter applied to every candidate
// message: NOT inputFilter AND inputMatch AND applicationMatch AND
// userMatch AND stateMatch. An unset InputFilter means "never exclude"; an
// unset positive-match field means "match everything" -- unlike excluding
// via a dummy non-matching string, an empty pattern here is handled as an
// explicit wildcard.
type Filter struct {
	InputFilter     string
	InputMatch      string
	ApplicationMatch string
	UserMatch       string
	StateMatch      string
}

// Record is the subset of one audit message's fields the filter inspects.
type Record struct {
	Input       string
	Application string
	User        string
	State       string
}

// Matches reports whether rec passes the compound filter.
func (f Filter) Matches(rec Record) bool {
	if f.InputFilter != "" && regexMatches(f.InputFilter, rec.Input) {
		return false
	}
	return matchesOrWildcard(f.InputMatch, rec.Input) &&
		matchesOrWildcard(f.ApplicationMatch, rec.Application) &&
		matchesOrWildcard(f.UserMatch, rec.User) &&
		matchesOrWildcard(f.StateMatch, rec.State)
}

func matchesOrWildcard(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	return regexMatches(pattern, value)
}

func regexMatches(pattern, value string) bool {
	matched, err := regexp.MatchString(pattern, value)
	return err == nil && matched
}

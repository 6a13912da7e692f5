package search

import "unicode/utf8"

// minQueryLength is the shortest query accepted without labels, in characters.
const minQueryLength = 2

// Request is one search call.
type Request struct {
	UserID string
	Query  string
	Labels []string
}

// normalize drops empty and repeated labels, keeping the first occurrence order.
func (r Request) normalize() Request {
	if len(r.Labels) == 0 {
		r.Labels = nil
		return r
	}
	seen := make(map[string]bool, len(r.Labels))
	labels := make([]string, 0, len(r.Labels))
	for _, l := range r.Labels {
		if l != "" && !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		labels = nil
	}
	r.Labels = labels
	return r
}

// Validate checks the request before any store is touched.
// The query is not trimmed; a query of spaces counts as supplied.
func (r Request) Validate() error {
	r = r.normalize()
	if r.UserID == "" {
		return &InvalidRequestError{Message: MsgUserRequired}
	}
	if r.Query == "" && len(r.Labels) == 0 {
		return &InvalidRequestError{Message: MsgCriteriaRequired}
	}
	if r.Query != "" && utf8.RuneCountInString(r.Query) < minQueryLength && len(r.Labels) == 0 {
		return &InvalidRequestError{Message: MsgQueryTooShort}
	}
	return nil
}

package search

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/propdeskhq/propdesk/pkg/phone"
)

// Item is anything searchable in the inbox: a thread, a contact, a message.
type Item struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Body    string
}

// Field weights. Scores are additive across matching fields for one term.
const (
	weightNameExact    = 100
	weightNamePrefix   = 50
	weightNameContains = 30
	weightEmail        = 25
	weightPhone        = 20
	weightSubject      = 15
	weightBody         = 10
)

// Score ranks an item against search terms. Semantics: AND across terms, OR
// across fields. The result is 0 if and only if at least one term matches no
// field; otherwise it is the sum of per-term per-field weights.
func Score(item Item, terms []string) int {
	total := 0
	name := strings.ToLower(strings.TrimSpace(item.Name))
	email := strings.ToLower(item.Email)
	subject := strings.ToLower(item.Subject)
	body := strings.ToLower(item.Body)
	phoneDigits := phone.Digits(item.Phone)

	for _, raw := range terms {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}

		termScore := 0
		if name != "" {
			switch {
			case name == term:
				termScore += weightNameExact
			case strings.HasPrefix(name, term):
				termScore += weightNamePrefix
			case strings.Contains(name, term):
				termScore += weightNameContains
			}
		}
		if email != "" && strings.Contains(email, term) {
			termScore += weightEmail
		}
		if termDigits := phone.Digits(term); termDigits != "" && phoneDigits != "" &&
			strings.Contains(phoneDigits, termDigits) {
			termScore += weightPhone
		}
		if subject != "" && strings.Contains(subject, term) {
			termScore += weightSubject
		}
		if body != "" && strings.Contains(body, term) {
			termScore += weightBody
		}

		if termScore == 0 {
			return 0
		}
		total += termScore
	}

	return total
}

var replyPrefixRe = regexp.MustCompile(`^(?i)(re:\s*)+`)

// FormatReplySubject collapses any stack of nested reply prefixes into a
// single "Re: ". "RE: Re: Quote" becomes "Re: Quote".
func FormatReplySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	stripped := strings.TrimSpace(replyPrefixRe.ReplaceAllString(trimmed, ""))
	if stripped == "" {
		return "Re:"
	}
	return "Re: " + stripped
}

var multiPartyRe = regexp.MustCompile(`(?i)^(.+?)\s+and\s+.+$`)

// NormalizeContactName produces a dedup key for a contact display name.
// "Jane and John Doe" collapses to "jane". This is a heuristic: multi-party
// threads with reordered names will not dedup to the same key.
func NormalizeContactName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if m := multiPartyRe.FindStringSubmatch(n); m != nil {
		n = strings.TrimSpace(m[1])
	}
	return n
}

// Thread is a conversation summary used by the merge step.
type Thread struct {
	ContactName  string
	ContactEmail string
	ContactPhone string
	LastMessage  string
	LastAt       time.Time
	UnreadCount  int
}

// MergeThreads collapses near-duplicate threads that share a contact key
// (normalized name, else lowercased email, else last-10 phone digits),
// keeping the thread with the newest message and summing unread counts.
// Returned threads are ordered newest first.
func MergeThreads(threads []Thread) []Thread {
	keyed := make(map[string]Thread)
	order := make([]string, 0, len(threads))

	for _, th := range threads {
		key := NormalizeContactName(th.ContactName)
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(th.ContactEmail))
		}
		if key == "" {
			key = phone.LastTen(th.ContactPhone)
		}
		if key == "" {
			// No identity at all; keep as its own entry.
			key = th.LastMessage + th.LastAt.String()
		}

		existing, ok := keyed[key]
		if !ok {
			keyed[key] = th
			order = append(order, key)
			continue
		}
		merged := existing
		if th.LastAt.After(existing.LastAt) {
			merged = th
		}
		merged.UnreadCount = existing.UnreadCount + th.UnreadCount
		keyed[key] = merged
	}

	out := make([]Thread, 0, len(keyed))
	for _, key := range order {
		out = append(out, keyed[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAt.After(out[j].LastAt)
	})
	return out
}

// RankItems sorts indexes of items by descending score, dropping zero scores.
// The sort is stable so equal scores keep their input order.
func RankItems(items []Item, terms []string) []int {
	type ranked struct {
		idx   int
		score int
	}
	rankedItems := make([]ranked, 0, len(items))
	for i, item := range items {
		if s := Score(item, terms); s > 0 {
			rankedItems = append(rankedItems, ranked{idx: i, score: s})
		}
	}
	sort.SliceStable(rankedItems, func(i, j int) bool {
		return rankedItems[i].score > rankedItems[j].score
	})
	out := make([]int, len(rankedItems))
	for i, r := range rankedItems {
		out[i] = r.idx
	}
	return out
}

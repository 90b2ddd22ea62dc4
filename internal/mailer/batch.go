package mailer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PlanBatches turns the due items into the run's send plan: one email
// per distinct recipient, chunked into batches of at most the
// campaign's send limit.
//
// Recipients are compared canonically (see CanonicalAddr) so visually
// identical addresses land in the same email. Group order is
// first-seen order and item order within a recipient is preserved, so
// the plan is deterministic for a given item order.
func PlanBatches(c Campaign, items []DueItem) [][]Email {
	groups := groupByRecipient(items)
	emails := make([]Email, 0, len(groups))
	for _, group := range groups {
		emails = append(emails, BuildEmail(c, group))
	}
	return chunkEmails(emails, c.sendLimit())
}

// CanonicalAddr normalizes an address for grouping: whitespace
// trimmed, Unicode NFC-normalized, domain part lowercased. The local
// part keeps its case (it is case-sensitive per RFC 5321); the
// first-seen spelling is what ends up on the wire.
func CanonicalAddr(addr string) string {
	s := norm.NFC.String(strings.TrimSpace(addr))
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[:i+1] + strings.ToLower(s[i+1:])
	}
	return s
}

// groupByRecipient partitions items by canonical recipient,
// preserving first-seen group order and item order within a group.
func groupByRecipient(items []DueItem) [][]DueItem {
	var order []string
	byAddr := make(map[string][]DueItem)

	for _, item := range items {
		key := CanonicalAddr(item.Recipient)
		if _, seen := byAddr[key]; !seen {
			order = append(order, key)
		}
		byAddr[key] = append(byAddr[key], item)
	}

	groups := make([][]DueItem, 0, len(order))
	for _, key := range order {
		groups = append(groups, byAddr[key])
	}
	return groups
}

// chunkEmails splits emails into fixed-size groups of at most limit.
// The last chunk may be short. A non-positive limit is a programming
// error upstream; it is clamped to 1 so no email is ever dropped.
func chunkEmails(emails []Email, limit int) [][]Email {
	if len(emails) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	batches := make([][]Email, 0, (len(emails)+limit-1)/limit)
	for len(emails) > limit {
		batches = append(batches, emails[:limit:limit])
		emails = emails[limit:]
	}
	return append(batches, emails)
}

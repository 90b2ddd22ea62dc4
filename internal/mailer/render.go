package mailer

import "strings"

// BuildEmail assembles one email for a recipient group: the body is
// one bulleted line per due item, in item order, and Covers is the
// group's item IDs. The To header uses the group's first-seen
// spelling of the address.
func BuildEmail(c Campaign, group []DueItem) Email {
	var body strings.Builder
	covers := make([]ItemID, 0, len(group))
	for _, item := range group {
		body.WriteString("- ")
		body.WriteString(item.Content)
		body.WriteString("\n")
		covers = append(covers, item.ID)
	}

	return Email{
		From:    c.From,
		To:      group[0].Recipient,
		Subject: c.Subject,
		Body:    body.String(),
		Covers:  covers,
	}
}

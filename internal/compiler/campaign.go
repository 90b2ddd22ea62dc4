// Package compiler turns CUE campaign specs into mailer.Campaign
// values.
//
// A campaign file declares the sender identity and rate limit:
//
//	campaign: {
//		name:       "welcome"
//		from:       "no-reply@example.test"
//		subject:    "Your pending notifications"
//		send_limit: 25
//		interval:   "1s"
//	}
//
// Only name and from are required; send_limit and interval fall back
// to the mailer defaults when omitted.
package compiler

import (
	"fmt"
	"net/mail"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/drip/internal/mailer"
)

// CompileCampaign parses a CUE value into a mailer.Campaign.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the campaign struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`campaign: { ... }`)
//	c, err := CompileCampaign(v.LookupPath(cue.ParsePath("campaign")))
func CompileCampaign(v cue.Value) (*mailer.Campaign, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &mailer.Campaign{}

	// name (required)
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	c.Name = name

	// from (required, must parse as an address)
	fromVal := v.LookupPath(cue.ParsePath("from"))
	if !fromVal.Exists() {
		return nil, &CompileError{
			Field:   "from",
			Message: "from is required",
			Pos:     v.Pos(),
		}
	}
	from, err := fromVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, &CompileError{
			Field:   "from",
			Message: fmt.Sprintf("not a valid address: %v", err),
			Pos:     fromVal.Pos(),
		}
	}
	c.From = from

	// subject (optional; campaign name is the fallback)
	subjectVal := v.LookupPath(cue.ParsePath("subject"))
	if subjectVal.Exists() {
		subject, err := subjectVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		c.Subject = subject
	} else {
		c.Subject = c.Name
	}

	// send_limit (optional, must be positive when present)
	limitVal := v.LookupPath(cue.ParsePath("send_limit"))
	if limitVal.Exists() {
		limit, err := limitVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if limit < 1 {
			return nil, &CompileError{
				Field:   "send_limit",
				Message: fmt.Sprintf("must be at least 1, got %d", limit),
				Pos:     limitVal.Pos(),
			}
		}
		c.SendLimit = int(limit)
	}

	// interval (optional, Go duration string, must be positive)
	intervalVal := v.LookupPath(cue.ParsePath("interval"))
	if intervalVal.Exists() {
		raw, err := intervalVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, &CompileError{
				Field:   "interval",
				Message: fmt.Sprintf("not a valid duration: %v", err),
				Pos:     intervalVal.Pos(),
			}
		}
		if d <= 0 {
			return nil, &CompileError{
				Field:   "interval",
				Message: fmt.Sprintf("must be positive, got %s", d),
				Pos:     intervalVal.Pos(),
			}
		}
		c.Interval = d
	}

	return c, nil
}

// LoadCampaign reads and compiles a campaign file.
func LoadCampaign(path string) (*mailer.Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaign file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	campaignVal := v.LookupPath(cue.ParsePath("campaign"))
	if !campaignVal.Exists() {
		return nil, &CompileError{
			Field:   "campaign",
			Message: "no campaign struct found",
			Pos:     v.Pos(),
		}
	}

	return CompileCampaign(campaignVal)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

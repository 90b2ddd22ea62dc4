package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes one end-to-end workflow run: the campaign
// settings, the notifications waiting in the queue, which
// collaborators should fail, and the expected report.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the
	// golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Campaign configures the sender. From is required.
	Campaign CampaignSpec `yaml:"campaign"`

	// Items are the notifications present when the run starts.
	Items []ItemSpec `yaml:"items"`

	// Failures injects collaborator errors.
	Failures FailureSpec `yaml:"failures,omitempty"`

	// Expect is checked against the final report.
	Expect ExpectSpec `yaml:"expect"`
}

// CampaignSpec mirrors the campaign file fields.
type CampaignSpec struct {
	From      string `yaml:"from"`
	Subject   string `yaml:"subject,omitempty"`
	SendLimit int    `yaml:"send_limit,omitempty"`

	// Interval is a Go duration string, e.g. "1s".
	Interval string `yaml:"interval,omitempty"`
}

// ItemSpec is one queued notification. IDs are assigned in file
// order, starting at 1.
type ItemSpec struct {
	Recipient string `yaml:"recipient"`
	Content   string `yaml:"content"`
}

// FailureSpec names the collaborator errors to inject.
type FailureSpec struct {
	// Load makes the source fail with this message.
	Load string `yaml:"load,omitempty"`

	// SendTo lists recipients whose sends fail.
	SendTo []string `yaml:"send_to,omitempty"`

	// Mark makes every completion mark fail with this message.
	Mark string `yaml:"mark,omitempty"`
}

// ExpectSpec is the scenario's claim about the final report.
type ExpectSpec struct {
	Recipients  int    `yaml:"recipients"`
	EmailsSent  int    `yaml:"emails_sent"`
	BatchesSent int    `yaml:"batches_sent"`
	Failed      bool   `yaml:"failed,omitempty"`
	ErrContains string `yaml:"err_contains,omitempty"`
}

// interval parses the campaign interval; empty defers to the
// workflow default.
func (c CampaignSpec) interval() (time.Duration, error) {
	if c.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("campaign interval: %w", err)
	}
	return d, nil
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently relaxing the
// scenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Campaign.From == "" {
		return fmt.Errorf("campaign.from is required")
	}
	if s.Campaign.SendLimit < 0 {
		return fmt.Errorf("campaign.send_limit must not be negative")
	}
	if _, err := s.Campaign.interval(); err != nil {
		return err
	}
	for i, item := range s.Items {
		if item.Recipient == "" {
			return fmt.Errorf("items[%d]: recipient is required", i)
		}
		if item.Content == "" {
			return fmt.Errorf("items[%d]: content is required", i)
		}
	}
	return nil
}

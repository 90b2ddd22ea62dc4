// Package harness runs end-to-end workflow scenarios described in
// YAML files.
//
// A scenario declares a campaign, the notifications waiting in the
// queue, optional injected failures, and the report the run is
// expected to produce. The harness executes the real update function
// and runtime against scripted collaborators and a virtual timer, so
// scenarios that span minutes of rate-limited sending finish
// instantly and produce a byte-identical transcript every run. Tests
// compare transcripts to golden files; the drip CLI checks the expect
// clause programmatically.
package harness

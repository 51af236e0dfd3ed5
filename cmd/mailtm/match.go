package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/mailtm/mailtm/pkg/rest/client"
	"github.com/mailtm/mailtm/pkg/rest/model"
)

type matchCmd struct {
	output  string
	outFunc func(ctx context.Context, messages *client.MessageController, intros []model.Message) error
	delete  bool
	// match criteria
	from    regexFlag
	subject regexFlag
	to      regexFlag
	maxAge  time.Duration
	unseen  bool
}

func (*matchCmd) Name() string {
	return "match"
}

func (*matchCmd) Synopsis() string {
	return "output messages matching criteria"
}

func (*matchCmd) Usage() string {
	return `match [flags]:
	output messages matching all specified criteria
	exit status will be 1 if no matches were found, otherwise 0
`
}

func (m *matchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.output, "output", "id", "output format: id, json, or mbox")
	f.BoolVar(&m.delete, "delete", false, "delete matched messages after output")
	f.Var(&m.from, "from", "From header matching regexp (address, not name)")
	f.Var(&m.subject, "subject", "Subject header matching regexp")
	f.Var(&m.to, "to", "To header matching regexp (must match 1+ to address)")
	f.DurationVar(
		&m.maxAge, "maxage", 0,
		"Matches must have been received in this time frame (ex: \"10s\", \"5m\")")
	f.BoolVar(&m.unseen, "unseen", false, "only match messages not yet seen")
}

func (m *matchCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// Select output function
	switch m.output {
	case "id":
		m.outFunc = outputID
	case "json":
		m.outFunc = outputIntrosJSON
	case "mbox":
		m.outFunc = outputMbox
	default:
		return usage("unknown output type: " + m.output)
	}
	messages, err := inbox(ctx)
	if err != nil {
		return fatal("Couldn't open inbox", err)
	}
	intros, err := messages.MessageIntros().Collect(ctx)
	if err != nil {
		return fatal("List REST call failed", err)
	}
	// Find matches
	matches := make([]model.Message, 0, len(intros))
	for _, intro := range intros {
		if m.match(intro) {
			matches = append(matches, intro)
		}
	}
	// Return error status if no matches
	if len(matches) == 0 {
		return subcommands.ExitFailure
	}
	if err := m.outFunc(ctx, messages, matches); err != nil {
		return fatal("Error", err)
	}
	if m.delete {
		for _, intro := range matches {
			if _, err := messages.DeleteMessage(ctx, intro.ID); err != nil {
				return fatal("Delete REST call failed", err)
			}
		}
	}
	return subcommands.ExitSuccess
}

// match returns true if the intro matches all defined criteria
func (m *matchCmd) match(intro model.Message) bool {
	if m.maxAge > 0 && time.Since(intro.CreatedAt) > m.maxAge {
		return false
	}
	if m.unseen && intro.Seen {
		return false
	}
	if m.subject.Defined() && !m.subject.MatchString(intro.Subject) {
		return false
	}
	if m.from.Defined() && !m.from.MatchString(intro.From.Address) {
		return false
	}
	if m.to.Defined() {
		match := false
		for _, to := range intro.To {
			if m.to.MatchString(to.Address) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func outputID(_ context.Context, _ *client.MessageController, intros []model.Message) error {
	for _, intro := range intros {
		fmt.Fprintln(stdout, intro.ID)
	}
	return nil
}

func outputIntrosJSON(_ context.Context, _ *client.MessageController, intros []model.Message) error {
	return outputJSON(intros)
}

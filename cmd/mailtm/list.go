package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/mailtm/mailtm/pkg/rest/model"
)

type listCmd struct {
	json bool
}

func (*listCmd) Name() string {
	return "list"
}

func (*listCmd) Synopsis() string {
	return "list messages in the inbox"
}

func (*listCmd) Usage() string {
	return `list [flags]:
	list every message in the inbox, in server order
`
}

func (l *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&l.json, "json", false, "output message intros as JSON")
}

func (l *listCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	messages, err := inbox(ctx)
	if err != nil {
		return fatal("Couldn't open inbox", err)
	}
	intros, err := messages.MessageIntros().Collect(ctx)
	if err != nil {
		return fatal("List REST call failed", err)
	}
	if l.json {
		if intros == nil {
			intros = []model.Message{}
		}
		if err := outputJSON(intros); err != nil {
			return fatal("Error", err)
		}
		return subcommands.ExitSuccess
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for _, m := range intros {
		seen := " "
		if !m.Seen {
			seen = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", seen, m.ID,
			m.CreatedAt.Local().Format(time.DateTime), m.From.Address, m.Subject)
	}
	if err := tw.Flush(); err != nil {
		return fatal("Error", err)
	}
	return subcommands.ExitSuccess
}

type countCmd struct{}

func (*countCmd) Name() string {
	return "count"
}

func (*countCmd) Synopsis() string {
	return "count messages in the inbox"
}

func (*countCmd) Usage() string {
	return `count:
	print the number of messages in the inbox
`
}

func (*countCmd) SetFlags(*flag.FlagSet) {}

func (*countCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	messages, err := inbox(ctx)
	if err != nil {
		return fatal("Couldn't open inbox", err)
	}
	count, err := messages.GetCount(ctx)
	if err != nil {
		return fatal("Count REST call failed", err)
	}
	fmt.Fprintln(stdout, count)
	return subcommands.ExitSuccess
}

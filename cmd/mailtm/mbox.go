package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/mailtm/mailtm/pkg/rest/client"
	"github.com/mailtm/mailtm/pkg/rest/model"
)

type mboxCmd struct {
	delete bool
}

func (*mboxCmd) Name() string {
	return "mbox"
}

func (*mboxCmd) Synopsis() string {
	return "output inbox in mbox format"
}

func (*mboxCmd) Usage() string {
	return `mbox [flags]:
	output every message in the inbox in mbox format
`
}

func (m *mboxCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&m.delete, "delete", false, "delete messages after output")
}

func (m *mboxCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	messages, err := inbox(ctx)
	if err != nil {
		return fatal("Couldn't open inbox", err)
	}
	intros, err := messages.MessageIntros().Collect(ctx)
	if err != nil {
		return fatal("List REST call failed", err)
	}
	if err := outputMbox(ctx, messages, intros); err != nil {
		return fatal("Error", err)
	}

	// Optionally, delete retrieved messages
	if m.delete {
		for _, intro := range intros {
			if _, err := messages.DeleteMessage(ctx, intro.ID); err != nil {
				return fatal("Delete REST call failed", err)
			}
		}
	}
	return subcommands.ExitSuccess
}

// outputMbox renders messages in mboxrd format.
// It is also used by match subcommand.
func outputMbox(ctx context.Context, messages *client.MessageController, intros []model.Message) error {
	for _, intro := range intros {
		source, err := messages.GetMessageSource(ctx, intro.ID)
		if err != nil {
			return fmt.Errorf("get source REST failed: %w", err)
		}
		if source == nil {
			// Deleted since it was listed.
			continue
		}
		fmt.Fprintf(stdout, "From %s %s\n", intro.From.Address,
			intro.CreatedAt.UTC().Format(time.ANSIC))
		scanner := bufio.NewScanner(bytes.NewReader(source))
		scanner.Buffer(nil, len(source)+1)
		for scanner.Scan() {
			line := bytes.TrimSuffix(scanner.Bytes(), []byte{'\r'})
			if isFromLine(line) {
				fmt.Fprint(stdout, ">")
			}
			fmt.Fprintf(stdout, "%s\n", line)
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

// isFromLine reports whether line, after any number of '>' quotes, begins with "From ".
func isFromLine(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(line, ">"), []byte("From "))
}

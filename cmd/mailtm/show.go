package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/jaytaylor/html2text"
	"github.com/jhillyerd/enmime/v2"
	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/mailtm/mailtm/pkg/sanitize"
	"github.com/mailtm/mailtm/pkg/stringutil"
)

type showCmd struct {
	html     bool
	images   bool
	markSeen bool
}

func (*showCmd) Name() string {
	return "show"
}

func (*showCmd) Synopsis() string {
	return "display a message"
}

func (*showCmd) Usage() string {
	return `show [flags] <id>:
	display the headers and body of a message
	exit status will be 1 if the message does not exist
`
}

func (s *showCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&s.html, "html", false, "output the sanitized HTML body instead of text")
	f.BoolVar(&s.images, "images", false, "keep remote images in HTML output")
	f.BoolVar(&s.markSeen, "markseen", false, "mark the message as seen")
}

func (s *showCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id := f.Arg(0)
	if id == "" {
		return usage("message id required")
	}
	messages, err := inbox(ctx)
	if err != nil {
		return fatal("Couldn't open inbox", err)
	}
	m, err := messages.GetMessage(ctx, id)
	if err != nil {
		return fatal("Message REST call failed", err)
	}
	if m == nil {
		return fatal(id, errUnavailable)
	}
	fmt.Fprintf(stdout, "From:    %v\n", m.From)
	fmt.Fprintf(stdout, "To:      %s\n", stringutil.JoinContacts(m.To))
	if len(m.CC) > 0 {
		fmt.Fprintf(stdout, "Cc:      %s\n", stringutil.JoinContacts(m.CC))
	}
	fmt.Fprintf(stdout, "Subject: %s\n", m.Subject)
	fmt.Fprintf(stdout, "Date:    %s\n", m.CreatedAt.Local().Format(time.RFC1123Z))
	for _, a := range m.Attachments {
		fmt.Fprintf(stdout, "Attach:  %s (%s, %d bytes)\n", a.Filename, a.ContentType, a.Size)
	}
	fmt.Fprintln(stdout)

	body, err := s.body(m)
	if err != nil {
		return fatal("Couldn't render body", err)
	}
	fmt.Fprintln(stdout, body)

	if s.markSeen {
		if _, err := messages.MarkSeen(ctx, id); err != nil {
			return fatal("Mark seen REST call failed", err)
		}
	}
	return subcommands.ExitSuccess
}

// body renders the body of m as requested. Messages without a text part are converted from
// their HTML.
func (s *showCmd) body(m *model.Message) (string, error) {
	var opts []sanitize.Option
	if !s.images {
		opts = append(opts, sanitize.WithRemoteImagesBlocked())
	}
	if s.html {
		return sanitize.New(opts...).Fragments(m.HTML)
	}
	if strings.TrimSpace(m.Text) != "" || len(m.HTML) == 0 {
		return strings.TrimRight(m.Text, "\r\n"), nil
	}
	return html2text.FromString(strings.Join(m.HTML, "\n"), html2text.Options{})
}

type sourceCmd struct {
	headers bool
}

func (*sourceCmd) Name() string {
	return "source"
}

func (*sourceCmd) Synopsis() string {
	return "output the raw source of a message"
}

func (*sourceCmd) Usage() string {
	return `source [flags] <id>:
	output the RFC 822 source of a message
`
}

func (s *sourceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&s.headers, "headers", false, "output only the decoded headers")
}

func (s *sourceCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id := f.Arg(0)
	if id == "" {
		return usage("message id required")
	}
	messages, err := inbox(ctx)
	if err != nil {
		return fatal("Couldn't open inbox", err)
	}
	source, err := messages.GetMessageSource(ctx, id)
	if err != nil {
		return fatal("Source REST call failed", err)
	}
	if source == nil {
		return fatal(id, errUnavailable)
	}
	if !s.headers {
		if _, err := stdout.Write(source); err != nil {
			return fatal("Error", err)
		}
		return subcommands.ExitSuccess
	}
	env, err := enmime.ReadEnvelope(bytes.NewReader(source))
	if err != nil {
		return fatal("Couldn't parse message", err)
	}
	keys := env.GetHeaderKeys()
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range env.GetHeaderValues(k) {
			fmt.Fprintf(stdout, "%s: %s\n", k, v)
		}
	}
	return subcommands.ExitSuccess
}

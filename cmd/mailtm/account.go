package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type domainsCmd struct {
	all bool
}

func (*domainsCmd) Name() string {
	return "domains"
}

func (*domainsCmd) Synopsis() string {
	return "list mail domains"
}

func (*domainsCmd) Usage() string {
	return `domains [flags]:
	list the domains accounts can be created under
`
}

func (d *domainsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&d.all, "all", false, "include inactive domains")
}

func (d *domainsCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c, err := newClient()
	if err != nil {
		return fatal("Couldn't build client", err)
	}
	it := c.Domains()
	for it.Next(ctx) {
		domain := it.Item()
		switch {
		case !d.all && !domain.IsActive:
			continue
		case d.all:
			fmt.Fprintf(stdout, "%s active=%v private=%v\n",
				domain.Domain, domain.IsActive, domain.IsPrivate)
		default:
			fmt.Fprintln(stdout, domain.Domain)
		}
	}
	if err := it.Err(); err != nil {
		return fatal("Domains REST call failed", err)
	}
	return subcommands.ExitSuccess
}

type newCmd struct {
	user     string
	domain   string
	password string
}

func (*newCmd) Name() string {
	return "new"
}

func (*newCmd) Synopsis() string {
	return "create an account"
}

func (*newCmd) Usage() string {
	return `new [flags]:
	create an account and print its credentials
`
}

func (n *newCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&n.user, "user", "", "local part of the address, random if empty")
	f.StringVar(&n.domain, "domain", "", "domain of the address, first active domain if empty")
	f.StringVar(&n.password, "password", "", "account password, random if empty")
}

func (n *newCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c, err := newClient()
	if err != nil {
		return fatal("Couldn't build client", err)
	}
	password := n.password
	if password == "" {
		password = uuid.NewString()
	}
	acct, err := c.NewAccount(ctx, n.user, n.domain, password)
	if err != nil {
		return fatal("Account creation failed", err)
	}
	if err := acct.Login(ctx); err != nil {
		return fatal("Login failed", err)
	}
	fmt.Fprintf(stdout, "MAILTM_ACCOUNT_ADDRESS=%s\n", acct.Address)
	fmt.Fprintf(stdout, "MAILTM_ACCOUNT_PASSWORD=%s\n", acct.Password)
	fmt.Fprintf(stdout, "MAILTM_ACCOUNT_TOKEN=%s\n", acct.Token)
	return subcommands.ExitSuccess
}

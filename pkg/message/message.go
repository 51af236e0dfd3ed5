// Package message converts raw RFC 5322 message sources into service message records.
package message

import (
	"bytes"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhillyerd/enmime/v2"
	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/rs/zerolog/log"
)

// IntroLength is the number of characters of body text kept in a message intro.
const IntroLength = 120

// Delivery is a message source addressed to a single account.
type Delivery struct {
	ID        string
	AccountID string // IRI of the owning account, ex: /accounts/60bf...
	Recipient string
	Date      time.Time
	Retention time.Duration
	Source    []byte
}

// Build parses the source of the delivery into a full message.
func (d *Delivery) Build() (*model.Message, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(d.Source))
	if err != nil {
		return nil, fmt.Errorf("parse message %s: %w", d.ID, err)
	}
	for _, perr := range env.Errors {
		log.Debug().Str("module", "message").Str("id", d.ID).Str("error", perr.Error()).
			Msg("MIME parse problem")
	}

	from := model.Contact{}
	if addrs := addressList(env, "From"); len(addrs) > 0 {
		from = addrs[0]
	}
	to := addressList(env, "To")
	if len(to) == 0 {
		to = []model.Contact{{Address: d.Recipient}}
	}
	msgid := env.GetHeader("Message-ID")
	if msgid == "" {
		msgid = fmt.Sprintf("<%s@%s>", d.ID, domainOf(d.Recipient))
	}
	htmlParts := []string{}
	if env.HTML != "" {
		htmlParts = append(htmlParts, env.HTML)
	}

	m := &model.Message{
		ID:            d.ID,
		AccountID:     d.AccountID,
		MsgID:         msgid,
		From:          from,
		To:            to,
		CC:            addressList(env, "Cc"),
		BCC:           addressList(env, "Bcc"),
		Subject:       env.GetHeader("Subject"),
		Intro:         Intro(env.Text),
		Verifications: model.Verifications{},
		Retention:     d.Retention > 0,
		RetentionDate: d.Date.Add(d.Retention),
		Text:          env.Text,
		HTML:          htmlParts,
		Attachments:   []model.Attachment{},
		Size:          int64(len(d.Source)),
		DownloadURL:   fmt.Sprintf("/messages/%s/download", d.ID),
		CreatedAt:     d.Date,
		UpdatedAt:     d.Date,
		IsFullMessage: true,
	}
	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for i, p := range parts {
		aid := fmt.Sprintf("ATTACH%06d", i+1)
		encoding := p.Header.Get("Content-Transfer-Encoding")
		if encoding == "" {
			encoding = "7bit"
		}
		m.Attachments = append(m.Attachments, model.Attachment{
			ID:               aid,
			Filename:         p.FileName,
			ContentType:      p.ContentType,
			Disposition:      strings.EqualFold(p.Disposition, "attachment"),
			TransferEncoding: encoding,
			Related:          i >= len(env.Attachments),
			Size:             int64(len(p.Content)),
			DownloadURL:      fmt.Sprintf("/messages/%s/attachment/%s", d.ID, aid),
		})
	}
	m.HasAttachments = len(m.Attachments) > 0
	return m, nil
}

// Intro returns the leading text of a message body with whitespace collapsed, truncated to
// IntroLength characters.
func Intro(text string) string {
	intro := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(intro) <= IntroLength {
		return intro
	}
	runes := []rune(intro)
	return string(runes[:IntroLength]) + "…"
}

func addressList(env *enmime.Envelope, key string) []model.Contact {
	addrs, err := env.AddressList(key)
	if err != nil {
		if !errors.Is(err, mail.ErrHeaderNotPresent) {
			log.Debug().Str("module", "message").Str("header", key).Err(err).
				Msg("Unparseable address list")
		}
		return []model.Contact{}
	}
	contacts := make([]model.Contact, len(addrs))
	for i, a := range addrs {
		contacts[i] = model.Contact{Address: a.Address, Name: a.Name}
	}
	return contacts
}

func domainOf(address string) string {
	if at := strings.LastIndexByte(address, '@'); at >= 0 {
		return address[at+1:]
	}
	return "localhost"
}

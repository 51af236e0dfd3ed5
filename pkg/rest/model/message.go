package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	contactKeys = []string{"address", "name"}

	attachmentKeys = []string{"id", "filename", "contentType", "disposition",
		"transferEncoding", "related", "size", "downloadUrl"}

	// introKeys are present on every message, whether listed or fetched by id.
	introKeys = []string{"id", "msgid", "from", "to", "subject", "intro", "seen",
		"isDeleted", "hasAttachments", "size", "downloadUrl", "createdAt", "updatedAt",
		"accountId"}

	// fullKeys are only present when a message is fetched by id.
	fullKeys = []string{"cc", "bcc", "flagged", "verifications", "retention",
		"retentionDate", "text", "html", "attachments"}

	messageKeys = append(append([]string{}, introKeys...), fullKeys...)
)

// Contact is an email participant.
type Contact struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// UnmarshalJSON requires both address and name.
func (c *Contact) UnmarshalJSON(data []byte) error {
	if _, err := requireFields("contact", data, contactKeys...); err != nil {
		return err
	}
	type contact Contact
	return decodeInto("contact", data, (*contact)(c))
}

// String formats the contact as an RFC 5322 style address.
func (c Contact) String() string {
	if c.Name == "" {
		return c.Address
	}
	return fmt.Sprintf("%s <%s>", c.Name, c.Address)
}

// Attachment describes a file attached to a full message.
type Attachment struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	ContentType      string `json:"contentType"`
	Disposition      bool   `json:"disposition"`
	TransferEncoding string `json:"transferEncoding"`
	Related          bool   `json:"related"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"downloadUrl"`
}

// UnmarshalJSON validates the attachment. Disposition may arrive as a bool or as the
// Content-Disposition type, where "attachment" is true and anything else is false.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	if _, err := requireFields("attachment", data, attachmentKeys...); err != nil {
		return err
	}
	type attachment Attachment
	wire := struct {
		*attachment
		Disposition json.RawMessage `json:"disposition"`
	}{attachment: (*attachment)(a)}
	if err := decodeInto("attachment", data, &wire); err != nil {
		return err
	}
	disposition, err := parseDisposition(wire.Disposition)
	if err != nil {
		return &ValidationError{Model: "attachment", Err: err}
	}
	a.Disposition = disposition
	if a.Size < 0 {
		return &ValidationError{Model: "attachment", Err: fmt.Errorf("size %d is negative", a.Size)}
	}
	return nil
}

func parseDisposition(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("disposition %s is neither bool nor string", raw)
	}
	return strings.EqualFold(s, "attachment"), nil
}

// Verifications holds the sender verification results of a full message. The service sends
// an empty list when there are none; list elements are keyed by their index.
type Verifications map[string]interface{}

// UnmarshalJSON accepts either a JSON object or a JSON array.
func (v *Verifications) UnmarshalJSON(data []byte) error {
	var list []interface{}
	if err := json.Unmarshal(data, &list); err == nil {
		m := make(Verifications, len(list))
		for i, e := range list {
			m[strconv.Itoa(i)] = e
		}
		*v = m
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*v = m
	return nil
}

// Message is a mail message. Messages listed by the collection endpoint carry only the intro
// fields; messages fetched by id also carry the full fields and have IsFullMessage set.
type Message struct {
	ID             string    `json:"id"`
	MsgID          string    `json:"msgid"`
	From           Contact   `json:"from"`
	To             []Contact `json:"to"`
	Subject        string    `json:"subject"`
	Intro          string    `json:"intro"`
	Seen           bool      `json:"seen"`
	IsDeleted      bool      `json:"isDeleted"`
	HasAttachments bool      `json:"hasAttachments"`
	Size           int64     `json:"size"`
	DownloadURL    string    `json:"downloadUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	AccountID      string    `json:"accountId"`

	// Full message fields, zero unless IsFullMessage.
	IsFullMessage bool          `json:"-"`
	CC            []Contact     `json:"cc"`
	BCC           []Contact     `json:"bcc"`
	Flagged       bool          `json:"flagged"`
	Verifications Verifications `json:"verifications"`
	Retention     bool          `json:"retention"`
	RetentionDate time.Time     `json:"retentionDate"`
	Text          string        `json:"text"`
	HTML          []string      `json:"html"`
	Attachments   []Attachment  `json:"attachments"`
	SourceURL     string        `json:"sourceUrl"`
}

// messageIntroJSON is the wire shape of a listed message.
type messageIntroJSON struct {
	ID             string    `json:"id"`
	MsgID          string    `json:"msgid"`
	From           Contact   `json:"from"`
	To             []Contact `json:"to"`
	Subject        string    `json:"subject"`
	Intro          string    `json:"intro"`
	Seen           bool      `json:"seen"`
	IsDeleted      bool      `json:"isDeleted"`
	HasAttachments bool      `json:"hasAttachments"`
	Size           int64     `json:"size"`
	DownloadURL    string    `json:"downloadUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	AccountID      string    `json:"accountId"`
}

// messageFullJSON is the wire shape of a message fetched by id.
type messageFullJSON struct {
	messageIntroJSON
	CC            []Contact     `json:"cc"`
	BCC           []Contact     `json:"bcc"`
	Flagged       bool          `json:"flagged"`
	Verifications Verifications `json:"verifications"`
	Retention     bool          `json:"retention"`
	RetentionDate time.Time     `json:"retentionDate"`
	Text          string        `json:"text"`
	HTML          []string      `json:"html"`
	Attachments   []Attachment  `json:"attachments"`
	SourceURL     string        `json:"sourceUrl,omitempty"`
}

func (w *messageFullJSON) message(full bool) Message {
	m := Message{
		ID:             w.ID,
		MsgID:          w.MsgID,
		From:           w.From,
		To:             w.To,
		Subject:        w.Subject,
		Intro:          w.Intro,
		Seen:           w.Seen,
		IsDeleted:      w.IsDeleted,
		HasAttachments: w.HasAttachments,
		Size:           w.Size,
		DownloadURL:    w.DownloadURL,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		AccountID:      w.AccountID,
	}
	if full {
		m.IsFullMessage = true
		m.CC = w.CC
		m.BCC = w.BCC
		m.Flagged = w.Flagged
		m.Verifications = w.Verifications
		m.Retention = w.Retention
		m.RetentionDate = w.RetentionDate
		m.Text = w.Text
		m.HTML = w.HTML
		m.Attachments = w.Attachments
		m.SourceURL = w.SourceURL
	}
	return m
}

// wire converts m to its wire shape. Nil lists are written as empty lists since null counts
// as a missing key when decoding.
func (m *Message) wire() *messageFullJSON {
	verifications := m.Verifications
	if verifications == nil {
		verifications = Verifications{}
	}
	return &messageFullJSON{
		messageIntroJSON: messageIntroJSON{
			ID:             m.ID,
			MsgID:          m.MsgID,
			From:           m.From,
			To:             nonNil(m.To),
			Subject:        m.Subject,
			Intro:          m.Intro,
			Seen:           m.Seen,
			IsDeleted:      m.IsDeleted,
			HasAttachments: m.HasAttachments,
			Size:           m.Size,
			DownloadURL:    m.DownloadURL,
			CreatedAt:      m.CreatedAt,
			UpdatedAt:      m.UpdatedAt,
			AccountID:      m.AccountID,
		},
		CC:            nonNil(m.CC),
		BCC:           nonNil(m.BCC),
		Flagged:       m.Flagged,
		Verifications: verifications,
		Retention:     m.Retention,
		RetentionDate: m.RetentionDate,
		Text:          m.Text,
		HTML:          nonNil(m.HTML),
		Attachments:   nonNil(m.Attachments),
		SourceURL:     m.SourceURL,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// UnmarshalJSON enforces the intro contract. When every full message key is present as well,
// the full fields are loaded and IsFullMessage is set.
func (m *Message) UnmarshalJSON(data []byte) error {
	obj, err := requireFields("message", data, introKeys...)
	if err != nil {
		return err
	}
	full := true
	for _, k := range fullKeys {
		if !present(obj, k) {
			full = false
			break
		}
	}
	var w messageFullJSON
	if err := decodeInto("message", data, &w); err != nil {
		return err
	}
	*m = w.message(full)
	return nil
}

// MarshalJSON writes the intro keys, plus the full keys when IsFullMessage is set.
func (m Message) MarshalJSON() ([]byte, error) {
	w := m.wire()
	if m.IsFullMessage {
		return json.Marshal(w)
	}
	return json.Marshal(&w.messageIntroJSON)
}

// IntroView returns a copy of m holding only the fields of a listed message.
func (m *Message) IntroView() Message {
	return m.wire().message(false)
}

// DecodeMessage decodes a full message, as returned when fetching a single message by id.
func DecodeMessage(data []byte) (*Message, error) {
	if _, err := requireFields("message", data, messageKeys...); err != nil {
		return nil, err
	}
	m := &Message{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

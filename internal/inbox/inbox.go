// Package inbox pulls job notifications from an IMAP mailbox. It is the
// pull-based substitute for the inbound webhook.
package inbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Notification is one job posting e-mail in webhook payload form.
type Notification struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender"`
}

// Config describes the mailbox and the message filters.
type Config struct {
	// Host including port, e.g. imap.gmail.com:993.
	Host     string `mapstructure:"host"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"-"`
	// FromFilter and SubjectFilter narrow the search; both optional.
	FromFilter    string `mapstructure:"from"`
	SubjectFilter string `mapstructure:"subject"`
}

// Client polls a single mailbox over an encrypted session.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// FetchOffers logs in, searches the inbox for messages matching the
// configured filters and returns them as notification payloads.
func (c *Client) FetchOffers() ([]Notification, error) {
	conn, err := imapclient.DialTLS(c.cfg.Host, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", c.cfg.Host, err)
	}
	defer conn.Logout()

	if err := conn.Login(c.cfg.Address, c.cfg.Password); err != nil {
		return nil, fmt.Errorf("logging in as %s: %w", c.cfg.Address, err)
	}

	if _, err := conn.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("selecting inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	if c.cfg.FromFilter != "" {
		criteria.Header.Add("From", c.cfg.FromFilter)
	}
	if c.cfg.SubjectFilter != "" {
		criteria.Header.Add("Subject", c.cfg.SubjectFilter)
	}

	ids, err := conn.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("searching inbox: %w", err)
	}

	c.logger.Info("inbox searched",
		zap.String("from", c.cfg.FromFilter),
		zap.String("subject", c.cfg.SubjectFilter),
		zap.Int("matches", len(ids)),
	)

	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- conn.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var offers []Notification
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}

		offer, err := decodeMessage(body)
		if err != nil {
			c.logger.Warn("skipping undecodable message", zap.Error(err))
			continue
		}
		offers = append(offers, offer)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	return offers, nil
}

// decodeMessage extracts the decoded subject, sender address and the first
// plain-text part of a raw message.
func decodeMessage(raw io.Reader) (Notification, error) {
	reader, err := mail.CreateReader(raw)
	if err != nil {
		return Notification{}, fmt.Errorf("parsing message: %w", err)
	}

	var offer Notification
	offer.Subject, _ = reader.Header.Subject()

	if addrs, err := reader.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		offer.Sender = addrs[0].Address
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return offer, fmt.Errorf("reading part: %w", err)
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := header.ContentType()
		if err != nil || !strings.EqualFold(contentType, "text/plain") {
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			return offer, fmt.Errorf("reading body: %w", err)
		}
		offer.Body = string(data)
		break
	}

	return offer, nil
}

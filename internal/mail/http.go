package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/salimtrading/staffportal/config"
)

// HTTPTransport posts messages to a transactional-mail HTTP API. Hosts
// that block outbound SMTP use this instead of SMTPTransport.
type HTTPTransport struct {
	client *resty.Client
	url    string
}

type httpPayload struct {
	ID      string   `json:"id"`
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func NewHTTPTransport(cfg config.MailConfig) (*HTTPTransport, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, errors.New("mail api url is required")
	}

	client := resty.New().
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &HTTPTransport{client: client, url: cfg.APIURL}, nil
}

func (t *HTTPTransport) Send(ctx context.Context, msg Message) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(httpPayload{
			ID:      msg.ID,
			From:    msg.From,
			To:      msg.To,
			Subject: msg.Subject,
			Text:    msg.Body,
		}).
		Post(t.url)
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return transportError(fmt.Errorf("mail api returned %s", resp.Status()))
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhillyerd/enmime"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/config"
)

// GmailSender delivers purchase-order spreadsheets to suppliers through the
// gmail API using an offline refresh token.
type GmailSender struct {
	service *gmail.Service
	from    string
}

func NewGmailSender(cfg config.Config) (*GmailSender, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}
	if err := cfg.Require("NOTIFY_FROM", cfg.NotifyFrom); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailSendScope},
	}

	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(context.Background(), option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &GmailSender{service: svc, from: cfg.NotifyFrom}, nil
}

// SendPurchaseOrder mails the exported xlsx at attachmentPath to the
// supplier.
func (s *GmailSender) SendPurchaseOrder(to, poNumber, attachmentPath string) error {
	content, err := os.ReadFile(attachmentPath)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}

	builder := enmime.Builder().
		From("", s.from).
		To("", to).
		Subject(fmt.Sprintf("Purchase Order %s", poNumber)).
		Text([]byte(fmt.Sprintf("Please find attached purchase order %s.\n", poNumber))).
		AddAttachment(content,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			filepath.Base(attachmentPath))

	part, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	msg := &gmail.Message{Raw: base64.RawURLEncoding.EncodeToString(buf.Bytes())}
	if _, err := s.service.Users.Messages.Send("me", msg).Do(); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"partywork/client/es"
	"partywork/config"
	"partywork/event"
	"partywork/identitysync"
	"partywork/notify"
	"partywork/search"
	"partywork/servehttp"
	"partywork/session"

	"github.com/sirupsen/logrus"
)

// Serve runs the api and the background workers until ctx is done.
func Serve(ctx context.Context, c *config.AppConfig) error {
	rt, err := Bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	tokenVerifier, err := session.NewTokenVerifier(c.Auth.JWTPublicKey, c.Auth.JWTSecret, c.Auth.JWTIssuer)
	if err != nil {
		return err
	}
	var webhookVerifier identitysync.Verifier
	if c.Identity.WebhookSecret != "" {
		if webhookVerifier, err = identitysync.NewVerifier(c.Identity.WebhookSecret); err != nil {
			return err
		}
	}

	if es.Enabled() {
		event.RegisterHandler(search.TaskIndexEventHandler)
	}
	if dispatcher := notify.Setup(c); dispatcher != nil {
		defer dispatcher.Stop()
	}

	crontab, err := NewScheduler(ctx, c.Schedule)
	if err != nil {
		return err
	}
	crontab.Start()
	defer func() { <-crontab.Stop().Done() }()

	engine := servehttp.BuildEngine(tokenVerifier, webhookVerifier)
	return servehttp.StartHTTPServer(ctx, c.HTTP.Addr, servehttp.WithCORS(engine, c.HTTP.AllowedOrigins))
}

func Migrate(ctx context.Context, c *config.AppConfig) error {
	rt, err := Bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.Migrate(ctx)
}

// Reindex rebuilds the task index in the foreground.
func Reindex(ctx context.Context, c *config.AppConfig) error {
	rt, err := Bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	if !es.Enabled() {
		return errors.New("elasticsearch url is not configured")
	}
	return search.IndicesFullSync(ctx)
}

func DirectorySync(ctx context.Context, c *config.AppConfig) error {
	rt, err := Bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	synced, err := identitysync.DirectorySync(ctx, c.Identity)
	if err != nil {
		return err
	}
	logrus.Infof("%d users synchronized from directory", synced)
	return nil
}

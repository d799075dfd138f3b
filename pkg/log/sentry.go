package log

import (
	"errors"

	"github.com/getsentry/sentry-go"
)

var ErrClientInit = errors.New("failed to initialize sentry client")

// NewSentryClient binds a sentry client to the current hub. Development builds report under the
// development environment so they are kept apart from release builds.
func NewSentryClient(dsn string, sampleRate float64, buildVersion string) (*sentry.Client, error) {
	env := "production"
	if buildVersion == "" || buildVersion == "dev" {
		env = "development"
	}

	hub := sentry.CurrentHub()
	client, errClient := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		EnableTracing:    false,
		TracesSampleRate: sampleRate,
		SendDefaultPII:   false,
		SampleRate:       1.0,
		Release:          buildVersion,
		Environment:      env,
	})

	if errClient != nil {
		return nil, errors.Join(errClient, ErrClientInit)
	}

	hub.BindClient(client)

	return client, nil
}

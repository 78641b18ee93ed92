package config

import (
	"net"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-nodegraph/cron"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	logLevels  = []any{"trace", "debug", "info", "warn", "error", "fatal"}
	logFormats = []any{"console", "json"}
)

// Validate checks the whole configuration and returns a validation error
// listing every offending field.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Engine),
		validation.Field(&c.Catalog),
		validation.Field(&c.Export),
		validation.Field(&c.Refresh),
		validation.Field(&c.Log),
	)
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryValidation, "invalid configuration").
		WithTextCode(ErrCodeInvalidConfig)
}

func (e EngineConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Dir, validation.When(e.Launch, validation.Required)),
		validation.Field(&e.Executable, validation.When(e.Launch, validation.Required)),
		validation.Field(&e.Address, validation.Required, validation.By(hostPort)),
	)
}

func (c CatalogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	)
}

func (e ExportConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Dir, validation.Required),
		validation.Field(&e.Retries, validation.Min(0), validation.Max(20)),
		validation.Field(&e.Timeout, validation.By(duration)),
		validation.Field(&e.Backoff, validation.By(duration)),
	)
}

func (r RefreshConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Schedule, validation.By(cronExpression)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In(logLevels...)),
		validation.Field(&l.Format, validation.In(logFormats...)),
	)
}

func hostPort(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(s); err != nil {
		return validation.NewError("validation_host_port", "must be a host:port address")
	}
	return nil
}

func duration(value any) error {
	s, _ := value.(string)
	d, err := parseDuration(s)
	if err != nil || d < 0 {
		return validation.NewError("validation_duration", "must be a duration such as 5s or 200ms")
	}
	return nil
}

func cronExpression(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if err := cron.ValidateExpression(s, cron.StandardParser); err != nil {
		return validation.NewError("validation_cron", "must be a cron expression or descriptor")
	}
	return nil
}

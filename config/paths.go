package config

import (
	"github.com/goliatone/go-errors"
	"github.com/mitchellh/go-homedir"
)

// Expand resolves a leading ~ in every path setting.
func (c *Config) Expand() error {
	for _, p := range []*string{&c.Engine.Dir, &c.Catalog.Path, &c.Export.Dir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "cannot expand path").
				WithTextCode(ErrCodeInvalidConfig).
				WithMetadata(map[string]any{"path": *p})
		}
		*p = expanded
	}
	return nil
}

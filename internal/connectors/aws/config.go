package aws

import (
	"errors"
	"strings"
)

// Config holds the configuration for the AWS discovery connector.
type Config struct {
	Region string `json:"region"`
	Name   string `json:"name"`
}

// Normalized returns a copy of the config with trimmed whitespace and the
// source name defaulted.
func (c Config) Normalized() Config {
	out := c
	out.Region = strings.TrimSpace(out.Region)
	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		out.Name = "aws"
	}
	return out
}

// Validate returns an error if the config is invalid.
func (c Config) Validate() error {
	c = c.Normalized()
	if c.Region == "" {
		return errors.New("aws discovery region is required")
	}
	return nil
}

package gateway

import (
	"errors"
	"time"
)

// Config holds connection settings for one gateway.
type Config struct {
	// Name is the registry key; defaults to Type.
	Name string `mapstructure:"name"`
	// Type is one of "postal", "sendgrid", "mailgun", "ses", "stdout", "file".
	Type string `mapstructure:"type"`
	// APIKey authenticates against the gateway API.
	APIKey string `mapstructure:"api_key"`
	// AccessKeyID and SecretAccessKey are static AWS credentials (SES
	// only). When empty the default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// Endpoint overrides the API base URL. For Postal it is required; for
	// the file gateway it is the output directory.
	Endpoint string `mapstructure:"endpoint"`
	// Timeout bounds HTTP calls issued by the gateway client itself.
	Timeout time.Duration `mapstructure:"timeout"`
	// Region is the AWS region (SES only).
	Region string `mapstructure:"region"`
	// Domain is the Mailgun sending domain.
	Domain string `mapstructure:"domain"`
}

const defaultTimeout = 30 * time.Second

// Validate checks that required fields are set for the gateway type and
// fills defaults.
func (c *Config) Validate() error {
	if c.Type == "" {
		return errors.New("gateway type is required")
	}
	if c.Name == "" {
		c.Name = c.Type
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	switch c.Type {
	case "postal":
		if c.Endpoint == "" {
			return errors.New("postal: endpoint is required")
		}
		if c.APIKey == "" {
			return errors.New("postal: api_key is required")
		}
	case "sendgrid":
		if c.APIKey == "" {
			return errors.New("sendgrid: api_key is required")
		}
	case "mailgun":
		if c.APIKey == "" {
			return errors.New("mailgun: api_key is required")
		}
		if c.Domain == "" {
			return errors.New("mailgun: domain is required")
		}
	case "ses":
		if c.Region == "" {
			return errors.New("ses: region is required")
		}
		if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
			return errors.New("ses: access_key_id and secret_access_key must be set together")
		}
	case "stdout", "file":
	default:
		return errors.New("unknown gateway type: " + c.Type)
	}
	return nil
}

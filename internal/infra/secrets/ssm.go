package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-ecommerce-bot/internal/config"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// RefPrefix marks a config value that must be read from SSM Parameter Store.
const RefPrefix = "ssm:"

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter fetches one decrypted parameter by name.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("secrets: ssm api must not be nil")
	}
	return &Client{api: api}, nil
}

// NewFromEnv builds a client from the default AWS credential chain.
func NewFromEnv(ctx context.Context) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: load aws config: %w", err)
	}
	return New(ssm.NewFromConfig(awsCfg))
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: parameter name is required")
	}
	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("secrets: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("secrets: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}

// secretFields lists the config values that may hold an ssm: reference.
func secretFields(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"bot.token":                 &cfg.Bot.Token,
		"database.url":              &cfg.Database.URL,
		"redis.password":            &cfg.Redis.Password,
		"payment.stripe.secret_key": &cfg.Payment.Stripe.SecretKey,
	}
}

// HasRefs reports whether any secret field needs SSM resolution.
func HasRefs(cfg *config.Config) bool {
	for _, v := range secretFields(cfg) {
		if strings.HasPrefix(*v, RefPrefix) {
			return true
		}
	}
	return false
}

// Resolve replaces every ssm: reference in cfg with the parameter value.
func Resolve(ctx context.Context, cfg *config.Config, g Getter) error {
	for field, v := range secretFields(cfg) {
		name, ok := strings.CutPrefix(*v, RefPrefix)
		if !ok {
			continue
		}
		val, err := g.GetParameter(ctx, name)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", field, err)
		}
		*v = val
	}
	return nil
}

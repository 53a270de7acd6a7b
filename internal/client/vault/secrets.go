package vault

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"go.uber.org/zap"

	"wallet-manager/internal/logger"
)

// ErrNotFound indicates the named secret does not exist in the vault. It is
// distinguishable from transport failures so callers can tell a missing key
// apart from an unreachable vault.
var ErrNotFound = errors.New("vault: secret not found")

// Client wraps AWS Secrets Manager as an opaque put/get-by-name secret store.
type Client struct {
	svc *secretsmanager.Client
}

// NewClient creates and initializes a new Secrets Manager client using the
// default AWS configuration chain (environment variables, shared config,
// IAM role).
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return &Client{svc: secretsmanager.NewFromConfig(cfg)}, nil
}

// PutSecret stores value under name, creating the secret if it does not
// exist and adding a new version if it does. Secret values are never logged.
func (c *Client) PutSecret(ctx context.Context, name, value string) error {
	_, err := c.svc.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
	})
	if err == nil {
		logger.Debug("Created secret", zap.String("name", name))
		return nil
	}

	var exists *types.ResourceExistsException
	if !errors.As(err, &exists) {
		return fmt.Errorf("create secret %s: %w", name, err)
	}

	_, err = c.svc.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("put secret value %s: %w", name, err)
	}
	logger.Debug("Updated secret", zap.String("name", name))
	return nil
}

// GetSecret fetches the current value of the named secret. Returns
// ErrNotFound when the secret does not exist.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	result, err := c.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if result.SecretString == nil || *result.SecretString == "" {
		return "", ErrNotFound
	}
	return *result.SecretString, nil
}

// DeleteSecret removes the named secret without a recovery window. Used to
// roll back a half-finished wallet provisioning; deleting a secret that does
// not exist is not an error.
func (c *Client) DeleteSecret(ctx context.Context, name string) error {
	_, err := c.svc.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("delete secret %s: %w", name, err)
	}
	logger.Debug("Deleted secret", zap.String("name", name))
	return nil
}

// GetSecretString fetches a secret by the ARN held in secretArnEnvVar,
// falling back to the value of fallbackEnvVar when the ARN is unset or the
// fetch fails. Used at startup to resolve operator credentials.
func (c *Client) GetSecretString(ctx context.Context, secretArnEnvVar, fallbackEnvVar string) (string, error) {
	secretArn := os.Getenv(secretArnEnvVar)

	if secretArn != "" {
		value, err := c.GetSecret(ctx, secretArn)
		if err == nil {
			return value, nil
		}
		logger.Warn("Failed to retrieve secret from Secrets Manager, falling back to env var",
			zap.String("secretArnEnvVar", secretArnEnvVar),
			zap.String("fallbackEnvVar", fallbackEnvVar),
			zap.Error(err),
		)
	}

	if value := os.Getenv(fallbackEnvVar); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret not found using ARN env var %q or direct env var %q", secretArnEnvVar, fallbackEnvVar)
}

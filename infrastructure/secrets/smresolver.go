package secrets

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/resilience"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// SecretsManagerClient is the subset of *secretsmanager.Client this package
// depends on.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SMResolver resolves secretRefs against AWS Secrets Manager. The secret's
// JSON body is expected to carry the username/password under configurable
// keys, defaulting to "username"/"password".
type SMResolver struct {
	client      SecretsManagerClient
	usernameKey string
	passwordKey string
	retry       resilience.RetryConfig
}

// NewSMResolver constructs a SMResolver. Pass "" for either key to accept
// the default.
func NewSMResolver(client SecretsManagerClient, usernameKey, passwordKey string) *SMResolver {
	if usernameKey == "" {
		usernameKey = "username"
	}
	if passwordKey == "" {
		passwordKey = "password"
	}
	return &SMResolver{client: client, usernameKey: usernameKey, passwordKey: passwordKey, retry: resilience.DefaultRetryConfig()}
}

// Resolve implements Resolver.
func (r *SMResolver) Resolve(ctx context.Context, secretRef string) (Credentials, error) {
	var secretString string

	err := resilience.Retry(ctx, r.retry, func() error {
		out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretRef),
		})
		if err != nil {
			return err
		}
		if out.SecretString == nil {
			return svcerr.New(svcerr.CodeConfiguration, "secret has no string payload: "+secretRef)
		}
		secretString = *out.SecretString
		return nil
	})
	if err != nil {
		return Credentials{}, svcerr.Configuration("resolve secret "+secretRef, err)
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(secretString), &fields); err != nil {
		return Credentials{}, svcerr.Configuration("parse secret body "+secretRef, err)
	}

	return Credentials{
		Username: fields[r.usernameKey],
		Password: fields[r.passwordKey],
	}, nil
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// cognitoAPI is the subset of the Cognito client the provider uses.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	GlobalSignOut(ctx context.Context, params *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
}

// CognitoProvider authenticates against a Cognito user pool app client
// using the USER_PASSWORD_AUTH flow.
type CognitoProvider struct {
	api      cognitoAPI
	clientID string
	verifier Verifier
	logger   *logging.Logger
}

// NewCognitoProvider wires a provider. verifier decodes the returned ID token.
func NewCognitoProvider(cfg aws.Config, clientID string, verifier Verifier, logger *logging.Logger) *CognitoProvider {
	return newCognitoProvider(cognitoidentityprovider.NewFromConfig(cfg), clientID, verifier, logger)
}

func newCognitoProvider(api cognitoAPI, clientID string, verifier Verifier, logger *logging.Logger) *CognitoProvider {
	if logger == nil {
		logger = logging.Default()
	}
	return &CognitoProvider{api: api, clientID: clientID, verifier: verifier, logger: logger.Component("identity.cognito")}
}

func (p *CognitoProvider) SignIn(ctx context.Context, email, password string) (Tokens, Identity, error) {
	out, err := p.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return Tokens{}, Identity{}, mapCognitoError("sign in", err)
	}
	if out.AuthenticationResult == nil {
		p.logger.Warn("cognito challenge not supported", "challenge", string(out.ChallengeName))
		return Tokens{}, Identity{}, ErrChallenge
	}
	res := out.AuthenticationResult
	tokens := Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    time.Duration(res.ExpiresIn) * time.Second,
	}
	id, err := p.verifier.Verify(ctx, tokens.IDToken)
	if err != nil {
		return Tokens{}, Identity{}, fmt.Errorf("identity: sign in: %w", err)
	}
	if id.Email == "" {
		id.Email = strings.ToLower(email)
	}
	return tokens, id, nil
}

func (p *CognitoProvider) SignUp(ctx context.Context, email, password string) (bool, error) {
	out, err := p.api.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return false, mapCognitoError("sign up", err)
	}
	return out.UserConfirmed, nil
}

func (p *CognitoProvider) SignOut(ctx context.Context, tokens Tokens) error {
	if tokens.AccessToken == "" {
		return nil
	}
	if _, err := p.api.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(tokens.AccessToken),
	}); err != nil {
		return mapCognitoError("sign out", err)
	}
	return nil
}

func mapCognitoError(op string, err error) error {
	var (
		notAuthorized *types.NotAuthorizedException
		notFound      *types.UserNotFoundException
		exists        *types.UsernameExistsException
		badPassword   *types.InvalidPasswordException
		notConfirmed  *types.UserNotConfirmedException
	)
	switch {
	case errors.As(err, &notAuthorized), errors.As(err, &notFound):
		return ErrInvalidCredentials
	case errors.As(err, &exists):
		return ErrUserExists
	case errors.As(err, &badPassword):
		return ErrWeakPassword
	case errors.As(err, &notConfirmed):
		return ErrNotConfirmed
	}
	return fmt.Errorf("identity: %s: %w", op, err)
}

package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognito struct {
	authOut   *cognitoidentityprovider.InitiateAuthOutput
	authErr   error
	signUpErr error
	lastAuth  *cognitoidentityprovider.InitiateAuthInput
	signedOut string
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.lastAuth = in
	return f.authOut, f.authErr
}

func (f *fakeCognito) SignUp(_ context.Context, in *cognitoidentityprovider.SignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &cognitoidentityprovider.SignUpOutput{UserConfirmed: false, UserSub: aws.String("sub-1")}, nil
}

func (f *fakeCognito) GlobalSignOut(_ context.Context, in *cognitoidentityprovider.GlobalSignOutInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error) {
	f.signedOut = aws.ToString(in.AccessToken)
	return &cognitoidentityprovider.GlobalSignOutOutput{}, nil
}

type stubVerifier struct{ id Identity }

func (s stubVerifier) Verify(context.Context, string) (Identity, error) { return s.id, nil }

func TestCognitoSignIn(t *testing.T) {
	api := &fakeCognito{authOut: &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			IdToken:      aws.String("id"),
			AccessToken:  aws.String("access"),
			RefreshToken: aws.String("refresh"),
			ExpiresIn:    3600,
		},
	}}
	p := newCognitoProvider(api, "client-1", stubVerifier{id: Identity{Subject: "sub-1", Groups: []string{"admin"}}}, nil)

	tokens, id, err := p.SignIn(context.Background(), "Owner@Studio.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, api.lastAuth.AuthFlow)
	assert.Equal(t, "client-1", aws.ToString(api.lastAuth.ClientId))
	assert.Equal(t, "Owner@Studio.test", api.lastAuth.AuthParameters["USERNAME"])
	assert.Equal(t, time.Hour, tokens.ExpiresIn)
	assert.Equal(t, "owner@studio.test", id.Email)

	require.NoError(t, p.SignOut(context.Background(), tokens))
	assert.Equal(t, "access", api.signedOut)
}

func TestCognitoErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&types.NotAuthorizedException{Message: aws.String("bad")}, ErrInvalidCredentials},
		{&types.UserNotFoundException{}, ErrInvalidCredentials},
		{&types.UsernameExistsException{}, ErrUserExists},
		{&types.InvalidPasswordException{}, ErrWeakPassword},
		{&types.UserNotConfirmedException{}, ErrNotConfirmed},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, mapCognitoError("op", tc.err), tc.want)
	}
	other := errors.New("throttled")
	assert.ErrorIs(t, mapCognitoError("op", other), other)
}

func TestCognitoChallenge(t *testing.T) {
	api := &fakeCognito{authOut: &cognitoidentityprovider.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}}
	p := newCognitoProvider(api, "c", stubVerifier{}, nil)
	_, _, err := p.SignIn(context.Background(), "a@b.test", "pw")
	assert.ErrorIs(t, err, ErrChallenge)
}

func TestCognitoSignUpUnconfirmed(t *testing.T) {
	p := newCognitoProvider(&fakeCognito{}, "c", stubVerifier{}, nil)
	confirmed, err := p.SignUp(context.Background(), "a@b.test", "pw")
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func newJWKSServer(t *testing.T, key *rsa.PrivateKey, kid string, fetches *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(fetches, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kid": kid,
			"kty": "RSA",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	var fetches int32
	ts := newJWKSServer(t, key, "k1", &fetches)

	v := NewJWKSVerifier(CognitoConfig{Region: "us-east-1", UserPoolID: "pool", ClientID: "client-1"})
	v.issuer = ts.URL
	v.jwksURL = ts.URL + "/.well-known/jwks.json"

	sign := func(aud string) string {
		claims := CognitoClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    ts.URL,
				Subject:   "sub-9",
				Audience:  jwt.ClaimStrings{aud},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Email:         "Owner@Studio.test",
			CognitoGroups: []string{"admin"},
			TokenUse:      "id",
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = "k1"
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}

	id, err := v.Verify(context.Background(), sign("client-1"))
	require.NoError(t, err)
	assert.Equal(t, Identity{Subject: "sub-9", Email: "owner@studio.test", Groups: []string{"admin"}}, id)

	_, err = v.Verify(context.Background(), sign("someone-else"))
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fetches), "keys are cached")

	_, err = v.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWKSVerifierNotConfigured(t *testing.T) {
	_, err := NewJWKSVerifier(CognitoConfig{}).Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

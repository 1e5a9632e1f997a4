package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/faysalsarker-dev/piercing-cms/cmd/mainconfig"
	appconfig "github.com/faysalsarker-dev/piercing-cms/internal/config"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/internal/observability/metrics"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

const staticIssuer = "piercing-cms"

// BuildIdentity wires the configured auth provider, its token verifier and
// the Redis-backed session store.
func BuildIdentity(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client, m *metrics.ConsoleMetrics, logger *logging.Logger) (*identity.Service, identity.Verifier, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if redisClient == nil {
		return nil, nil, fmt.Errorf("bootstrap: redis is required for sessions")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		provider identity.Provider
		verifier identity.Verifier
	)
	switch strings.ToLower(strings.TrimSpace(cfg.AuthProvider)) {
	case "cognito":
		if strings.TrimSpace(cfg.CognitoUserPoolID) == "" || strings.TrimSpace(cfg.CognitoClientID) == "" {
			return nil, nil, fmt.Errorf("bootstrap: cognito user pool id and client id are required")
		}
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		jwks := identity.NewJWKSVerifier(identity.CognitoConfig{
			Region:     cfg.CognitoRegion,
			UserPoolID: cfg.CognitoUserPoolID,
			ClientID:   cfg.CognitoClientID,
		})
		provider = identity.NewCognitoProvider(awsCfg, cfg.CognitoClientID, jwks, logger)
		verifier = jwks
		logger.Info("identity provider ready", "provider", "cognito", "pool", cfg.CognitoUserPoolID)
	case "static":
		if len(cfg.StaticUsers) == 0 {
			logger.Warn("static identity provider has no users; sign-in will always fail")
		}
		hmac := identity.NewHMACVerifier(cfg.StaticTokenSecret, staticIssuer)
		provider = identity.NewStaticProvider(cfg.StaticUsers, hmac, cfg.SessionTTLEphemeral)
		verifier = hmac
		logger.Info("identity provider ready", "provider", "static", "users", len(cfg.StaticUsers))
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown auth provider %q", cfg.AuthProvider)
	}

	svc := identity.NewService(provider, identity.NewSessionStore(redisClient), identity.ServiceConfig{
		DurableTTL:   cfg.SessionTTLDurable,
		EphemeralTTL: cfg.SessionTTLEphemeral,
		CookieName:   cfg.SessionCookieName,
		CookieSecure: cfg.SessionCookieSecure,
	}, m, logger)
	return svc, verifier, nil
}

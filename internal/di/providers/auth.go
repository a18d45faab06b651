package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
)

// AuthKey is the hex-encoded access-token key.
type AuthKey string

// ProvideAuthKey resolves the configured key or loads (or generates) one in the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	configured := cfg.Auth.AccessTokenKey != ""

	key, err := auth.ResolveKey(cfg.Auth.AccessTokenKey, cfg.Data.AuthKeyPath())
	if err != nil {
		return "", err
	}

	log.Info("Authentication key loaded",
		"from_config", configured,
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(key), cfg.Auth.AccessTokenDuration)
}

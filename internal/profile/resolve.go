package profile

import (
	"os"

	"github.com/matheus3301/wuzdash/internal/config"
)

const DefaultName = "main"

// Env names the environment variable that selects a profile.
const Env = "WUZDASH_PROFILE"

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. $WUZDASH_PROFILE
// 3. config.toml default_profile
// 4. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv(Env); env != "" {
		return env
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return DefaultName
}

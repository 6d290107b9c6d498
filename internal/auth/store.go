package auth

import (
	"log/slog"
	"sync"

	"github.com/interviewme/interviewme/config"
)

type User struct {
	Username     string
	PasswordHash string
	Roles        []string
}

var (
	userStore     map[string]User
	userStoreOnce sync.Once
)

// getUserStore seeds the demo credential store from the environment. There
// is no registration flow; deployments provision users via env.
func getUserStore() map[string]User {
	userStoreOnce.Do(func() {
		username := config.GetEnv("DEMO_USERNAME", "admin")
		password := config.GetEnv("DEMO_PASSWORD", "password")

		hash, err := HashPassword(password)
		if err != nil {
			slog.Error("[Auth] Failed to hash seed password", slog.String("error", err.Error()))
			panic(err)
		}

		userStore = map[string]User{
			username: {
				Username:     username,
				PasswordHash: hash,
				Roles:        []string{"interviewer"},
			},
		}
	})
	return userStore
}

// Authenticate verifies credentials against the store and returns the user.
func Authenticate(username, password string) (*User, bool) {
	user, ok := getUserStore()[username]
	if !ok {
		// Burn a comparison anyway so missing users cost the same as
		// wrong passwords.
		ComparePassword(password, "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
		return nil, false
	}

	match, err := ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, false
	}
	return &user, true
}

package config

import (
	"errors"
	"os"
	"os/user"
	"strings"

	"tcpchat/internal/wire"
)

// ResolveUsername returns the name of the user running the client, cut to
// the wire's username capacity.
func ResolveUsername() (string, error) {
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = os.Getenv("USERNAME")
	}
	// Windows reports DOMAIN\user.
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "", errors.New("could not determine username")
	}
	return wire.TruncateUTF8(name, wire.MaxUsernameLen), nil
}

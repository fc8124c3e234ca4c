package credentials

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type usersFile struct {
	Users []userEntry `yaml:"users"`
}

type userEntry struct {
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password,omitempty"`
	PasswordHash string   `yaml:"password_hash,omitempty"`
	Roles        []string `yaml:"roles,omitempty"`
}

// LoadUsersYAML reads a users file:
//
//	users:
//	  - username: admin
//	    password_hash: $2a$10$...
//	    roles: [USER, ADMIN]
//	  - username: user
//	    password: "12345"   # hashed on load
//	    roles: [USER]
//
// Exactly one of password and password_hash must be set per user.
func LoadUsersYAML(r io.Reader) ([]User, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f usersFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Join(ErrInvalidUsers, err)
	}

	users := make([]User, 0, len(f.Users))
	for i, e := range f.Users {
		if e.Username == "" {
			return nil, fmt.Errorf("%w: entry #%d: %w", ErrInvalidUsers, i, ErrEmptyIdentity)
		}

		hash := e.PasswordHash
		switch {
		case e.Password != "" && hash != "":
			return nil, fmt.Errorf("%w: user %q: both password and password_hash set", ErrInvalidUsers, e.Username)
		case e.Password != "":
			h, err := HashPassword(e.Password)
			if err != nil {
				return nil, err
			}
			hash = h
		case hash == "":
			return nil, fmt.Errorf("%w: user %q: %w", ErrInvalidUsers, e.Username, ErrEmptyPassword)
		case !validHash(hash):
			return nil, fmt.Errorf("%w: user %q: %w", ErrInvalidUsers, e.Username, ErrInvalidHash)
		}

		users = append(users, User{Identity: e.Username, PasswordHash: hash, Roles: e.Roles})
	}
	return users, nil
}

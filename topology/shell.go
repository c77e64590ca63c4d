package topology

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrInvalidUsername = errors.New("invalid username")

// usernames end up in a JavaScript string literal
var usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func ValidateUsername(username string) error {
	if !usernameRegexp.MatchString(username) {
		return fmt.Errorf("%w: `%s` may only contain letters, digits, `.`, `_` and `-`", ErrInvalidUsername, username)
	}
	return nil
}

// CreateUserCommand returns the mongo shell invocation that creates the initial admin user.
//
// The first user can only be created through the localhost exception, which the
// drivers cannot trigger, see https://www.mongodb.com/docs/manual/core/localhost-exception/
// The shell prompts for the password on stdin.
func CreateUserCommand(c Config, username string) ([]string, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return []string{
		c.Shell,
		"mongodb://localhost/admin",
		"--quiet",
		"--eval",
		"db.createUser({" +
			fmt.Sprintf("  user: '%s',", username) +
			"  pwd: passwordPrompt()," +
			"  roles:[" +
			"    {'role': 'userAdminAnyDatabase', 'db': 'admin'}, " +
			"    {'role': 'readWriteAnyDatabase', 'db': 'admin'}, " +
			"    {'role': 'clusterAdmin', 'db': 'admin'}, " +
			"  ]," +
			"  mechanisms: ['SCRAM-SHA-256']," +
			"  passwordDigestor: 'server'," +
			"})",
	}, nil
}

package topology

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

const mongod6VersionOutput = `db version v6.0.6
Build Info: {
    "version": "6.0.6",
    "gitVersion": "26b4851a412cc8b9b4a18cdb6cd0f9f642e06aa7"
}`

func TestParseMongodVersion(t *testing.T) {
	v, err := ParseMongodVersion(mongod6VersionOutput)
	assert.NoError(t, err)
	assert.Equal(t, "6.0.6", v.String())

	_, err = ParseMongodVersion("")
	assert.Error(t, err)

	_, err = ParseMongodVersion("mongod: command not found")
	assert.Error(t, err)
}

func TestCheckMongodVersion(t *testing.T) {
	ok, err := CheckMongodVersion(mongod6VersionOutput)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckMongodVersion("db version v4.2.0")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckMongodVersion("db version v3.6.23")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateUserCommand(t *testing.T) {
	cmd, err := CreateUserCommand(DefaultConfig(), "operator")
	assert.NoError(t, err)
	assert.Equal(t, "charmed-mongodb.mongosh", cmd[0])
	assert.Equal(t, "mongodb://localhost/admin", cmd[1])
	assert.Len(t, cmd, 5)
	assert.Contains(t, cmd[4], "user: 'operator'")
	assert.Contains(t, cmd[4], "passwordPrompt()")
}

func TestCreateUserCommand_RejectsScriptInjection(t *testing.T) {
	for _, username := range []string{"", "o'perator", "x', roles: ['root'], y: '", "user name", "a\nb"} {
		_, err := CreateUserCommand(DefaultConfig(), username)
		assert.ErrorIs(t, err, ErrInvalidUsername, username)
	}
	assert.NoError(t, ValidateUsername("relation-12_app.user"))
}

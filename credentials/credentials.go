// Package credentials generates the secrets shared by the members of a deployment.
package credentials

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
)

const (
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	PasswordLength = 32
	// maximum key length accepted by mongod
	KeyFileLength = 1024

	KeyFilePermissions = 0600
)

func GeneratePassword() string {
	return randomString(PasswordLength)
}

// GenerateKeyFile returns the content of the key file replica set members use to
// authenticate each other. It must be distributed verbatim to every member.
func GenerateKeyFile() string {
	return randomString(KeyFileLength)
}

func randomString(length int) string {
	max := big.NewInt(int64(len(Alphabet)))
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// the system entropy source is broken, nothing sensible left to do
			panic(fmt.Sprintf("credentials: reading random source failed: %s", err))
		}
		result[i] = Alphabet[n.Int64()]
	}
	return string(result)
}

// WriteKeyFile creates or updates the key file at path.
// The file is left untouched if it already holds exactly content.
func WriteKeyFile(path string, content string) (err error) {

	equal, err := fileContentEqualTo(path, content)
	switch {
	case equal:
		return nil
	case err != nil:
		return err
	}

	keyFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, KeyFilePermissions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := keyFile.Close(); err == nil {
			err = closeErr
		}
	}()

	// O_CREATE does not change the mode of an existing file
	if err = keyFile.Chmod(KeyFilePermissions); err != nil {
		return err
	}

	w := bufio.NewWriter(keyFile)
	if _, err = w.WriteString(content); err != nil {
		return err
	}
	return w.Flush()
}

func fileContentEqualTo(path string, content string) (equal bool, err error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) { // nonexistent equivalent to unequal
			return false, nil
		}
		return false, err
	}
	return content == string(fileContent), nil
}

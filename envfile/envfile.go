// Package envfile maintains the KEY=VALUE environment override file the process
// manager reads when it launches mongod and mongos.
//
// Callers must serialize concurrent updates of the same file.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"os"
	"path/filepath"
	"strings"
)

var envLog = logrus.WithField("module", "envfile")

var (
	ErrInvalidKey   = errors.New("invalid key")
	ErrInvalidValue = errors.New("value must not contain a line break")
)

// mongod command lines are long, bufio.Scanner defaults to 64KiB
const maxLineLength = 1024 * 1024

// Upsert sets key to value in the env file at path.
//
// The first line assigning key is rewritten in place, a new line is appended if no
// line does. All other lines keep their content and order.
// Trailing blanks and line breaks of value are dropped, so an Arguments string
// ending with its newline token can be passed as is.
// Applying the same key and value again leaves the file byte-identical.
func Upsert(path, key, value string) error {

	if key == "" || strings.ContainsAny(key, "= \t\r\n") {
		return fmt.Errorf("%w: `%s`", ErrInvalidKey, key)
	}
	value = strings.TrimRight(value, " \t\r\n")
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: key `%s`", ErrInvalidValue, key)
	}

	lines, mode, err := readLines(path)
	if err != nil {
		return err
	}

	entry := fmt.Sprintf("%s=%s", key, value)
	replaced := false
	for i, line := range lines {
		if lineKey(line) == key {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		envLog.Debugf("appending `%s` to `%s`", key, path)
		lines = append(lines, entry)
	}

	return writeLines(path, lines, mode)
}

// Read parses the env file at path.
func Read(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("could not parse env file `%s`: %w", path, err)
	}
	return env, nil
}

func Lookup(path, key string) (value string, exists bool, err error) {
	env, err := Read(path)
	if err != nil {
		return "", false, err
	}
	value, exists = env[key]
	return
}

// lineKey returns the key a line assigns or "" for blank lines, comments and lines
// without assignment.
func lineKey(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	line = strings.TrimPrefix(line, "export ")
	eq := strings.Index(line, "=")
	if eq < 0 {
		return ""
	}
	return strings.TrimSpace(line[:eq])
}

func readLines(path string) (lines []string, mode os.FileMode, err error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scan.Scan() {
		lines = append(lines, scan.Text())
	}
	if err = scan.Err(); err != nil {
		return nil, 0, fmt.Errorf("could not read `%s`: %w", path, err)
	}

	return lines, info.Mode().Perm(), nil
}

// writeLines replaces the file at path through a temporary file in the same
// directory, readers never observe a partially written file.
func writeLines(path string, lines []string, mode os.FileMode) (err error) {

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err = w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

package topology

import (
	"bufio"
	"fmt"
	"github.com/Masterminds/semver"
	"regexp"
	"strings"
)

// the --tls* options replaced --ssl* in 4.2
const MongodMinRequiredVersion = ">= 4.2"

var versionRegexp = regexp.MustCompile(`v([0-9][^\s]*)`)

// ParseMongodVersion extracts the version from the output of `mongod --version`.
func ParseMongodVersion(versionOutput string) (*semver.Version, error) {
	scan := bufio.NewScanner(strings.NewReader(versionOutput))
	if !scan.Scan() {
		return nil, fmt.Errorf("empty mongod version output")
	}
	res := versionRegexp.FindStringSubmatch(scan.Text())
	if len(res) < 2 {
		return nil, fmt.Errorf("no version in mongod version output `%s`", scan.Text())
	}
	v, err := semver.NewVersion(res[1])
	if err != nil {
		return nil, fmt.Errorf("invalid mongod version `%s`: %s", res[1], err)
	}
	return v, nil
}

// CheckMongodVersion reports whether the mongod that printed versionOutput
// understands the arguments built by this package.
func CheckMongodVersion(versionOutput string) (bool, error) {
	constraint, err := semver.NewConstraint(MongodMinRequiredVersion)
	if err != nil {
		return false, err
	}
	v, err := ParseMongodVersion(versionOutput)
	if err != nil {
		return false, err
	}
	return constraint.Check(v), nil
}

package model

import (
	"errors"
	"fmt"
)

/*
	The types defined in this file describe how a single node of a deployment is provisioned.

	Enums: 	EnumType.EnumItem => const EnumTypeEnumItem

		Parse functions only accept the closed set of values listed below.
		Anything else is rejected before it reaches the configuration builders.
*/

var (
	ErrInvalidRole                = errors.New("invalid role")
	ErrInvalidPathVariant         = errors.New("invalid path variant")
	ErrInternalTLSWithoutExternal = errors.New("internal TLS cannot be enabled without external TLS")
)

// Role of a node process in the deployment.
// Immutable once the node is provisioned.
type Role string

const (
	RoleReplication  Role = "replication"
	RoleConfigServer Role = "config-server"
	RoleShard        Role = "shard"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleReplication, RoleConfigServer, RoleShard:
		return r, nil
	default:
		return "", fmt.Errorf("%w: `%s` (expected one of %s, %s, %s)", ErrInvalidRole, s,
			RoleReplication, RoleConfigServer, RoleShard)
	}
}

func (r Role) IsSharded() bool {
	return r == RoleConfigServer || r == RoleShard
}

type SecurityPosture struct {
	AuthEnabled bool
	ExternalTLS bool
	InternalTLS bool
}

// Validate checks that internal TLS is only requested together with external TLS.
func (s SecurityPosture) Validate() error {
	if s.InternalTLS && !s.ExternalTLS {
		return ErrInternalTLSWithoutExternal
	}
	return nil
}

// UsesKeyFile reports whether members authenticate each other with the shared key file.
func (s SecurityPosture) UsesKeyFile() bool {
	return s.AuthEnabled && !s.InternalTLS
}

// UsesX509ClusterAuth reports whether members authenticate each other with certificates.
func (s SecurityPosture) UsesX509ClusterAuth() bool {
	return s.InternalTLS && s.ExternalTLS
}

// PathVariant selects the filesystem roots of the data, config and log directories.
type PathVariant string

const (
	PathVariantPackaged PathVariant = "packaged"
	PathVariantBare     PathVariant = "bare"
)

func ParsePathVariant(s string) (PathVariant, error) {
	switch v := PathVariant(s); v {
	case PathVariantPackaged, PathVariantBare:
		return v, nil
	default:
		return "", fmt.Errorf("%w: `%s` (expected %s or %s)", ErrInvalidPathVariant, s, PathVariantPackaged, PathVariantBare)
	}
}

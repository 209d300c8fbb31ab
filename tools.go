//go:build tools
// +build tools

// Package tools pins tool dependencies, mockgen for go:generate, so go.mod
// tracks them.
package iprotalk

import (
	_ "go.uber.org/mock/mockgen"
)

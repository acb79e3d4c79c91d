// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package wizard

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ValidatePath validates a directory path.
// Returns nil for empty values (optional field).
func ValidatePath(v string) error {
	if v == "" {
		return nil
	}

	path := v
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// The manager creates Root/CachePath on first use, so a
			// not-yet-existing path is fine.
			return nil
		}
		return errors.New("cannot access path: " + err.Error())
	}
	if !info.IsDir() {
		return errors.New("path exists but is not a directory")
	}
	return nil
}

// ValidatePathRequired validates a non-empty path.
func ValidatePathRequired(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("path is required")
	}
	return ValidatePath(v)
}

// ValidateMaxConcurrentOperations validates the max-concurrent-operations
// field. Empty means unbounded (manager.WithMaxConcurrentOperations is
// simply not applied).
func ValidateMaxConcurrentOperations(v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.New("must be a number")
	}
	if n < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}

// ValidateMaxAge validates a time.ParseDuration-compatible string, used
// for the if-older-than update strategy's max age.
func ValidateMaxAge(v string) error {
	if v == "" {
		return errors.New("max age is required for if-older-than")
	}
	if _, err := time.ParseDuration(v); err != nil {
		return errors.New("must be a duration like 24h or 30m")
	}
	return nil
}

// ValidateHost validates a forge hostname (e.g. "github.com").
func ValidateHost(v string) error {
	if v == "" {
		return errors.New("host is required")
	}
	if strings.ContainsAny(v, "/ \t") {
		return errors.New("host must not contain slashes or whitespace")
	}
	return nil
}

// ValidateToken validates a forge API token. Empty is rejected: a
// forge token entry with no token is pointless, so the token form
// keeps asking until a non-blank token is entered.
func ValidateToken(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("token is required")
	}
	return nil
}

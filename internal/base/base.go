// Copyright 2020 Kentaro Hibino. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Package base defines foundational types and constants used in taskstore package.
package base

import (
	"fmt"
	"regexp"
	"strings"
)

// Version of taskstore library.
const Version = "0.1.0"

// Namespace is the fixed prefix for every key taskstore creates in redis.
const Namespace = "taskstore"

// Kind identifies which of the persisted backend kinds a key belongs to.
// Event emitter channels are not persisted structures and carry no kind.
type Kind string

const (
	KindQueue    Kind = "queue"
	KindSchedule Kind = "schedule"
	KindResults  Kind = "results"
)

var nameSanitizer = regexp.MustCompile(`[^a-z0-9]`)

// SanitizeName strips every byte outside [a-z0-9] from name.
// Sanitization is deterministic; two names that sanitize identically
// collide in redis and detecting that is the caller's responsibility.
func SanitizeName(name string) string {
	return nameSanitizer.ReplaceAllString(name, "")
}

// ValidateName validates a given name to be used as a component name.
// Returns nil if valid, otherwise returns non-nil error.
func ValidateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return fmt.Errorf("name must contain one or more characters")
	}
	if SanitizeName(name) == "" {
		return fmt.Errorf("name %q sanitizes to an empty string; use lowercase letters or digits", name)
	}
	return nil
}

// Key returns the physical redis key for the given kind and user-supplied name.
func Key(kind Kind, name string) string {
	return Namespace + "." + string(kind) + "." + SanitizeName(name)
}

// QueueKey returns a redis key for the queue with the given name.
func QueueKey(name string) string {
	return Key(KindQueue, name)
}

// ScheduleKey returns a redis key for the schedule with the given name.
func ScheduleKey(name string) string {
	return Key(KindSchedule, name)
}

// ResultsKey returns a redis key for the result store with the given name.
func ResultsKey(name string) string {
	return Key(KindResults, name)
}

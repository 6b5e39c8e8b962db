package models

import (
	"fmt"
	"strings"
)

// Platform identifies a social network destination.
type Platform string

const (
	PlatformThreads  Platform = "threads"
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
)

// Platforms lists every platform the pipeline knows about.
var Platforms = []Platform{PlatformThreads, PlatformTwitter, PlatformLinkedIn}

// UnknownPlatformError is returned when a string does not name a known platform.
type UnknownPlatformError struct {
	Value string
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("unknown platform %q", e.Value)
}

// NormalizePlatform lowercases and trims s without validating it.
// "x" is accepted as an alias for twitter.
func NormalizePlatform(s string) Platform {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if p == "x" {
		p = PlatformTwitter
	}
	return p
}

// ParsePlatform case-normalizes s and maps it onto the known platforms.
func ParsePlatform(s string) (Platform, error) {
	p := NormalizePlatform(s)
	if !p.IsValid() {
		return "", &UnknownPlatformError{Value: s}
	}
	return p, nil
}

func (p Platform) IsValid() bool {
	switch p {
	case PlatformThreads, PlatformTwitter, PlatformLinkedIn:
		return true
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// Package errors provides centralized error handling for homelink.
//
// This package defines sentinel errors used for programmatic error
// categorization throughout the application. All error types can be
// checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidNode indicates an invalid node configuration value.
	ErrConfigInvalidNode = errors.New("invalid node configuration")

	// ErrConfigInvalidMQTT indicates an invalid MQTT configuration value.
	ErrConfigInvalidMQTT = errors.New("invalid MQTT configuration")

	// ErrConfigInvalidWeb indicates an invalid web configuration value.
	ErrConfigInvalidWeb = errors.New("invalid web configuration")

	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigExists indicates an attempt to overwrite an existing
	// configuration file without force.
	ErrConfigExists = errors.New("config file already exists")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidCommand indicates a bus command line that cannot be parsed.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrUnknownPlugin indicates a command addressed to an unregistered plugin.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrPluginExists indicates a duplicate plugin registration.
	ErrPluginExists = errors.New("plugin already registered")

	// ErrNotConnected indicates an MQTT publish before the client connected.
	ErrNotConnected = errors.New("mqtt client not connected")

	// ErrBadTopic indicates an MQTT topic outside the fleet scheme.
	ErrBadTopic = errors.New("topic does not match fleet scheme")

	// ErrToolNotFound indicates an external tool (yt-dlp, ffmpeg) is not
	// installed or not on PATH.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolFailed indicates an external tool exited non-zero.
	ErrToolFailed = errors.New("tool execution failed")

	// ErrPathOutsideRoot indicates a sync filename escaping the share root.
	ErrPathOutsideRoot = errors.New("path escapes share root")

	// ErrFileNotFound indicates a requested share file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrPeerUnreachable indicates a sync peer could not be contacted.
	ErrPeerUnreachable = errors.New("peer unreachable")

	// ErrShareLocked indicates another daemon holds the share lock.
	ErrShareLocked = errors.New("share folder locked by another process")

	// ErrInvalidFrequency indicates an unsupported todo frequency.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrInvalidSchedule indicates an unparseable todo schedule time.
	ErrInvalidSchedule = errors.New("invalid schedule time")

	// ErrOccurrenceNotFound indicates a todo occurrence index out of range.
	ErrOccurrenceNotFound = errors.New("occurrence not found")

	// ErrWeatherStatus indicates a non-200 response from the forecast API.
	ErrWeatherStatus = errors.New("forecast request failed")

	// ErrNonInteractive indicates an interactive surface was requested
	// without a terminal attached.
	ErrNonInteractive = errors.New("not running in a terminal")
)

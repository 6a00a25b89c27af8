package config

import (
	"errors"
	"fmt"
	"strings"

	"symlayer/internal/keys"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is matches ErrInvalidConfig so callers can test for any validation failure.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Fields returns the names of the offending fields.
func (e ValidationErrors) Fields() []string {
	out := make([]string, len(e))
	for i, err := range e {
		out[i] = err.Field
	}
	return out
}

// Thresholds above this are almost certainly a unit mistake (seconds written
// as milliseconds).
const maxThresholdMs = 5000

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateModifiers(&c.Modifiers)...)
	errs = append(errs, validateMultipress(&c.Multipress)...)
	errs = append(errs, validateKeys(&c.Keys)...)
	errs = append(errs, validateTriple("dot_ctrl", &c.DotCtrl)...)
	errs = append(errs, validateTriple("emoji_meta", &c.EmojiMeta)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateTrace(&c.Trace)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateModifiers(m *ModifiersConfig) ValidationErrors {
	var errs ValidationErrors
	if err := checkThreshold("modifiers.lock_threshold_ms", m.LockThresholdMs); err != nil {
		errs = append(errs, *err)
	}
	if err := checkThreshold("modifiers.next_threshold_ms", m.NextThresholdMs); err != nil {
		errs = append(errs, *err)
	}
	return errs
}

func validateMultipress(m *MultipressConfig) ValidationErrors {
	var errs ValidationErrors

	if err := checkThreshold("multipress.threshold_ms", m.ThresholdMs); err != nil {
		errs = append(errs, *err)
	}

	templates, err := m.Templates()
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "multipress.custom_tables",
			Message: err.Error(),
		})
		return errs
	}
	if m.FirstLevelTemplate == "" {
		errs = append(errs, *RequiredFieldError("multipress.first_level_template"))
	} else if _, ok := templates[m.FirstLevelTemplate]; !ok {
		errs = append(errs, ValidationError{
			Field: "multipress.first_level_template",
			Message: fmt.Sprintf("%v %q (available: %s)",
				ErrUnknownTemplate, m.FirstLevelTemplate, strings.Join(templates.Names(), ", ")),
		})
	}
	return errs
}

func validateKeys(k *KeysConfig) ValidationErrors {
	var errs ValidationErrors

	if k.ToggleLongPressMs < 100 || k.ToggleLongPressMs > maxThresholdMs {
		errs = append(errs, *RangeError("keys.toggle_long_press_ms", 100, maxThresholdMs))
	}
	if _, err := keys.ParseDeviceClass(k.DeviceClass); err != nil {
		errs = append(errs, ValidationError{
			Field:   "keys.device_class",
			Message: "must be one of: titan, mp01",
		})
	}
	return errs
}

func validateTriple(section string, t *TripleConfig) ValidationErrors {
	var errs ValidationErrors
	for _, f := range []struct {
		name, value string
	}{
		{"tap", t.Tap},
		{"long_press", t.LongPress},
		{"hold", t.Hold},
	} {
		if _, err := keys.ParseRole(f.value); err != nil {
			errs = append(errs, ValidationError{
				Field:   section + "." + f.name,
				Message: fmt.Sprintf("unknown role %q (valid: none, period, voice, ctrl, emoji, 0, meta)", f.value),
			})
		}
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(l.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: debug, info, warn, error",
		})
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(l.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be one of: text, json",
		})
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true, "both": true}
	if !validOutputs[strings.ToLower(l.Output)] {
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: "must be one of: stdout, stderr, file, both",
		})
	}

	if (l.Output == "file" || l.Output == "both") && l.FilePath == "" {
		errs = append(errs, *RequiredFieldError("logging.file_path"))
	}
	if l.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "cannot be negative",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "cannot be negative",
		})
	}
	return errs
}

func validateTrace(t *TraceConfig) ValidationErrors {
	var errs ValidationErrors
	if t.Enabled && t.Path == "" {
		errs = append(errs, *RequiredFieldError("trace.path"))
	}
	return errs
}

func checkThreshold(field string, ms int) *ValidationError {
	if ms < 0 || ms > maxThresholdMs {
		return RangeError(field, 0, maxThresholdMs)
	}
	return nil
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

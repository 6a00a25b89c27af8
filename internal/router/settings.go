package router

import (
	"errors"
	"fmt"
	"time"

	"symlayer/internal/config"
	"symlayer/internal/keys"
	"symlayer/internal/modifier"
	"symlayer/internal/multipress"
)

// TripleRoles assigns the three gestures of a triple-duty key.
type TripleRoles struct {
	Tap       keys.Role
	LongPress keys.Role
	Hold      keys.Role
}

// Settings are the user preferences a Router applies.
type Settings struct {
	LockThreshold time.Duration
	NextThreshold time.Duration

	Multipress multipress.Options

	// FirstLevel names the first-level template. Empty keeps level 0 of the
	// router's table.
	FirstLevel string

	AutoCapitalize  bool
	AltKeyOverride  bool
	CyrillicLayer   bool
	ToggleThreshold time.Duration

	Device keys.DeviceClass

	DotCtrl   TripleRoles
	EmojiMeta TripleRoles
}

// DefaultSettings returns the factory preferences.
func DefaultSettings() Settings {
	return Settings{
		LockThreshold:   modifier.DefaultLockThreshold,
		NextThreshold:   modifier.DefaultNextThreshold,
		Multipress:      multipress.DefaultOptions(),
		FirstLevel:      multipress.DefaultTemplate,
		AutoCapitalize:  true,
		ToggleThreshold: modifier.DefaultToggleThreshold,
		Device:          keys.DeviceTitan,
		DotCtrl: TripleRoles{
			Tap:       keys.RolePeriod,
			LongPress: keys.RoleVoice,
			Hold:      keys.RoleCtrl,
		},
		EmojiMeta: TripleRoles{
			Tap:       keys.RoleEmoji,
			LongPress: keys.RoleZero,
			Hold:      keys.RoleMeta,
		},
	}
}

// Settings returns the preferences currently applied.
func (r *Router) Settings() Settings {
	return r.settings
}

// Apply installs new preferences. Modifier states are kept; only their
// thresholds and key codes change. An unknown first-level template leaves
// the router untouched.
func (r *Router) Apply(s Settings) error {
	var first multipress.Level
	if s.FirstLevel != "" {
		lvl, ok := r.templates[s.FirstLevel]
		if !ok {
			return fmt.Errorf("%w %q", config.ErrUnknownTemplate, s.FirstLevel)
		}
		first = lvl
	}

	for _, m := range []*modifier.Modifier{r.shift, r.alt, r.sym} {
		m.LockThreshold = s.LockThreshold
	}
	r.shift.NextThreshold = s.NextThreshold
	r.alt.NextThreshold = s.NextThreshold

	r.engine.SetOptions(s.Multipress)
	if first != nil {
		r.engine.SetFirstLevel(first)
	}

	r.autoCapitalize = s.AutoCapitalize
	r.altOverride = s.AltKeyOverride
	r.cyrillicEnabled = s.CyrillicLayer
	if !s.CyrillicLayer {
		r.cyrillic.Reset()
	}
	if s.ToggleThreshold > 0 {
		r.cyrillic.Threshold = s.ToggleThreshold
	}

	setTriple(r.dotCtrl, s.DotCtrl)
	setTriple(r.emojiMeta, s.EmojiMeta)

	r.setDevice(s.Device)
	r.settings = s
	r.forceStatus = true

	r.logger.Debug("settings applied",
		"template", s.FirstLevel,
		"device", s.Device.String(),
		"cyrillic", s.CyrillicLayer,
	)
	return nil
}

func setTriple(m *modifier.Modifier, roles TripleRoles) {
	m.ShortPressKeyCode = roles.Tap.Code()
	m.LongPressKeyCode = roles.LongPress.Code()
	m.ModKeyCode = roles.Hold.Code()
}

// SettingsFromConfig converts a configuration file into router settings.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	c := cfg.Clone()
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	s := Settings{
		LockThreshold: ms(c.Modifiers.LockThresholdMs),
		NextThreshold: ms(c.Modifiers.NextThresholdMs),
		Multipress: multipress.Options{
			Threshold:        ms(c.Multipress.ThresholdMs),
			IgnoreFirstLevel: !c.Multipress.UseFirstLevel,
			IgnoreDotSpace:   !c.Multipress.DotSpace,
			IgnoreConsonants: c.Multipress.FirstLevelOnlyVowels,
			Ligatures:        c.Multipress.Ligatures,
		},
		FirstLevel:      c.Multipress.FirstLevelTemplate,
		AutoCapitalize:  c.Keys.AutoCapitalize,
		AltKeyOverride:  c.Keys.AltKeyOverride,
		CyrillicLayer:   c.Keys.CyrillicLayer,
		ToggleThreshold: ms(c.Keys.ToggleLongPressMs),
	}

	var errs []error
	device, err := keys.ParseDeviceClass(c.Keys.DeviceClass)
	errs = append(errs, err)
	s.Device = device

	parseRoles := func(t config.TripleConfig) TripleRoles {
		var roles TripleRoles
		var err error
		roles.Tap, err = keys.ParseRole(t.Tap)
		errs = append(errs, err)
		roles.LongPress, err = keys.ParseRole(t.LongPress)
		errs = append(errs, err)
		roles.Hold, err = keys.ParseRole(t.Hold)
		errs = append(errs, err)
		return roles
	}
	s.DotCtrl = parseRoles(c.DotCtrl)
	s.EmojiMeta = parseRoles(c.EmojiMeta)

	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ApplyConfig loads the templates named by cfg (built-ins plus its custom
// tables file) and applies its preferences.
func (r *Router) ApplyConfig(cfg *config.Config) error {
	s, err := SettingsFromConfig(cfg)
	if err != nil {
		return err
	}
	templates, err := cfg.Templates()
	if err != nil {
		return err
	}
	prev := r.templates
	r.templates = templates
	if err := r.Apply(s); err != nil {
		r.templates = prev
		return err
	}
	return nil
}

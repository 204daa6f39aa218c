package currency

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Phase is where a visitor is in currency resolution.
type Phase int

const (
	Uninitialized Phase = iota
	Detecting
	Auto
	Manual
)

func (p Phase) String() string {
	switch p {
	case Detecting:
		return "detecting"
	case Auto:
		return "auto"
	case Manual:
		return "manual"
	default:
		return "uninitialized"
	}
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a visitor's currency state. Code is set in the Auto and Manual
// phases only.
type State struct {
	Phase Phase  `json:"phase"`
	Code  string `json:"currency,omitempty"`
}

// Ready reports whether prices can be converted for this state.
func (s State) Ready() bool {
	return s.Phase == Auto || s.Phase == Manual
}

// Preference keys.
const (
	KeyCurrency   = "currency"
	KeyAutoDetect = "auto_detect"
	KeyDetected   = "detected"
)

// PreferenceStore persists per-visitor string preferences.
type PreferenceStore interface {
	Get(ctx context.Context, visitorID, key string) (string, bool, error)
	Set(ctx context.Context, visitorID, key, value string) error
	Remove(ctx context.Context, visitorID string, keys ...string) error
}

// Manager drives the per-visitor state machine:
//
//	Uninitialized -> Manual     saved choice and auto-detect disabled
//	Uninitialized -> Detecting  otherwise
//	Detecting     -> Auto       detected, saved or default code
//	any           -> Manual     Select
//	any           -> Detecting  ResetAutoDetect
type Manager struct {
	prefs         PreferenceStore
	detector      Detector
	detectTimeout time.Duration
}

// NewManager creates a Manager. detectTimeout bounds every geo lookup.
func NewManager(prefs PreferenceStore, detector Detector, detectTimeout time.Duration) *Manager {
	return &Manager{prefs: prefs, detector: detector, detectTimeout: detectTimeout}
}

func (m *Manager) get(ctx context.Context, visitorID, key string) string {
	v, ok, err := m.prefs.Get(ctx, visitorID, key)
	if err != nil {
		log.Printf("WARN: Failed to read preference %s for visitor %s: %v", key, visitorID, err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// Resolve brings a visitor from Uninitialized to a ready state. It never
// fails and never waits on detection longer than the detect timeout.
func (m *Manager) Resolve(ctx context.Context, visitorID, clientIP string) State {
	saved := m.get(ctx, visitorID, KeyCurrency)
	if !IsSupported(saved) {
		saved = ""
	}
	if saved != "" && m.get(ctx, visitorID, KeyAutoDetect) == "false" {
		return State{Phase: Manual, Code: saved}
	}

	if detected := m.get(ctx, visitorID, KeyDetected); IsSupported(detected) {
		return State{Phase: Auto, Code: detected}
	}
	return m.detect(ctx, visitorID, clientIP, saved)
}

// detect runs the Detecting phase; it always ends in Auto.
func (m *Manager) detect(ctx context.Context, visitorID, clientIP, saved string) State {
	fallback := saved
	if fallback == "" {
		fallback = DefaultCode
	}
	if m.detector == nil {
		return State{Phase: Auto, Code: fallback}
	}

	detectCtx, cancel := context.WithTimeout(ctx, m.detectTimeout)
	defer cancel()
	code, err := m.detector.Detect(detectCtx, clientIP)
	if err != nil || !IsSupported(code) {
		log.Printf("WARN: Currency detection for visitor %s failed, using %s: %v", visitorID, fallback, err)
		return State{Phase: Auto, Code: fallback}
	}

	if err := m.prefs.Set(ctx, visitorID, KeyDetected, code); err != nil {
		log.Printf("WARN: Failed to remember detected currency for visitor %s: %v", visitorID, err)
	}
	return State{Phase: Auto, Code: code}
}

// Select records an explicit choice and disables auto-detection for the
// visitor.
func (m *Manager) Select(ctx context.Context, visitorID, code string) (State, error) {
	if !IsSupported(code) {
		return State{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
	}
	if err := m.prefs.Set(ctx, visitorID, KeyCurrency, code); err != nil {
		return State{}, fmt.Errorf("currency: save selection: %w", err)
	}
	if err := m.prefs.Set(ctx, visitorID, KeyAutoDetect, "false"); err != nil {
		return State{}, fmt.Errorf("currency: disable auto-detect: %w", err)
	}
	return State{Phase: Manual, Code: code}, nil
}

// ResetAutoDetect forgets the visitor's choice and detection result, then
// runs detection again.
func (m *Manager) ResetAutoDetect(ctx context.Context, visitorID, clientIP string) (State, error) {
	if err := m.prefs.Remove(ctx, visitorID, KeyCurrency, KeyAutoDetect, KeyDetected); err != nil {
		return State{}, fmt.Errorf("currency: reset preferences: %w", err)
	}
	return m.detect(ctx, visitorID, clientIP, ""), nil
}

package model

import (
	"fmt"
	"strings"
)

// Importance is the ordinal importance level of a record. It is the stored
// representation; Score gives the numeric mapping used in scoring math.
type Importance int

const (
	Trivial Importance = iota
	Low
	Medium
	High
	Critical
)

var importanceNames = [...]string{"trivial", "low", "medium", "high", "critical"}

var importanceScores = [...]float64{0.1, 0.3, 0.5, 0.7, 0.9}

// String returns the lowercase level name.
func (i Importance) String() string {
	if i < Trivial || i > Critical {
		return fmt.Sprintf("importance(%d)", int(i))
	}
	return importanceNames[i]
}

// Score maps the level onto [0,1] for transient scoring math.
func (i Importance) Score() float64 {
	return importanceScores[i.Clamp()]
}

// Clamp bounds i to [Trivial, Critical].
func (i Importance) Clamp() Importance {
	if i < Trivial {
		return Trivial
	}
	if i > Critical {
		return Critical
	}
	return i
}

// Raise moves the level up by n steps, saturating at Critical.
func (i Importance) Raise(n int) Importance {
	return (i + Importance(n)).Clamp()
}

// AtLeast returns the higher of i and floor.
func (i Importance) AtLeast(floor Importance) Importance {
	if i < floor {
		return floor
	}
	return i
}

// AtMost returns the lower of i and ceil.
func (i Importance) AtMost(ceil Importance) Importance {
	if i > ceil {
		return ceil
	}
	return i
}

// ParseImportance accepts a level name ("high") or its legacy priority alias
// ("normal").
func ParseImportance(s string) (Importance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trivial":
		return Trivial, nil
	case "low":
		return Low, nil
	case "medium", "normal":
		return Medium, nil
	case "high":
		return High, nil
	case "critical":
		return Critical, nil
	}
	return Trivial, fmt.Errorf("%w: unknown importance %q", ErrInvalidInput, s)
}

// MarshalText encodes the level as its name.
func (i Importance) MarshalText() ([]byte, error) {
	if i < Trivial || i > Critical {
		return nil, fmt.Errorf("%w: importance out of range: %d", ErrInvalidInput, int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText decodes a level name.
func (i *Importance) UnmarshalText(b []byte) error {
	v, err := ParseImportance(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

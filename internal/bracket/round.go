package bracket

import (
	"database/sql/driver"
	"fmt"
)

// Round is ordered: R64 < R32 < S16 < E8 < F4 < Champ.
type Round int

const (
	R64 Round = iota + 1
	R32
	S16
	E8
	F4
	Champ
)

var Rounds = []Round{R64, R32, S16, E8, F4, Champ}

var roundCodes = map[Round]string{
	R64:   "R64",
	R32:   "R32",
	S16:   "S16",
	E8:    "E8",
	F4:    "F4",
	Champ: "CHAMP",
}

var roundLabels = map[Round]string{
	R64:   "Round of 64",
	R32:   "Round of 32",
	S16:   "Sweet 16",
	E8:    "Elite 8",
	F4:    "Final Four",
	Champ: "Championship",
}

func ParseRound(s string) (Round, error) {
	for r, code := range roundCodes {
		if code == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown round %q", s)
}

func (r Round) String() string {
	if code, ok := roundCodes[r]; ok {
		return code
	}
	return fmt.Sprintf("Round(%d)", int(r))
}

func (r Round) Label() string {
	return roundLabels[r]
}

func (r Round) Valid() bool {
	_, ok := roundCodes[r]
	return ok
}

// Regional rounds are played inside a single region.
func (r Round) Regional() bool {
	return r >= R64 && r <= E8
}

// MatchesPerRegion is only meaningful for regional rounds.
func (r Round) MatchesPerRegion() int {
	if !r.Regional() {
		return 0
	}
	return 8 >> (int(r) - 1)
}

// Previous returns the round feeding r, or 0 for R64.
func (r Round) Previous() Round {
	if r <= R64 {
		return 0
	}
	return r - 1
}

func (r Round) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid round %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Round) UnmarshalText(text []byte) error {
	parsed, err := ParseRound(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Round) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid round %d", int(r))
	}
	return r.String(), nil
}

func (r *Round) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Round", src)
	}
}

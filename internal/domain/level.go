package domain

import "strings"

// Neonatal intensive care capability, increasing with acuity.
type NICULevel string

const (
	LevelI   NICULevel = "Level I"
	LevelII  NICULevel = "Level II"
	LevelIII NICULevel = "Level III"
	LevelIV  NICULevel = "Level IV"
)

var levelTokens = map[string]NICULevel{
	"I":   LevelI,
	"II":  LevelII,
	"III": LevelIII,
	"IV":  LevelIV,
	"1":   LevelI,
	"2":   LevelII,
	"3":   LevelIII,
	"4":   LevelIV,
}

// ParseNICULevel accepts "III", "3", "Level III" or "level 3".
// It returns false for anything else.
func ParseNICULevel(s string) (NICULevel, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "LEVEL"))

	lvl, ok := levelTokens[s]
	return lvl, ok
}

// Ptr returns a pointer to a copy of the level.
func (l NICULevel) Ptr() *NICULevel { return &l }

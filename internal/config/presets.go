package config

import "sort"

type Preset struct {
	SpeedMS int
	Caret   string
	Summary string
}

var Presets = map[string]Preset{
	"slow":    {SpeedMS: 350, Summary: "hesitant, two-finger typing"},
	"human":   {SpeedMS: 200, Summary: "relaxed human typist"},
	"fast":    {SpeedMS: 80, Summary: "touch typist"},
	"hacker":  {SpeedMS: 40, Caret: "█", Summary: "movie terminal"},
	"instant": {SpeedMS: 1, Summary: "no visible delay"},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

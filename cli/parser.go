package cli

import (
	"strings"
)

// Command is one parsed script line.
type Command struct {
	Verb string
	Args []string
}

// Arg returns argument i or "".
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

var directionExpansions = map[string]string{
	"n":     "up",
	"s":     "down",
	"e":     "right",
	"w":     "left",
	"north": "up",
	"south": "down",
	"east":  "right",
	"west":  "left",
	"u":     "up",
	"d":     "down",
	"r":     "right",
	"up":    "up",
	"down":  "down",
	"left":  "left",
	"right": "right",
}

var verbAliases = map[string]string{
	"l":        "look",
	"status":   "look",
	"go":       "walk",
	"move":     "walk",
	"run":      "sprint",
	"dash":     "sprint",
	"z":        "wait",
	"sleep":    "rest",
	"speak":    "talk",
	"chat":     "talk",
	"interact": "talk",
	"c":        "choose",
	"pick":     "choose",
	"leave":    "bye",
	"goodbye":  "bye",
	"i":        "inventory",
	"inv":      "inventory",
	"wear":     "equip",
	"wield":    "equip",
	"remove":   "unequip",
	"drink":    "use",
	"quaff":    "use",
	"q":        "quests",
	"journal":  "quests",
	"battle":   "fight",
	"hit":      "attack",
	"strike":   "attack",
	"guard":    "defend",
	"block":    "defend",
	"flee":     "retreat",
	"ok":       "continue",
	"travel":   "enter",
}

// Parse splits a script line into a verb and arguments. A bare direction
// is shorthand for walking one step that way.
func Parse(input string) Command {
	words := strings.Fields(strings.TrimSpace(input))
	if len(words) == 0 {
		return Command{}
	}
	verb := strings.ToLower(words[0])
	args := words[1:]

	if dir, ok := directionExpansions[verb]; ok && len(args) <= 1 {
		return Command{Verb: "walk", Args: append([]string{dir}, args...)}
	}
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}
	if (verb == "walk" || verb == "sprint") && len(args) > 0 {
		if dir, ok := directionExpansions[strings.ToLower(args[0])]; ok {
			args = append([]string{dir}, args[1:]...)
		}
	}
	return Command{Verb: verb, Args: args}
}

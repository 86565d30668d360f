package bindings

import (
	"fmt"
	"strings"
)

// canonical modifier order
var modifierOrder = []string{"ctrl", "alt", "shift", "meta"}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
	"meta":    "meta",
	"cmd":     "meta",
	"command": "meta",
	"super":   "meta",
	"win":     "meta",
}

var keyAliases = map[string]string{
	"`":          "backtick",
	"grave":      "backtick",
	"+":          "plus",
	"=":          "equal",
	"-":          "minus",
	"esc":        "escape",
	"del":        "delete",
	"enter":      "enter",
	"ret":        "return",
	" ":          "space",
	"[":          "bracketleft",
	"]":          "bracketright",
	";":          "semicolon",
	"'":          "apostrophe",
	"\\":         "backslash",
	"arrowleft":  "left",
	"arrowright": "right",
	"arrowup":    "up",
	"arrowdown":  "down",
}

// Normalize canonicalizes a trigger token: lower case, trimmed, aliases
// resolved and modifiers ordered ctrl+alt+shift+meta+<key>.
func Normalize(token string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(token))
	if raw == "" {
		return "", fmt.Errorf("empty trigger token")
	}
	if raw == "+" {
		return "plus", nil
	}
	var parts []string
	if strings.HasSuffix(raw, "++") {
		// "shift++" names the plus key with a modifier
		parts = append(strings.Split(strings.TrimSuffix(raw, "++"), "+"), "+")
	} else {
		parts = strings.Split(raw, "+")
	}

	modifiers := make(map[string]bool)
	key := ""
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", fmt.Errorf("malformed trigger token %q", token)
		}
		if mod, ok := modifierAliases[part]; ok {
			modifiers[mod] = true
			continue
		}
		if key != "" {
			return "", fmt.Errorf("trigger token %q names more than one key", token)
		}
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		key = part
	}
	if key == "" {
		// a lone modifier is itself a key
		if len(modifiers) != 1 {
			return "", fmt.Errorf("trigger token %q has no key", token)
		}
		for mod := range modifiers {
			return mod, nil
		}
	}

	var b strings.Builder
	for _, mod := range modifierOrder {
		if modifiers[mod] {
			b.WriteString(mod)
			b.WriteByte('+')
		}
	}
	b.WriteString(key)
	return b.String(), nil
}

// Split expands a comma-separated list of alternative tokens.
// "plus,equal" yields two tokens; a lone "," names the comma key.
func Split(spec string) []string {
	if strings.TrimSpace(spec) == "," {
		return []string{"comma"}
	}
	var ret []string
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ret = append(ret, part)
		}
	}
	return ret
}

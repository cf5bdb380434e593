package catalog

// Countries maps the house type code read from memory to a display name.
type Countries map[string]string

// DefaultCountries returns the nine playable houses.
func DefaultCountries() Countries {
	return Countries{
		"Americans":     "Americans",
		"Alliance":      "Korea",
		"French":        "French",
		"Germans":       "Germans",
		"British":       "British",
		"Africans":      "Libya",
		"Arabs":         "Iraq",
		"Russians":      "Russians",
		"Confederation": "Cuba",
	}
}

// Lookup returns the display name for code. A miss means the slot is not
// a real player.
func (c Countries) Lookup(code string) (string, bool) {
	if code == "" {
		return "", false
	}
	name, ok := c[code]
	return name, ok
}

// Merge returns a copy of c with override's entries added or replaced.
func (c Countries) Merge(override map[string]string) Countries {
	out := make(Countries, len(c)+len(override))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

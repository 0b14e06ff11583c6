package persistence

import "unicode"

var settingsKeyRunes = []rune{':', '@', '#', '+', '-', '_', '.', '/'}

// SettingsKeyValid returns true if the key is non-empty and contains only unicode letters, digits
// and the characters ':', '@', '#', '+', '-', '_', '.', '/'.
func SettingsKeyValid(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !containsRune(settingsKeyRunes, r) {
			return false
		}
	}
	return true
}

func containsRune(runes []rune, r rune) bool {
	for _, r2 := range runes {
		if r2 == r {
			return true
		}
	}
	return false
}

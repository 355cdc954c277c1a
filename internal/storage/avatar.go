package storage

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var avatarPalette = []string{
	"#1abc9c", "#2ecc71", "#3498db", "#9b59b6",
	"#e67e22", "#e74c3c", "#34495e", "#16a085",
}

// InitialsAvatar renders a data URL holding an SVG circle with the
// person's initials. Used when no profile picture was uploaded.
func InitialsAvatar(firstName, lastName string) string {
	initials := strings.ToUpper(initial(firstName) + initial(lastName))
	if initials == "" {
		initials = "?"
	}

	sum := 0
	for _, r := range firstName + lastName {
		sum += int(r)
	}
	color := avatarPalette[sum%len(avatarPalette)]

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128">`+
			`<circle cx="64" cy="64" r="64" fill="%s"/>`+
			`<text x="50%%" y="50%%" dy=".35em" text-anchor="middle" font-family="Arial, sans-serif" font-size="52" fill="#ffffff">%s</text>`+
			`</svg>`,
		color, initials,
	)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return ""
	}
	return string(r)
}

package zsdl

import (
	"net/url"
	"strings"
)

// Prog is the program identity, used to mark temporary files.
const Prog = "zsdl"

// TempName returns the dot-prefixed sibling name a download is written to
// before it is renamed into place.
func TempName(name string) string {
	return "." + Prog + "." + name
}

// nameFromHref returns the percent-decoded final path segment of href.
func nameFromHref(href string) (string, error) {

	u, err := url.Parse(href)

	if err != nil {
		return "", err
	}

	parts := strings.Split(u.Path, "/")

	return parts[len(parts)-1], nil
}

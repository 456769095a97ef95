package zsdl

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

type (

	// DerivedLink is the download target recovered from a storage page.
	// Href may be relative and must be resolved against the page URL.
	DerivedLink struct {
		Href string
		Name string
	}

	// formula holds the seven literals captured from the script template,
	// decoded and ready for evaluation.
	formula struct {
		a       int64
		str     string
		start   int64
		length  int64
		urlHead string
		power   int64
		urlTail string
	}
)

// The pages embed a script computing the real link at render time:
//
//	<script type="text/javascript">
//	    var a = 42;
//	    document.getElementById('dlbutton').omg = "asdasd".substr(0, 3);
//	    var b = document.getElementById('dlbutton').omg.length;
//	    document.getElementById('dlbutton').href = "/d/uN1qu3/"+(Math.pow(a, 3)+b)+"/file.ext";
//	</script>
//
// Exactly this shape is matched, nothing more general.
var scriptRe = regexp.MustCompile(
	`^var\s+a\s*=\s*(\d+);[\s\S]*` +
		`\.\s*omg\s*=\s*("[^\r\n]*")\s*\.\s*substr\s*\(\s*(\d+)\s*,\s*(\d+)\s*\)\s*;[\s\S]*` +
		`\.href\s*=\s*("[^\r\n]*")\s*\+\s*` +
		`\(\s*Math\s*\.\s*pow\s*\(\s*a\s*,\s*(\d+)\s*\)\s*\+\s*b\s*\)\s*\+\s*` +
		`("[^\r\n]*")\s*;`)

// DeriveLink scans page for the first script matching the link template,
// evaluates the embedded formula and returns the reconstructed target.
func DeriveLink(page string) (*DerivedLink, error) {

	groups := findScriptTemplate(page)

	if groups == nil {
		return nil, &ParseError{Reason: "no script matches the link template"}
	}

	f, err := decodeFormula(groups)

	if err != nil {
		return nil, err
	}

	href := f.evaluate()

	name, err := nameFromHref(href)

	if err != nil {
		return nil, &ParseError{Reason: "derived href is not a valid URL: " + href}
	}

	return &DerivedLink{Href: href, Name: name}, nil
}

// findScriptTemplate walks the token stream and returns the capture groups
// of the first script text matching the template, or nil.
func findScriptTemplate(page string) []string {

	z := html.NewTokenizer(strings.NewReader(page))
	script := false

	for {
		switch z.Next() {

		case html.ErrorToken:
			// End of document (or unparseable tail), no match found.
			return nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			script = string(name) == "script"

		case html.TextToken:

			if !script {
				continue
			}

			src := strings.TrimSpace(string(z.Text()))

			if m := scriptRe.FindStringSubmatch(src); m != nil {
				return m
			}
		}
	}
}

// decodeFormula evaluates each captured group as a JSON-style literal,
// after expanding \xHH escape sequences.
func decodeFormula(groups []string) (*formula, error) {

	f := new(formula)

	for _, field := range []struct {
		dst interface{}
		lit string
	}{
		{&f.a, groups[1]},
		{&f.str, groups[2]},
		{&f.start, groups[3]},
		{&f.length, groups[4]},
		{&f.urlHead, groups[5]},
		{&f.power, groups[6]},
		{&f.urlTail, groups[7]},
	} {
		if err := json.Unmarshal([]byte(decodeHexEscapes(field.lit)), field.dst); err != nil {
			return nil, &ParseError{Reason: "invalid literal: " + field.lit}
		}
	}

	return f, nil
}

// evaluate computes the href the page script would have assigned.
//
// Only the length of the truncated substring feeds the formula. It is
// intentionally not clamped at zero, a start beyond the string produces a
// negative term exactly like the page's own arithmetic.
func (f *formula) evaluate() string {

	b := int64(utf8.RuneCountInString(f.str)) - f.start

	if f.length < b {
		b = f.length
	}

	// a^power can exceed 64 bits for larger template values.
	computed := new(big.Int).Exp(big.NewInt(f.a), big.NewInt(f.power), nil)
	computed.Add(computed, big.NewInt(b))

	return f.urlHead + computed.String() + f.urlTail
}

// decodeHexEscapes rewrites every \xHH sequence as the JSON escape of that
// character, leaving escaped backslashes intact. Exactly two hex digits are
// recognized, anything else stays as literal text and will fail the later
// literal parse.
func decodeHexEscapes(s string) string {

	var b strings.Builder

	for i := 0; i < len(s); {

		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}

		// Run of backslashes: pairs are escaped backslashes, a trailing
		// odd one may start a \xHH escape.
		j := i
		for j < len(s) && s[j] == '\\' {
			j++
		}

		if (j-i)%2 == 1 && j+2 < len(s) && s[j] == 'x' && isHexDigit(s[j+1]) && isHexDigit(s[j+2]) {

			b.WriteString(s[i : j-1])

			v, _ := strconv.ParseUint(s[j+1:j+3], 16, 8)
			q, _ := json.Marshal(string(rune(v)))
			b.Write(q[1 : len(q)-1])

			i = j + 3
			continue
		}

		b.WriteString(s[i:j])
		i = j
	}

	return b.String()
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

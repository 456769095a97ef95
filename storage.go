package zsdl

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Storage is the resolved download target of a storage page.
type Storage struct {

	// URL of the real resource, absolute.
	URL string

	// Name suggested by the page, the final segment of the derived path.
	Name string
}

// Storage fetches the page at rawURL, derives the obfuscated link from it
// and resolves the link against the page URL.
func (f *Fetcher) Storage(ctx context.Context, rawURL string) (*Storage, error) {

	f.logf(true, "Fetching storage: %s", rawURL)

	req, err := NewRequest(ctx, http.MethodGet, rawURL)

	if err != nil {
		return nil, err
	}

	res, err := f.client().Do(req)

	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: res.StatusCode, Expected: http.StatusOK}
	}

	body, err := io.ReadAll(res.Body)

	if err != nil {
		return nil, err
	}

	link, err := DeriveLink(string(body))

	if err != nil {
		return nil, err
	}

	base, err := url.Parse(rawURL)

	if err != nil {
		return nil, err
	}

	ref, err := url.Parse(link.Href)

	if err != nil {
		return nil, &ParseError{Reason: "derived href is not a valid URL: " + link.Href}
	}

	resolved := base.ResolveReference(ref).String()

	f.logf(true, "Found URL: %s", resolved)
	f.logf(true, "Found name: %s", link.Name)

	return &Storage{URL: resolved, Name: link.Name}, nil
}

// Package navigation provides helpers for safe back-button URLs and
// redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g. "/groups"). Empty
	// allows any safe URL.
	AllowedPrefix string

	// ExcludedSubpaths are rejected subpaths ("/edit", "/delete", ...)
	// that would otherwise loop the user back into an action page.
	ExcludedSubpaths []string

	// Fallback is used when no valid return URL is present.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request. It
// checks the "return" query parameter and form value, rejects open
// redirects and excluded subpaths, and falls back to opts.Fallback.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}

	if ret != "" {
		valid := true
		if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
			valid = false
		}
		for _, excluded := range opts.ExcludedSubpaths {
			if strings.Contains(ret, excluded) {
				valid = false
				break
			}
		}
		if valid {
			return ret
		}
	}

	return opts.Fallback
}

// Common back URL configurations.
var (
	// ApprovalsBackURL returns options for the admin approval queue.
	ApprovalsBackURL = BackURLOptions{
		AllowedPrefix:    "/admin/approvals",
		ExcludedSubpaths: []string{"/approve", "/reject"},
		Fallback:         "/admin/approvals",
	}

	// GroupsBackURL returns options for group pages.
	GroupsBackURL = BackURLOptions{
		AllowedPrefix:    "/groups",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new", "/join", "/leave"},
		Fallback:         "/groups",
	}

	// MembersBackURL returns options for the member directory.
	MembersBackURL = BackURLOptions{
		AllowedPrefix: "/members",
		Fallback:      "/members",
	}

	// BattlePlansBackURL returns options for battle plan pages.
	BattlePlansBackURL = BackURLOptions{
		AllowedPrefix:    "/battleplans",
		ExcludedSubpaths: []string{"/new", "/delete"},
		Fallback:         "/battleplans",
	}

	// LogbookBackURL returns options for group logbook pages.
	LogbookBackURL = BackURLOptions{
		AllowedPrefix:    "/groups",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new"},
		Fallback:         "/groups",
	}
)

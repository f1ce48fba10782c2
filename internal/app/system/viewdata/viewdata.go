// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/disciplo/disciplo/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// SiteName is shown in page headers and titles.
const SiteName = "Disciplo"

// BaseVM contains the common fields every page view model needs.
// Embed it in feature-specific view models:
//
//	type viewData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := viewData{
//	    BaseVM: viewdata.NewBaseVM(r, "Groups", "/dashboard"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from the session middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF token for form submissions
	CSRFToken string
}

// NewBaseVM builds a populated BaseVM for a page. backDefault is used
// for the back button when the request carries no return URL.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)

	return BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
}

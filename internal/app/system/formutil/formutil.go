// Package formutil provides helpers for re-rendering forms with
// validation errors: the user's entered values echoed back, a message
// explaining what went wrong, and the navigation context the template
// needs.
//
// Example:
//
//	type registerData struct {
//		formutil.Base
//		FullName string
//		Email    string
//	}
//
//	data := registerData{FullName: full, Email: email}
//	formutil.SetBase(&data.Base, r, "Register", "/")
//	data.SetError("Email is required.")
//	templates.Render(w, r, "register", data)
package formutil

import (
	"html/template"
	"net/http"

	"github.com/disciplo/disciplo/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// Base holds the common fields of form pages. Embed it in form data structs.
type Base struct {
	Title       string
	IsLoggedIn  bool
	Role        string
	UserName    string
	BackURL     string
	CurrentPath string
	CSRFToken   string
	Error       template.HTML
}

// SetBase populates the common Base fields from the request context.
// backDefault is used when the request carries no return URL.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	role, uname, _, signedIn := authz.UserCtx(r)
	b.Title = title
	b.IsLoggedIn = signedIn
	b.Role = role
	b.UserName = uname
	b.BackURL = httpnav.ResolveBackURL(r, backDefault)
	b.CurrentPath = httpnav.CurrentPath(r)
	b.CSRFToken = csrf.Token(r)
}

// SetError sets the error message shown above the form.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(msg)
}

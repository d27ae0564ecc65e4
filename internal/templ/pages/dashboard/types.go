package dashboard

import "github.com/hypesin/hypes/internal/session"

// PageData contains data for the dashboard.
type PageData struct {
	Name      string
	Email     string
	SignedIn  bool
	CSRFToken string
	Toasts    []session.Toast
}

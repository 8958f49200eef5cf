// Package nav decides which pages a visitor may reach and which
// destinations the navigation bar offers, both derived from the current
// session on every call.
package nav

// Public routes.
const (
	RouteLogin  = "/login"
	RouteSignup = "/signup"
)

// Authenticated routes.
const (
	RouteDashboard  = "/"
	RouteCategories = "/categories"
	RouteBudgets    = "/budgets"
	RouteReports    = "/reports"
)

// Link is one navigation destination.
type Link struct {
	Path   string
	Label  string
	Active bool
}

// authenticatedLinks is the fixed set shown to a logged-in user, in
// display order.
var authenticatedLinks = []Link{
	{Path: RouteDashboard, Label: "Dashboard"},
	{Path: RouteCategories, Label: "Categories"},
	{Path: RouteBudgets, Label: "Budgets"},
	{Path: RouteReports, Label: "Reports"},
}

// AuthenticatedPaths returns the paths reachable only with a session.
func AuthenticatedPaths() []string {
	out := make([]string, len(authenticatedLinks))
	for i, l := range authenticatedLinks {
		out[i] = l.Path
	}
	return out
}

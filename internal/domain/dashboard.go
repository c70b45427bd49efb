package domain

// WindowCount counts records created in the current and previous window.
type WindowCount struct {
	Total    int
	Current  int
	Previous int
}

// DashboardCounts aggregates the raw numbers behind the admin dashboard.
type DashboardCounts struct {
	Cars                 WindowCount
	Enquiries            WindowCount
	ContactedEnquiries   int
	SellRequests         WindowCount
	ApprovedSellRequests int
	Brands               WindowCount
}

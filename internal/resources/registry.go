// Package resources declares every CRUD-able entity type as data. Each
// definition names its schema, collection, business key, media ownership and
// list behavior; the pipeline handler does the rest. Adding a resource means
// adding a declaration here, not writing handlers.
package resources

import "marketplace-service/internal/pipeline"

// All returns every resource definition served under /api/v1.
func All() []pipeline.Resource {
	return []pipeline.Resource{
		Products(),
		Brands(),
		VendorStores(),
		VendorCategories(),
		Orders(),
		DeliveryCharges(),
		PromoCodes(),
		PaymentGateways(),
		Blogs(),
		Stories(),
		Testimonials(),
		Pages(),
		ProductReviews(),
		Wishlists(),
		ContactRequests(),
		Donations(),
		JobPosts(),
		SupportTickets(),
		Settings(),
	}
}

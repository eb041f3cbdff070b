package resources

import "marketplace-service/internal/pipeline"

func ProductReviews() pipeline.Resource {
	return pipeline.Resource{
		Name:         "product-reviews",
		Collection:   "product_reviews",
		SearchField:  "comment",
		FilterFields: []string{"status", "productId", "userId"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "productId", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "userId", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "rating", Kind: pipeline.KindInt, Required: true, Min: 1, Max: 5},
			pipeline.Field{Name: "comment", Kind: pipeline.KindString, MaxLen: 2000},
			pipeline.Field{Name: "status", Kind: pipeline.KindString,
				Enum: []string{"pending", "approved", "rejected"}, Default: "pending"},
		),
	}
}

func Wishlists() pipeline.Resource {
	return pipeline.Resource{
		Name:         "wishlists",
		Collection:   "wishlists",
		FilterFields: []string{"userId", "productId"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "userId", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "productId", Kind: pipeline.KindString, Required: true},
		),
	}
}

// ContactRequests come from the public storefront; create is unauthenticated.
func ContactRequests() pipeline.Resource {
	return pipeline.Resource{
		Name:         "contact-requests",
		Collection:   "contact_requests",
		SearchField:  "name",
		FilterFields: []string{"status"},
		PublicCreate: true,
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "name", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "email", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "phone", Kind: pipeline.KindString, MaxLen: 30},
			pipeline.Field{Name: "subject", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "message", Kind: pipeline.KindString, Required: true, MaxLen: 5000},
			pipeline.Field{Name: "status", Kind: pipeline.KindString,
				Enum: []string{"new", "seen", "resolved"}, Default: "new"},
		),
	}
}

func Donations() pipeline.Resource {
	return pipeline.Resource{
		Name:         "donations",
		Collection:   "donations",
		SearchField:  "donorName",
		FilterFields: []string{"status", "campaign"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "campaign", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "donorName", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "donorEmail", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "donorPhone", Kind: pipeline.KindString, MaxLen: 30},
			pipeline.Field{Name: "amount", Kind: pipeline.KindFloat, Required: true, Min: 1},
			pipeline.Field{Name: "anonymous", Kind: pipeline.KindBool, Default: false},
			pipeline.Field{Name: "message", Kind: pipeline.KindString, MaxLen: 1000},
			pipeline.Field{Name: "status", Kind: pipeline.KindString,
				Enum: []string{"pending", "paid", "failed"}, Default: "pending"},
		),
	}
}

package resources

import "marketplace-service/internal/pipeline"

func JobPosts() pipeline.Resource {
	return pipeline.Resource{
		Name:         "job-posts",
		Collection:   "job_posts",
		BusinessKey:  "slug",
		SearchField:  "title",
		FilterFields: []string{"status", "department", "location"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "title", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "slug", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "department", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "location", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "description", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "salaryRange", Kind: pipeline.KindString, MaxLen: 100},
			pipeline.Field{Name: "deadline", Kind: pipeline.KindTime},
			pipeline.Field{Name: "status", Kind: pipeline.KindString,
				Enum: []string{"draft", "open", "closed"}, Default: "draft"},
		),
	}
}

// SupportTickets may carry a user attachment; the object is retained on
// delete because ticket history can be exported before removal.
func SupportTickets() pipeline.Resource {
	return pipeline.Resource{
		Name:         "support-tickets",
		Collection:   "support_tickets",
		BusinessKey:  "ticketNumber",
		MediaFolder:  "support-tickets",
		OwnsMedia:    false,
		SearchField:  "subject",
		FilterFields: []string{"status", "userId", "priority"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "ticketNumber", Kind: pipeline.KindString, Required: true, MaxLen: 64},
			pipeline.Field{Name: "userId", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "subject", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "message", Kind: pipeline.KindString, Required: true, MaxLen: 5000},
			pipeline.Field{Name: "priority", Kind: pipeline.KindString,
				Enum: []string{"low", "medium", "high"}, Default: "medium"},
			pipeline.Field{Name: "attachment", Kind: pipeline.KindString, Media: true},
			pipeline.Field{Name: "status", Kind: pipeline.KindString,
				Enum: []string{"open", "pending", "closed"}, Default: "open"},
		),
	}
}

// Settings is the key/value store behind storefront configuration. The
// unique key index gives upsert-by-key semantics: a second create of the
// same key is a DuplicateKeyError and callers patch instead.
func Settings() pipeline.Resource {
	return pipeline.Resource{
		Name:         "settings",
		Collection:   "settings",
		BusinessKey:  "key",
		MediaFolder:  "settings",
		OwnsMedia:    false,
		SearchField:  "key",
		FilterFields: []string{"group"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "key", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "value", Kind: pipeline.KindString, Required: true, MaxLen: 5000},
			pipeline.Field{Name: "group", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "asset", Kind: pipeline.KindString, Media: true},
		),
	}
}

package resources

import (
	"go.mongodb.org/mongo-driver/bson"

	"marketplace-service/internal/pipeline"
)

func VendorStores() pipeline.Resource {
	return pipeline.Resource{
		Name:         "vendor-stores",
		Collection:   "vendor_stores",
		BusinessKey:  "slug",
		MediaFolder:  "vendor-stores",
		OwnsMedia:    true,
		SearchField:  "name",
		FilterFields: []string{"status", "ownerId"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "name", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "slug", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "ownerId", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "description", Kind: pipeline.KindString, MaxLen: 2000},
			pipeline.Field{Name: "phone", Kind: pipeline.KindString, MaxLen: 30},
			pipeline.Field{Name: "address", Kind: pipeline.KindString, MaxLen: 500},
			pipeline.Field{Name: "logo", Kind: pipeline.KindString, Media: true},
			pipeline.Field{Name: "banner", Kind: pipeline.KindString, Media: true},
			pipeline.Field{Name: "status", Kind: pipeline.KindString,
				Enum: []string{"active", "inactive", "suspended"}, Default: "active"},
		),
	}
}

// VendorCategories is the drag-and-drop-ordered list: it carries a rank
// field and exposes the reorder endpoint, and lists ascending by rank.
func VendorCategories() pipeline.Resource {
	return pipeline.Resource{
		Name:         "vendor-categories",
		Collection:   "vendor_categories",
		BusinessKey:  "slug",
		MediaFolder:  "vendor-categories",
		OwnsMedia:    true,
		SearchField:  "name",
		FilterFields: []string{"status"},
		Orderable:    true,
		DefaultSort:  bson.D{{Key: "rank", Value: 1}},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "name", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "slug", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "icon", Kind: pipeline.KindString, Media: true},
			pipeline.Field{Name: "rank", Kind: pipeline.KindInt},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

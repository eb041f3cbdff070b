package resources

import "marketplace-service/internal/pipeline"

var statusActiveInactive = []string{"active", "inactive"}

func Products() pipeline.Resource {
	return pipeline.Resource{
		Name:        "products",
		Collection:  "products",
		BusinessKey: "slug",
		MediaFolder: "products",
		OwnsMedia:   true,
		SearchField: "name",
		FilterFields: []string{
			"status", "brand", "category", "store",
		},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "name", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "slug", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "description", Kind: pipeline.KindString, MaxLen: 5000},
			pipeline.Field{Name: "price", Kind: pipeline.KindFloat, Required: true, Min: 0.01},
			pipeline.Field{Name: "discountPrice", Kind: pipeline.KindFloat},
			pipeline.Field{Name: "stock", Kind: pipeline.KindInt},
			pipeline.Field{Name: "brand", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "category", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "store", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "tags", Kind: pipeline.KindStringSlice, MaxLen: 20},
			pipeline.Field{Name: "image", Kind: pipeline.KindString, Required: true, Media: true},
			pipeline.Field{Name: "gallery", Kind: pipeline.KindStringSlice},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

func Brands() pipeline.Resource {
	return pipeline.Resource{
		Name:         "brands",
		Collection:   "brands",
		BusinessKey:  "slug",
		MediaFolder:  "brands",
		OwnsMedia:    true,
		SearchField:  "name",
		FilterFields: []string{"status"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "name", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "slug", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "logo", Kind: pipeline.KindString, Required: true, Media: true},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

package resources

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"

	"marketplace-service/internal/pipeline"
)

func Blogs() pipeline.Resource {
	return pipeline.Resource{
		Name:         "blogs",
		Collection:   "blogs",
		BusinessKey:  "slug",
		MediaFolder:  "blogs",
		OwnsMedia:    true,
		SearchField:  "title",
		FilterFields: []string{"status", "category"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "title", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "slug", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "body", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "category", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "author", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "cover", Kind: pipeline.KindString, Required: true, Media: true},
			pipeline.Field{Name: "tags", Kind: pipeline.KindStringSlice, MaxLen: 20},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

// Stories are short-lived promotional slides. ?active=true narrows the list
// to active stories whose expiry is still in the future.
func Stories() pipeline.Resource {
	return pipeline.Resource{
		Name:         "stories",
		Collection:   "stories",
		MediaFolder:  "stories",
		OwnsMedia:    true,
		SearchField:  "title",
		FilterFields: []string{"status"},
		ListHook: func(c *fiber.Ctx, f *pipeline.Filter) error {
			if c.Query("active") != "true" {
				return nil
			}
			f.Eq["status"] = "active"
			f.Extra = append(f.Extra, bson.M{"expiryDate": bson.M{"$gt": time.Now().UTC()}})
			return nil
		},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "title", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "image", Kind: pipeline.KindString, Required: true, Media: true},
			pipeline.Field{Name: "duration", Kind: pipeline.KindInt, Required: true, Min: 1, Max: 60},
			pipeline.Field{Name: "expiryDate", Kind: pipeline.KindTime, Required: true},
			pipeline.Field{Name: "link", Kind: pipeline.KindString, MaxLen: 500},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

func Testimonials() pipeline.Resource {
	return pipeline.Resource{
		Name:         "testimonials",
		Collection:   "testimonials",
		MediaFolder:  "testimonials",
		OwnsMedia:    true,
		SearchField:  "customerName",
		FilterFields: []string{"status"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "customerName", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "designation", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "quote", Kind: pipeline.KindString, Required: true, MaxLen: 2000},
			pipeline.Field{Name: "rating", Kind: pipeline.KindInt, Min: 1, Max: 5},
			pipeline.Field{Name: "avatar", Kind: pipeline.KindString, Media: true},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

func Pages() pipeline.Resource {
	return pipeline.Resource{
		Name:         "pages",
		Collection:   "pages",
		BusinessKey:  "slug",
		SearchField:  "title",
		FilterFields: []string{"status"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "title", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "slug", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "body", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "metaTitle", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "metaDescription", Kind: pipeline.KindString, MaxLen: 500},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

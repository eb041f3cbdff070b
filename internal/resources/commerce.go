package resources

import "marketplace-service/internal/pipeline"

func Orders() pipeline.Resource {
	return pipeline.Resource{
		Name:         "orders",
		Collection:   "orders",
		BusinessKey:  "orderNumber",
		SearchField:  "customerName",
		FilterFields: []string{"status", "userId", "store"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "orderNumber", Kind: pipeline.KindString, Required: true, MaxLen: 64},
			pipeline.Field{Name: "userId", Kind: pipeline.KindString, Required: true},
			pipeline.Field{Name: "customerName", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "phone", Kind: pipeline.KindString, MaxLen: 30},
			pipeline.Field{Name: "shippingAddress", Kind: pipeline.KindString, Required: true, MaxLen: 500},
			pipeline.Field{Name: "items", Kind: pipeline.KindStringSlice, Required: true},
			pipeline.Field{Name: "subtotal", Kind: pipeline.KindFloat, Required: true, Min: 0.01},
			pipeline.Field{Name: "deliveryCharge", Kind: pipeline.KindFloat},
			pipeline.Field{Name: "total", Kind: pipeline.KindFloat, Required: true, Min: 0.01},
			pipeline.Field{Name: "store", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "paymentMethod", Kind: pipeline.KindString, MaxLen: 64},
			pipeline.Field{Name: "status", Kind: pipeline.KindString,
				Enum:    []string{"pending", "processing", "shipped", "delivered", "cancelled"},
				Default: "pending"},
		),
	}
}

// DeliveryCharges accepts an array body on POST: every element is validated
// before any insert, then inserted as one batch.
func DeliveryCharges() pipeline.Resource {
	return pipeline.Resource{
		Name:         "delivery-charges",
		Collection:   "delivery_charges",
		BusinessKey:  "area",
		SearchField:  "area",
		FilterFields: []string{"status", "city"},
		AllowBulk:    true,
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "area", Kind: pipeline.KindString, Required: true, MaxLen: 255},
			pipeline.Field{Name: "city", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "charge", Kind: pipeline.KindFloat, Required: true, Min: 0.01},
			pipeline.Field{Name: "etaDays", Kind: pipeline.KindInt, Max: 60},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

func PromoCodes() pipeline.Resource {
	return pipeline.Resource{
		Name:         "promo-codes",
		Collection:   "promo_codes",
		BusinessKey:  "code",
		SearchField:  "code",
		FilterFields: []string{"status", "discountType"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "code", Kind: pipeline.KindString, Required: true, MaxLen: 64},
			pipeline.Field{Name: "title", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "discountType", Kind: pipeline.KindString, Required: true,
				Enum: []string{"percentage", "fixed"}},
			pipeline.Field{Name: "discountValue", Kind: pipeline.KindFloat, Required: true, Min: 0.01},
			pipeline.Field{Name: "minOrderValue", Kind: pipeline.KindFloat},
			pipeline.Field{Name: "maxUsagePerUser", Kind: pipeline.KindInt},
			pipeline.Field{Name: "expiryDate", Kind: pipeline.KindTime, Required: true},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "active"},
		),
	}
}

// PaymentGateways stores per-tenant gateway configuration. Credential fields
// are opaque strings; the replaced logo is deliberately retained because the
// same asset may be referenced from CMS pages.
func PaymentGateways() pipeline.Resource {
	return pipeline.Resource{
		Name:         "payment-gateways",
		Collection:   "payment_gateways",
		BusinessKey:  "provider",
		MediaFolder:  "payment-gateways",
		OwnsMedia:    false,
		SearchField:  "provider",
		FilterFields: []string{"status"},
		Schema: pipeline.NewSchema(
			pipeline.Field{Name: "provider", Kind: pipeline.KindString, Required: true, MaxLen: 64},
			pipeline.Field{Name: "displayName", Kind: pipeline.KindString, MaxLen: 255},
			pipeline.Field{Name: "apiKey", Kind: pipeline.KindString, MaxLen: 512},
			pipeline.Field{Name: "apiSecret", Kind: pipeline.KindString, MaxLen: 512},
			pipeline.Field{Name: "sandbox", Kind: pipeline.KindBool, Default: true},
			pipeline.Field{Name: "logo", Kind: pipeline.KindString, Media: true},
			pipeline.Field{Name: "status", Kind: pipeline.KindString, Enum: statusActiveInactive, Default: "inactive"},
		),
	}
}

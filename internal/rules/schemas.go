package rules

// Per-entity rule schemas. These are the data tables the generic
// engine interprets; adding an entity means adding a schema here, not
// a new request class.

const (
	maxImageBytes = 5 << 20
	maxAudioBytes = 100 << 20
)

// ContentSchema validates content item submissions. metadata.ad_days is
// required only for ads and must be within [1, 90]. Slugs are derived
// before validation, so the uniqueness rule sees the final value.
var ContentSchema = Schema{
	{Name: "type", Constraints: []Constraint{
		Required(),
		Enum("article", "announcement", "notice", "ad", "schedule"),
	}},
	{Name: "title", Constraints: []Constraint{Required(), String(255)}},
	{Name: "slug", Constraints: []Constraint{Required(), String(255), Unique("content.slug")}},
	{Name: "body", Constraints: []Constraint{Nullable(), String(100000)}},
	{Name: "excerpt", Constraints: []Constraint{Nullable(), String(500)}},
	{Name: "category", Constraints: []Constraint{Nullable(), String(100)}},
	{Name: "publish_date", Constraints: []Constraint{Nullable(), Date()}},
	{Name: "expiry_date", Constraints: []Constraint{Nullable(), Date(), DateAfter("publish_date")}},
	{Name: "metadata.ad_days", Constraints: []Constraint{
		RequiredIf("type", "ad"),
		Numeric(1, 90),
	}},
	{Name: "metadata.image", Constraints: []Constraint{
		Nullable(),
		File("image", maxImageBytes, "image/jpeg", "image/png", "image/webp"),
	}},
	{Name: "metadata.audio", Constraints: []Constraint{
		Nullable(),
		File("audio", maxAudioBytes, "audio/mpeg", "audio/mp4", "audio/ogg"),
	}},
	{Name: "region_ids", Constraints: []Constraint{Nullable(), Array(), Each(String(36))}},
}

// CouponSchema validates coupon submissions. discount_value is required
// precisely when the discount type carries an amount.
var CouponSchema = Schema{
	{Name: "title", Constraints: []Constraint{Required(), String(255)}},
	{Name: "description", Constraints: []Constraint{Nullable(), String(2000)}},
	{Name: "code", Constraints: []Constraint{Nullable(), String(50), Unique("coupon.code")}},
	{Name: "discount_type", Constraints: []Constraint{
		Required(),
		Enum("percentage", "fixed_amount", "free_item"),
	}},
	{Name: "discount_value", Constraints: []Constraint{
		RequiredIf("discount_type", "percentage", "fixed_amount"),
		Numeric(0.01, 0),
	}},
	{Name: "start_date", Constraints: []Constraint{Nullable(), Date()}},
	{Name: "end_date", Constraints: []Constraint{Nullable(), Date(), DateAfter("start_date")}},
}

// CampaignSchema validates email campaign submissions.
var CampaignSchema = Schema{
	{Name: "name", Constraints: []Constraint{Required(), String(255)}},
	{Name: "subject", Constraints: []Constraint{Required(), String(255)}},
	{Name: "body", Constraints: []Constraint{Required(), String(500000)}},
	{Name: "from_address", Constraints: []Constraint{Required(), String(255)}},
	{Name: "scheduled_for", Constraints: []Constraint{Nullable(), Date()}},
}

// CustomerSchema validates CRM customer submissions.
var CustomerSchema = Schema{
	{Name: "name", Constraints: []Constraint{Required(), String(255)}},
	{Name: "email", Constraints: []Constraint{Nullable(), String(255)}},
	{Name: "phone", Constraints: []Constraint{Nullable(), String(50)}},
	{Name: "company", Constraints: []Constraint{Nullable(), String(255)}},
	{Name: "address", Constraints: []Constraint{Nullable(), String(500)}},
	{Name: "notes", Constraints: []Constraint{Nullable(), String(5000)}},
}

// DealSchema validates CRM deal submissions. Stage is a whitelist, not
// an adjacency-checked progression.
var DealSchema = Schema{
	{Name: "title", Constraints: []Constraint{Required(), String(255)}},
	{Name: "customer_id", Constraints: []Constraint{Required(), String(36)}},
	{Name: "value", Constraints: []Constraint{Nullable(), Numeric(0, 0)}},
	{Name: "stage", Constraints: []Constraint{
		Nullable(),
		Enum("new", "contacted", "qualified", "proposal", "won", "lost"),
	}},
}

// TaskSchema validates CRM task submissions.
var TaskSchema = Schema{
	{Name: "title", Constraints: []Constraint{Required(), String(255)}},
	{Name: "description", Constraints: []Constraint{Nullable(), String(2000)}},
	{Name: "due_date", Constraints: []Constraint{Nullable(), Date()}},
	{Name: "assigned_to", Constraints: []Constraint{Nullable(), String(36)}},
	{Name: "customer_id", Constraints: []Constraint{Nullable(), String(36)}},
}

// InteractionSchema validates logged customer interactions.
var InteractionSchema = Schema{
	{Name: "kind", Constraints: []Constraint{Required(), Enum("note", "call", "email", "visit")}},
	{Name: "summary", Constraints: []Constraint{Required(), String(2000)}},
	{Name: "occurred_at", Constraints: []Constraint{Nullable(), Date()}},
}

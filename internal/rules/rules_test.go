package rules_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/rules"
)

// fakeUnique records the last lookup and returns a canned answer.
type fakeUnique struct {
	unique bool
	err    error

	scope    string
	value    string
	ignoreID uuid.UUID
}

func (f *fakeUnique) IsUnique(_ context.Context, scope, value string, _, ignoreID uuid.UUID) (bool, error) {
	f.scope = scope
	f.value = value
	f.ignoreID = ignoreID
	return f.unique, f.err
}

func validContentPayload() rules.Payload {
	return rules.Payload{
		"type":  "article",
		"title": "Road Closure on Main Street",
		"slug":  "road-closure-on-main-street",
		"body":  "The street is closed next week.",
	}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *rules.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *rules.ValidationError, got %v", err)
	}
	return verr.Fields
}

func TestValidate_CreateValid(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	in := rules.Input{Mode: rules.ModeCreate, Payload: validContentPayload()}
	if err := v.Validate(context.Background(), rules.ContentSchema, in); err != nil {
		t.Fatalf("expected valid payload to pass, got %v", err)
	}
}

func TestValidate_CreateMissingRequired(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	p := validContentPayload()
	delete(p, "title")
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}

	fields := validationFields(t, v.Validate(context.Background(), rules.ContentSchema, in))
	if fields["title"] != "required" {
		t.Errorf("title message: got %q, want %q", fields["title"], "required")
	}
}

func TestValidate_AdDaysRequiredOnlyForAds(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	// An article does not need ad_days.
	in := rules.Input{Mode: rules.ModeCreate, Payload: validContentPayload()}
	if err := v.Validate(ctx, rules.ContentSchema, in); err != nil {
		t.Fatalf("article without ad_days should pass, got %v", err)
	}

	// An ad does.
	p := validContentPayload()
	p["type"] = "ad"
	in = rules.Input{Mode: rules.ModeCreate, Payload: p}
	fields := validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
	if fields["metadata.ad_days"] != "required" {
		t.Errorf("ad_days message: got %q, want %q", fields["metadata.ad_days"], "required")
	}

	// Supplying it clears the failure.
	p.Set("metadata.ad_days", float64(14))
	in = rules.Input{Mode: rules.ModeCreate, Payload: p}
	if err := v.Validate(ctx, rules.ContentSchema, in); err != nil {
		t.Fatalf("ad with ad_days should pass, got %v", err)
	}
}

func TestValidate_AdDaysRange(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	for _, tt := range []struct {
		name string
		days float64
		want string
	}{
		{"below minimum", 0.5, "must be at least 1"},
		{"above maximum", 120, "must be at most 90"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := validContentPayload()
			p["type"] = "ad"
			p.Set("metadata.ad_days", tt.days)
			in := rules.Input{Mode: rules.ModeCreate, Payload: p}

			fields := validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
			if fields["metadata.ad_days"] != tt.want {
				t.Errorf("got %q, want %q", fields["metadata.ad_days"], tt.want)
			}
		})
	}
}

func TestValidate_ExpiryMustFollowPublish(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	p := validContentPayload()
	p["publish_date"] = "2026-03-10"
	p["expiry_date"] = "2026-03-01"
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}

	fields := validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
	if fields["expiry_date"] != "must be after publish_date" {
		t.Errorf("got %q, want %q", fields["expiry_date"], "must be after publish_date")
	}

	// Equal dates fail too.
	p["expiry_date"] = "2026-03-10"
	fields = validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
	if fields["expiry_date"] != "must be after publish_date" {
		t.Errorf("equal dates: got %q, want failure", fields["expiry_date"])
	}

	// A later date passes.
	p["expiry_date"] = "2026-03-11"
	if err := v.Validate(ctx, rules.ContentSchema, in); err != nil {
		t.Fatalf("later expiry should pass, got %v", err)
	}
}

func TestValidate_ExpiryAgainstPersistedPublishDate(t *testing.T) {
	// On update, cross-field constraints consult the persisted value
	// when the other field is not resubmitted.
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	in := rules.Input{
		Mode:     rules.ModeUpdate,
		Payload:  rules.Payload{"expiry_date": "2026-03-01"},
		Existing: rules.Payload{"publish_date": "2026-03-10"},
	}

	fields := validationFields(t, v.Validate(context.Background(), rules.ContentSchema, in))
	if fields["expiry_date"] != "must be after publish_date" {
		t.Errorf("got %q, want %q", fields["expiry_date"], "must be after publish_date")
	}
}

func TestValidate_FirstFailurePerField(t *testing.T) {
	// A value that is both not a string and would fail later checks
	// reports only the type failure.
	v := rules.NewValidator(&fakeUnique{unique: false}, nil)

	p := validContentPayload()
	p["slug"] = 42
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}

	fields := validationFields(t, v.Validate(context.Background(), rules.ContentSchema, in))
	if fields["slug"] != "must be a string" {
		t.Errorf("got %q, want %q", fields["slug"], "must be a string")
	}
}

func TestValidate_Deterministic(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	p := validContentPayload()
	p["type"] = "ad"
	p["expiry_date"] = "not-a-date"
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}

	first := validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
	for i := 0; i < 5; i++ {
		again := validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
		if len(again) != len(first) {
			t.Fatalf("run %d: field count changed: %v vs %v", i, again, first)
		}
		for k, msg := range first {
			if again[k] != msg {
				t.Errorf("run %d: field %s: got %q, want %q", i, k, again[k], msg)
			}
		}
	}
}

func TestValidate_UniqueSlug(t *testing.T) {
	checker := &fakeUnique{unique: false}
	v := rules.NewValidator(checker, nil)

	ignoreID := uuid.New()
	in := rules.Input{
		Mode:     rules.ModeCreate,
		Payload:  validContentPayload(),
		IgnoreID: ignoreID,
	}

	fields := validationFields(t, v.Validate(context.Background(), rules.ContentSchema, in))
	if fields["slug"] != "already taken" {
		t.Errorf("got %q, want %q", fields["slug"], "already taken")
	}
	if checker.scope != "content.slug" {
		t.Errorf("scope: got %q, want %q", checker.scope, "content.slug")
	}
	if checker.ignoreID != ignoreID {
		t.Errorf("ignoreID not forwarded: got %v, want %v", checker.ignoreID, ignoreID)
	}
}

func TestValidate_UniqueNormalizesValue(t *testing.T) {
	checker := &fakeUnique{unique: true}
	v := rules.NewValidator(checker, nil)

	p := rules.Payload{
		"title":         "Spring Sale",
		"code":          "  SPRING10 ",
		"discount_type": "free_item",
	}
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}
	if err := v.Validate(context.Background(), rules.CouponSchema, in); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if checker.value != "spring10" {
		t.Errorf("lookup value: got %q, want %q", checker.value, "spring10")
	}
}

func TestValidate_UniqueCheckerFailure(t *testing.T) {
	infra := errors.New("connection refused")
	v := rules.NewValidator(&fakeUnique{err: infra}, nil)

	in := rules.Input{Mode: rules.ModeCreate, Payload: validContentPayload()}
	err := v.Validate(context.Background(), rules.ContentSchema, in)
	if !errors.Is(err, infra) {
		t.Fatalf("expected wrapped infrastructure error, got %v", err)
	}
	var verr *rules.ValidationError
	if errors.As(err, &verr) {
		t.Error("infrastructure failure must not surface as a validation error")
	}
}

func TestValidate_UpdateSkipsAbsentRequired(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	// Only the body is resubmitted; required title and slug are
	// untouched and must not fail.
	in := rules.Input{
		Mode:     rules.ModeUpdate,
		Payload:  rules.Payload{"body": "updated"},
		Existing: validContentPayload(),
	}
	if err := v.Validate(context.Background(), rules.ContentSchema, in); err != nil {
		t.Fatalf("partial update should pass, got %v", err)
	}
}

func TestValidate_UpdateAdKeepsPersistedAdDays(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	existing := validContentPayload()
	existing["type"] = "ad"
	existing.Set("metadata.ad_days", float64(30))

	// Retitling an ad without resubmitting ad_days is fine.
	in := rules.Input{
		Mode:     rules.ModeUpdate,
		Payload:  rules.Payload{"title": "Updated Ad"},
		Existing: existing,
	}
	if err := v.Validate(ctx, rules.ContentSchema, in); err != nil {
		t.Fatalf("update without ad_days should pass, got %v", err)
	}

	// Explicitly nulling it is not: ad_days is not nullable for ads.
	in.Payload = rules.Payload{"metadata": map[string]any{"ad_days": nil}}
	fields := validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
	if fields["metadata.ad_days"] != "required" {
		t.Errorf("got %q, want %q", fields["metadata.ad_days"], "required")
	}
}

func TestValidate_ExplicitNullClearsNullable(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	in := rules.Input{
		Mode:     rules.ModeUpdate,
		Payload:  rules.Payload{"category": nil},
		Existing: validContentPayload(),
	}
	if err := v.Validate(context.Background(), rules.ContentSchema, in); err != nil {
		t.Fatalf("explicit null on nullable field should pass, got %v", err)
	}
}

func TestValidate_ExplicitNullOnRequiredFails(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	in := rules.Input{
		Mode:     rules.ModeUpdate,
		Payload:  rules.Payload{"title": nil},
		Existing: validContentPayload(),
	}
	fields := validationFields(t, v.Validate(context.Background(), rules.ContentSchema, in))
	if fields["title"] != "required" {
		t.Errorf("got %q, want %q", fields["title"], "required")
	}
}

func TestValidate_EnumRejectsUnknown(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	p := validContentPayload()
	p["type"] = "podcast"
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}

	fields := validationFields(t, v.Validate(context.Background(), rules.ContentSchema, in))
	want := "must be one of: article, announcement, notice, ad, schedule"
	if fields["type"] != want {
		t.Errorf("got %q, want %q", fields["type"], want)
	}
}

func TestValidate_StringMaxLength(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	p := validContentPayload()
	p["title"] = string(long)
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}

	fields := validationFields(t, v.Validate(context.Background(), rules.ContentSchema, in))
	if fields["title"] != "must be at most 255 characters" {
		t.Errorf("got %q", fields["title"])
	}
}

func TestValidate_DateFormats(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	for _, tt := range []struct {
		name  string
		value any
		valid bool
	}{
		{"date only", "2026-03-01", true},
		{"rfc3339", "2026-03-01T08:30:00Z", true},
		{"time.Time", time.Now(), true},
		{"garbage", "next tuesday", false},
		{"number", 20260301, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := validContentPayload()
			p["publish_date"] = tt.value
			in := rules.Input{Mode: rules.ModeCreate, Payload: p}

			err := v.Validate(ctx, rules.ContentSchema, in)
			if tt.valid && err != nil {
				t.Errorf("expected pass, got %v", err)
			}
			if !tt.valid {
				fields := validationFields(t, err)
				if fields["publish_date"] != "must be a date" {
					t.Errorf("got %q, want %q", fields["publish_date"], "must be a date")
				}
			}
		})
	}
}

func TestValidate_DiscountValueRequiredByType(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	p := rules.Payload{"title": "Free Coffee", "discount_type": "free_item"}
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}
	if err := v.Validate(ctx, rules.CouponSchema, in); err != nil {
		t.Fatalf("free_item without value should pass, got %v", err)
	}

	p["discount_type"] = "percentage"
	fields := validationFields(t, v.Validate(ctx, rules.CouponSchema, in))
	if fields["discount_value"] != "required" {
		t.Errorf("got %q, want %q", fields["discount_value"], "required")
	}

	p["discount_value"] = float64(15)
	if err := v.Validate(ctx, rules.CouponSchema, in); err != nil {
		t.Fatalf("percentage with value should pass, got %v", err)
	}
}

func TestValidate_ArrayElements(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	p := validContentPayload()
	p["region_ids"] = "not-an-array"
	in := rules.Input{Mode: rules.ModeCreate, Payload: p}
	fields := validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
	if fields["region_ids"] != "must be an array" {
		t.Errorf("got %q, want %q", fields["region_ids"], "must be an array")
	}

	p["region_ids"] = []any{uuid.New().String(), 7}
	fields = validationFields(t, v.Validate(ctx, rules.ContentSchema, in))
	if fields["region_ids"] != "must be a string" {
		t.Errorf("got %q, want %q", fields["region_ids"], "must be a string")
	}
}

func TestValidate_FileDescriptor(t *testing.T) {
	v := rules.NewValidator(&fakeUnique{unique: true}, nil)
	ctx := context.Background()

	for _, tt := range []struct {
		name string
		file map[string]any
		want string
	}{
		{
			"valid image",
			map[string]any{"name": "photo.jpg", "size": float64(1 << 20), "mime": "image/jpeg"},
			"",
		},
		{
			"oversized",
			map[string]any{"name": "photo.jpg", "size": float64(6 << 20), "mime": "image/jpeg"},
			"image must be at most 5242880 bytes",
		},
		{
			"wrong type",
			map[string]any{"name": "doc.pdf", "size": float64(1024), "mime": "application/pdf"},
			"unsupported image type",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := validContentPayload()
			p.Set("metadata.image", tt.file)
			in := rules.Input{Mode: rules.ModeCreate, Payload: p}

			err := v.Validate(ctx, rules.ContentSchema, in)
			if tt.want == "" {
				if err != nil {
					t.Errorf("expected pass, got %v", err)
				}
				return
			}
			fields := validationFields(t, err)
			if fields["metadata.image"] != tt.want {
				t.Errorf("got %q, want %q", fields["metadata.image"], tt.want)
			}
		})
	}
}

func TestPayload_GetDistinguishesAbsentFromNil(t *testing.T) {
	p := rules.Payload{"category": nil}

	if _, ok := p.Get("category"); !ok {
		t.Error("explicit null should report present")
	}
	if _, ok := p.Get("missing"); ok {
		t.Error("absent key should report not present")
	}
	if _, ok := p.Get("metadata.ad_days"); ok {
		t.Error("absent nested key should report not present")
	}
}

func TestPayload_SetNestedPath(t *testing.T) {
	p := rules.Payload{}
	p.Set("metadata.ad_days", float64(7))

	v, ok := p.Get("metadata.ad_days")
	if !ok || v != float64(7) {
		t.Errorf("got %v (present=%v), want 7", v, ok)
	}
}

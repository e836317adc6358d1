package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/category"
	"github.com/xenking/mabel-naski/internal/domain/checkout"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/settings"
	"github.com/xenking/mabel-naski/internal/media"
)

func writeJSON(w http.ResponseWriter, status int, enc func(e *jx.Encoder)) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	enc(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(e.Bytes())
	return err
}

func money(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func timestamp(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func optTimestamp(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	timestamp(e, *t)
}

func strs(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	money(e, p.Price)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("in_stock")
	e.Bool(p.InStock())
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("material")
	e.Str(p.Material)
	e.FieldStart("dimensions")
	e.Str(p.Dimensions)
	e.FieldStart("color")
	e.Str(p.Color)
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("images")
	strs(e, p.Images)
	e.FieldStart("order_count")
	e.Int(p.OrderCount)
	e.FieldStart("created_at")
	timestamp(e, p.CreatedAt)
	e.FieldStart("updated_at")
	timestamp(e, p.UpdatedAt)
	e.ObjEnd()
}

func encodePage(e *jx.Encoder, page *product.Page) {
	e.ObjStart()
	e.FieldStart("products")
	e.ArrStart()
	for _, p := range page.Products {
		encodeProduct(e, p)
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Int(page.Total)
	e.FieldStart("page")
	e.Int(page.Page)
	e.FieldStart("page_size")
	e.Int(page.PageSize)
	e.ObjEnd()
}

func encodeCategory(e *jx.Encoder, c category.Category) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("created_at")
	timestamp(e, c.CreatedAt)
	e.ObjEnd()
}

func encodeCategories(e *jx.Encoder, cs []category.Category) {
	e.ArrStart()
	for _, c := range cs {
		encodeCategory(e, c)
	}
	e.ArrEnd()
}

func encodeCoupon(e *jx.Encoder, c coupon.Coupon) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("code")
	e.Str(c.Code)
	e.FieldStart("discount_type")
	e.Str(string(c.DiscountType))
	e.FieldStart("discount_value")
	money(e, c.DiscountValue)
	e.FieldStart("min_purchase")
	money(e, c.MinPurchase)
	e.FieldStart("applicable_products")
	if c.ApplicableProducts == nil {
		e.Null()
	} else {
		strs(e, c.ApplicableProducts)
	}
	e.FieldStart("max_uses")
	e.Int(c.MaxUses)
	e.FieldStart("used_count")
	e.Int(c.UsedCount)
	e.FieldStart("valid_from")
	timestamp(e, c.ValidFrom)
	e.FieldStart("valid_until")
	optTimestamp(e, c.ValidUntil)
	e.FieldStart("is_active")
	e.Bool(c.Active)
	e.FieldStart("created_at")
	timestamp(e, c.CreatedAt)
	e.ObjEnd()
}

func encodeItems(e *jx.Encoder, items []order.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		money(e, it.Price)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("total")
		money(e, it.Total())
		e.FieldStart("image")
		e.Str(it.Image)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("order_number")
	e.Str(o.OrderNumber)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("items")
	encodeItems(e, o.Items)
	e.FieldStart("subtotal")
	money(e, o.Subtotal)
	e.FieldStart("discount")
	money(e, o.Discount)
	e.FieldStart("total")
	money(e, o.Total)
	e.FieldStart("payment")
	money(e, o.Payment)
	e.FieldStart("change")
	money(e, o.Change)
	e.FieldStart("coupon_code")
	e.Str(o.CouponCode)
	e.FieldStart("customer_name")
	e.Str(o.CustomerName)
	e.FieldStart("customer_phone")
	e.Str(o.CustomerPhone)
	e.FieldStart("cashier_id")
	e.Str(o.CashierID)
	e.FieldStart("created_at")
	timestamp(e, o.CreatedAt)
	e.FieldStart("confirmed_at")
	optTimestamp(e, o.ConfirmedAt)
	e.FieldStart("confirmed_by")
	e.Str(o.ConfirmedBy)
	e.FieldStart("whatsapp_sent_at")
	optTimestamp(e, o.WhatsAppSentAt)
	e.ObjEnd()
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for i := range orders {
		encodeOrder(e, &orders[i])
	}
	e.ArrEnd()
}

func encodeSession(e *jx.Encoder, v checkout.View) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(v.ID)
	e.FieldStart("state")
	e.Str(v.State.String())
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range v.Lines {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("price")
		money(e, l.Price)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("stock")
		e.Int(l.Stock)
		e.FieldStart("total")
		money(e, l.Total())
		e.FieldStart("image")
		e.Str(l.Image)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	money(e, v.Subtotal)
	e.FieldStart("discount")
	money(e, v.Discount)
	e.FieldStart("total")
	money(e, v.Total)
	e.FieldStart("coupon_code")
	e.Str(v.CouponCode)
	if v.LastError != nil {
		_, msg := statusOf(v.LastError)
		e.FieldStart("last_error")
		e.Str(msg)
	}
	if v.Result != nil {
		e.FieldStart("order")
		encodeOrder(e, v.Result.Order)
		e.FieldStart("change")
		money(e, v.Result.Change)
	}
	e.ObjEnd()
}

func encodeVerdict(e *jx.Encoder, v coupon.Verdict) {
	e.ObjStart()
	switch v := v.(type) {
	case coupon.Valid:
		e.FieldStart("valid")
		e.Bool(true)
		e.FieldStart("code")
		e.Str(v.Code)
		e.FieldStart("discount")
		money(e, v.Discount)
	case coupon.Invalid:
		e.FieldStart("valid")
		e.Bool(false)
		e.FieldStart("reason")
		e.Str(string(v.Reason))
		e.FieldStart("message")
		e.Str(v.Message)
	}
	e.ObjEnd()
}

func encodeSettings(e *jx.Encoder, s *settings.Settings) {
	fields := []struct {
		name, value string
	}{
		{"site_name", s.SiteName},
		{"site_description", s.SiteDescription},
		{"logo_url", s.LogoURL},
		{"whatsapp_number", s.WhatsAppNumber},
		{"email", s.Email},
		{"phone", s.Phone},
		{"address", s.Address},
		{"instagram_url", s.InstagramURL},
		{"facebook_url", s.FacebookURL},
		{"tiktok_url", s.TikTokURL},
		{"primary_color", s.PrimaryColor},
		{"secondary_color", s.SecondaryColor},
		{"accent_color", s.AccentColor},
		{"theme_mode", s.ThemeMode},
		{"hero_title", s.HeroTitle},
		{"hero_subtitle", s.HeroSubtitle},
		{"about_content", s.AboutContent},
		{"footer_text", s.FooterText},
	}
	e.ObjStart()
	for _, f := range fields {
		e.FieldStart(f.name)
		e.Str(f.value)
	}
	e.FieldStart("updated_at")
	timestamp(e, s.UpdatedAt)
	e.ObjEnd()
}

func encodeUsers(e *jx.Encoder, users []auth.User) {
	e.ArrStart()
	for _, u := range users {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(u.ID)
		e.FieldStart("email")
		e.Str(u.Email)
		e.FieldStart("full_name")
		e.Str(u.FullName)
		e.FieldStart("phone")
		e.Str(u.Phone)
		e.FieldStart("role")
		e.Str(string(u.Role))
		e.FieldStart("created_at")
		timestamp(e, u.CreatedAt)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeImage(e *jx.Encoder, img *media.Image) {
	e.ObjStart()
	e.FieldStart("url")
	e.Str(img.URL)
	e.FieldStart("thumbnail_url")
	e.Str(img.ThumbnailURL)
	e.ObjEnd()
}

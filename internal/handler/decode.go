package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/settings"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest("invalid " + name)
	}
	return n, nil
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Material    string          `json:"material"`
	Dimensions  string          `json:"dimensions"`
	Color       string          `json:"color"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
}

func (req productRequest) product(id string) product.Product {
	return product.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Material:    req.Material,
		Dimensions:  req.Dimensions,
		Color:       req.Color,
		Image:       req.Image,
		Images:      req.Images,
	}
}

type categoryRequest struct {
	Name string `json:"name"`
}

type couponRequest struct {
	Code               string          `json:"code"`
	DiscountType       string          `json:"discount_type"`
	DiscountValue      decimal.Decimal `json:"discount_value"`
	MinPurchase        decimal.Decimal `json:"min_purchase"`
	ApplicableProducts []string        `json:"applicable_products"`
	MaxUses            int             `json:"max_uses"`
	ValidFrom          *time.Time      `json:"valid_from"`
	ValidUntil         *time.Time      `json:"valid_until"`
	Active             *bool           `json:"is_active"`
}

func (req couponRequest) coupon(id string) coupon.Coupon {
	c := coupon.Coupon{
		ID:                 id,
		Code:               req.Code,
		DiscountType:       coupon.DiscountType(req.DiscountType),
		DiscountValue:      req.DiscountValue,
		MinPurchase:        req.MinPurchase,
		ApplicableProducts: req.ApplicableProducts,
		MaxUses:            req.MaxUses,
		ValidUntil:         req.ValidUntil,
		Active:             req.Active == nil || *req.Active,
	}
	if req.ValidFrom != nil {
		c.ValidFrom = *req.ValidFrom
	}
	return c
}

type checkoutRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Items         []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type couponCodeRequest struct {
	Code string `json:"code"`
}

type commitRequest struct {
	Payment decimal.Decimal `json:"payment"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// settingsRequest mirrors settings.Patch field for field.
type settingsRequest struct {
	SiteName        *string `json:"site_name"`
	SiteDescription *string `json:"site_description"`
	LogoURL         *string `json:"logo_url"`
	WhatsAppNumber  *string `json:"whatsapp_number"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	InstagramURL    *string `json:"instagram_url"`
	FacebookURL     *string `json:"facebook_url"`
	TikTokURL       *string `json:"tiktok_url"`
	PrimaryColor    *string `json:"primary_color"`
	SecondaryColor  *string `json:"secondary_color"`
	AccentColor     *string `json:"accent_color"`
	ThemeMode       *string `json:"theme_mode"`
	HeroTitle       *string `json:"hero_title"`
	HeroSubtitle    *string `json:"hero_subtitle"`
	AboutContent    *string `json:"about_content"`
	FooterText      *string `json:"footer_text"`
}

func (req settingsRequest) patch() settings.Patch {
	return settings.Patch(req)
}

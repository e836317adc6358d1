// Package settings holds the single-row site configuration edited from the
// back office.
package settings

import (
	"context"
	"strings"
	"time"

	"github.com/xenking/mabel-naski/internal/domain/receipt"
)

// Settings is the storefront identity and contact information.
type Settings struct {
	SiteName        string
	SiteDescription string
	LogoURL         string
	WhatsAppNumber  string
	Email           string
	Phone           string
	Address         string
	InstagramURL    string
	FacebookURL     string
	TikTokURL       string
	PrimaryColor    string
	SecondaryColor  string
	AccentColor     string
	ThemeMode       string
	HeroTitle       string
	HeroSubtitle    string
	AboutContent    string
	FooterText      string
	UpdatedAt       time.Time
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	SiteName        *string
	SiteDescription *string
	LogoURL         *string
	WhatsAppNumber  *string
	Email           *string
	Phone           *string
	Address         *string
	InstagramURL    *string
	FacebookURL     *string
	TikTokURL       *string
	PrimaryColor    *string
	SecondaryColor  *string
	AccentColor     *string
	ThemeMode       *string
	HeroTitle       *string
	HeroSubtitle    *string
	AboutContent    *string
	FooterText      *string
}

// Apply copies every set field of p onto s.
func (s *Settings) Apply(p Patch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&s.SiteName, p.SiteName)
	set(&s.SiteDescription, p.SiteDescription)
	set(&s.LogoURL, p.LogoURL)
	set(&s.WhatsAppNumber, p.WhatsAppNumber)
	set(&s.Email, p.Email)
	set(&s.Phone, p.Phone)
	set(&s.Address, p.Address)
	set(&s.InstagramURL, p.InstagramURL)
	set(&s.FacebookURL, p.FacebookURL)
	set(&s.TikTokURL, p.TikTokURL)
	set(&s.PrimaryColor, p.PrimaryColor)
	set(&s.SecondaryColor, p.SecondaryColor)
	set(&s.AccentColor, p.AccentColor)
	set(&s.ThemeMode, p.ThemeMode)
	set(&s.HeroTitle, p.HeroTitle)
	set(&s.HeroSubtitle, p.HeroSubtitle)
	set(&s.AboutContent, p.AboutContent)
	set(&s.FooterText, p.FooterText)
}

// ReceiptHeader returns the store identity printed on receipts.
func (s Settings) ReceiptHeader() receipt.Header {
	h := receipt.Header{
		StoreName: s.SiteName,
		Tagline:   s.SiteDescription,
		Address:   s.Address,
		Phone:     s.Phone,
	}
	if h.StoreName == "" {
		h.StoreName = receipt.DefaultHeader.StoreName
	}
	if h.Tagline == "" {
		h.Tagline = receipt.DefaultHeader.Tagline
	}
	return h
}

// NormalizePhone reduces a phone number to digits in international form as
// required by wa.me links: 0812... becomes 62812...
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}

// Repository reads and writes the settings row.
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

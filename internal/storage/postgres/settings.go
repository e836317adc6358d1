package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/mabel-naski/internal/domain/settings"
)

const (
	getSettingsSQL = `SELECT site_name, site_description, logo_url, whatsapp_number, email, phone,
		address, instagram_url, facebook_url, tiktok_url, primary_color, secondary_color,
		accent_color, theme_mode, hero_title, hero_subtitle, about_content, footer_text, updated_at
		FROM site_settings WHERE id = 1`

	updateSettingsSQL = `UPDATE site_settings SET
		site_name = $1, site_description = $2, logo_url = $3, whatsapp_number = $4, email = $5,
		phone = $6, address = $7, instagram_url = $8, facebook_url = $9, tiktok_url = $10,
		primary_color = $11, secondary_color = $12, accent_color = $13, theme_mode = $14,
		hero_title = $15, hero_subtitle = $16, about_content = $17, footer_text = $18,
		updated_at = now()
		WHERE id = 1
		RETURNING updated_at`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Repository backed by PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the settings row seeded by the schema.
func (r *SettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	var s settings.Settings
	err := r.pool.QueryRow(ctx, getSettingsSQL).Scan(
		&s.SiteName, &s.SiteDescription, &s.LogoURL, &s.WhatsAppNumber, &s.Email, &s.Phone,
		&s.Address, &s.InstagramURL, &s.FacebookURL, &s.TikTokURL, &s.PrimaryColor, &s.SecondaryColor,
		&s.AccentColor, &s.ThemeMode, &s.HeroTitle, &s.HeroSubtitle, &s.AboutContent, &s.FooterText,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	return &s, nil
}

// Update writes every field of s.
func (r *SettingsRepository) Update(ctx context.Context, s *settings.Settings) error {
	err := r.pool.QueryRow(ctx, updateSettingsSQL,
		s.SiteName, s.SiteDescription, s.LogoURL, s.WhatsAppNumber, s.Email, s.Phone,
		s.Address, s.InstagramURL, s.FacebookURL, s.TikTokURL, s.PrimaryColor, s.SecondaryColor,
		s.AccentColor, s.ThemeMode, s.HeroTitle, s.HeroSubtitle, s.AboutContent, s.FooterText,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	return nil
}

package db

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/soundrift/soundrift/internal/auth"
	"github.com/soundrift/soundrift/internal/models"
	"github.com/soundrift/soundrift/internal/track"
)

// Connect opens the catalog database. MySQL DSNs (anything with a tcp()
// host) use the mysql driver; everything else is treated as a sqlite path,
// which keeps local development and CI dependency-free.
func Connect(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.Contains(dsn, "@tcp(") {
		dialector = mysql.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(&models.User{}, &track.Track{}, &track.DistributionJob{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Seed installs the demo dataset when the database is empty: one account
// per role plus a couple of live tracks for the demo artist. Matches the
// fixture the product ships for fresh installs.
func Seed(gdb *gorm.DB) error {
	var userCount int64
	if err := gdb.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	hash, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	users := []models.User{
		{Name: "Demo Artist", Email: "artist@soundrift.dev", PasswordHash: hash, Role: models.RoleUser, Plan: models.PlanArtist},
		{Name: "Sarah Chen", Email: "sarah@soundrift.dev", PasswordHash: hash, Role: models.RoleSupport},
		{Name: "Mike Rodriguez", Email: "mike@soundrift.dev", PasswordHash: hash, Role: models.RoleSupport},
		{Name: "Site Admin", Email: "admin@soundrift.dev", PasswordHash: hash, Role: models.RoleAdmin},
		{Name: "Site Owner", Email: "owner@soundrift.dev", PasswordHash: hash, Role: models.RoleOwner, Plan: models.PlanPro},
	}
	if err := gdb.Create(&users).Error; err != nil {
		return err
	}

	artist := users[0]
	tracks := []track.Track{
		{
			ID:     track.NewID(),
			Title:  "Midnight Drive",
			Artist: artist.Name,
			Album:  "City Lights",
			Genre:  "Electronic",
			UserID: artist.ID,
		},
		{
			ID:     track.NewID(),
			Title:  "Sunrise",
			Artist: artist.Name,
			Album:  "City Lights",
			Genre:  "Electronic",
			UserID: artist.ID,
		},
	}
	for i := range tracks {
		tracks[i].Status = track.StatusLive
		tracks[i].Streams = int64(1200 * (i + 1))
		tracks[i].EarningsCents = int64(480 * (i + 1))
		tracks[i].Platforms = track.DefaultPlatforms()
	}
	return gdb.Create(&tracks).Error
}

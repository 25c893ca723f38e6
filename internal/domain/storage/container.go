package storage

import (
	"hanar/internal/domain/adminroles"
	"hanar/internal/domain/businesses"
	"hanar/internal/domain/dashboard"
	"hanar/internal/domain/listingpacks"
	"hanar/internal/domain/listings"
	"hanar/internal/domain/notifications"
	"hanar/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	Users         users.Store
	Businesses    businesses.Store
	Listings      listings.Store
	ListingPacks  listingpacks.Store
	AdminRoles    adminroles.Store
	Notifications notifications.Store
	Dashboard     dashboard.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Users:         users.NewRepository(db),
		Businesses:    businesses.NewRepository(db),
		Listings:      listings.NewRepository(db),
		ListingPacks:  listingpacks.NewRepository(db),
		AdminRoles:    adminroles.NewRepository(db),
		Notifications: notifications.NewRepository(db),
		Dashboard:     dashboard.NewRepository(db),
	}
}

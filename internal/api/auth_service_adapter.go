package api

import (
	"github.com/velora-app/velora/internal/services"
)

type adminStoreAdapter struct {
	store Store
}

func newAdminStoreAdapter(store Store) services.AdminStore {
	return &adminStoreAdapter{store: store}
}

func (a *adminStoreAdapter) FindAdminByEmail(email string) (*services.AdminUser, error) {
	u, err := a.store.FindAdminByEmail(email)
	if err != nil || u == nil {
		return nil, err
	}
	return &services.AdminUser{ID: u.ID, Email: u.Email, PassHash: u.PassHash, CreatedAt: u.CreatedAt}, nil
}

func (a *adminStoreAdapter) AddAdmin(u *services.AdminUser) error {
	if u == nil {
		return services.NewInvalidError("admin user required")
	}
	return a.store.AddAdmin(&AdminUser{ID: u.ID, Email: u.Email, PassHash: u.PassHash, CreatedAt: u.CreatedAt})
}

var _ services.AdminStore = (*adminStoreAdapter)(nil)

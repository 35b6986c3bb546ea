package repository

import (
	"time"

	"github.com/volunteerhub/volunteerhub/internal/auth"
	"github.com/volunteerhub/volunteerhub/internal/model"
)

// Demo credentials for the seeded accounts. These exist so the demo can
// be driven without registering first; they are not secrets.
const (
	SeedAdminEmail     = "admin@volunteerhub.org"
	SeedAdminPassword  = "admin-demo-2024"
	SeedHREmail        = "hr@volunteerhub.org"
	SeedHRPassword     = "hr-demo-2024"
	SeedLeadEmail      = "lead@volunteerhub.org"
	SeedLeadPassword   = "lead-demo-2024"
	SeedVolunteerEmail = "volunteer@volunteerhub.org"
	SeedVolunteerPass  = "volunteer-demo-2024"
)

type seedSpec struct {
	id        string
	email     string
	name      string
	role      model.Role
	password  string
	verified  bool
	twoFactor bool
	sso       bool
	provider  string
}

var seedSpecs = []seedSpec{
	{id: "usr_seed_admin", email: SeedAdminEmail, name: "Amara Okafor", role: model.RoleAdmin, password: SeedAdminPassword, verified: true},
	{id: "usr_seed_hr", email: SeedHREmail, name: "Jonas Keller", role: model.RoleHR, password: SeedHRPassword, verified: true, sso: true, provider: "google"},
	{id: "usr_seed_lead", email: SeedLeadEmail, name: "Priya Raman", role: model.RoleLeadProject, password: SeedLeadPassword, verified: true, twoFactor: true},
	{id: "usr_seed_volunteer", email: SeedVolunteerEmail, name: "Tomás Silva", role: model.RoleVolunteer, password: SeedVolunteerPass, verified: true},
	{id: "usr_seed_pending", email: "pending@volunteerhub.org", name: "Mia Nowak", role: model.RoleUnassigned, password: "pending-demo-2024", verified: false},
}

// SeedUsers builds the fixture user set with freshly hashed passwords.
func SeedUsers() ([]model.User, error) {
	created := time.Now().Add(-30 * 24 * time.Hour)
	users := make([]model.User, 0, len(seedSpecs))
	for _, s := range seedSpecs {
		hash, err := auth.HashPassword(s.password, nil)
		if err != nil {
			return nil, err
		}
		users = append(users, model.User{
			ID:               s.id,
			Email:            s.email,
			Name:             s.name,
			Role:             s.role,
			Status:           model.UserStatusActive,
			EmailVerified:    s.verified,
			TwoFactorEnabled: s.twoFactor,
			SSOLinked:        s.sso,
			SSOProvider:      s.provider,
			PasswordHash:     hash,
			CreatedAt:        created,
		})
	}
	return users, nil
}

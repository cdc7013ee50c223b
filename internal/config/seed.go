package config

// SeedConfig names the super admin created by cmd/seed.
type SeedConfig struct {
	Email    string
	Password string
	Name     string
}

func LoadSeedConfig() SeedConfig {
	return SeedConfig{
		Email:    must("SEED_ADMIN_EMAIL"),
		Password: must("SEED_ADMIN_PASSWORD"),
		Name:     envStr("SEED_ADMIN_NAME", "Super Admin"),
	}
}

package config

// MailConfig configures the SMTP mailer used by the notification consumer.
type MailConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string // receives new-lead notifications
}

func LoadMailConfig() MailConfig {
	host := envStr("SMTP_HOST", "")
	return MailConfig{
		Enabled:    envBool("MAIL_ENABLED", host != ""),
		Host:       host,
		Port:       envInt("SMTP_PORT", 587),
		Username:   envStr("SMTP_USER", ""),
		Password:   envStr("SMTP_PASSWORD", ""),
		From:       envStr("SMTP_FROM", "no-reply@localhost"),
		AdminEmail: envStr("ADMIN_NOTIFY_EMAIL", ""),
	}
}

package config

// QueueConfig configures the RabbitMQ notification queue.  When Enabled is
// false no consumer is started and events are handed to the mailer inline.
type QueueConfig struct {
	Enabled bool
	URL     string
	Name    string
}

func LoadQueueConfig() QueueConfig {
	url := envStr("RABBITMQ_URL", envStr("AMQP_URL", ""))
	return QueueConfig{
		Enabled: envBool("QUEUE_ENABLED", url != ""),
		URL:     url,
		Name:    envStr("QUEUE_NAME", "admin.notifications"),
	}
}

// Package config loads chatprune configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file named by CHATPRUNE_CONFIG_FILE, and CHATPRUNE_*
// environment variables.
//
// Database:
//
//	CHATPRUNE_DATABASE_DRIVER="postgres"   # postgres or sqlite3
//	CHATPRUNE_DATABASE_URL="postgres://localhost/forum?sslmode=disable"
//	CHATPRUNE_DATABASE_MAX_CONNS="20"
//
// Kick jobs:
//
//	CHATPRUNE_JOBS_BACKENDS="redis,kafka"  # redis, kafka, local
//	CHATPRUNE_JOBS_KICK_DELAY="5s"
//	CHATPRUNE_KAFKA_BROKERS="kafka-1:9092,kafka-2:9092"
//
// Trigger consumer:
//
//	CHATPRUNE_WORKER_CONSUME_TRIGGERS="true"
//	CHATPRUNE_KAFKA_TRIGGER_TOPIC="chatprune.triggers"
//	CHATPRUNE_TRIGGER_RETRY_MAX_ATTEMPTS="3"
//
// Site settings:
//
//	CHATPRUNE_SETTINGS_SOURCE="redis"      # redis or static
//	CHATPRUNE_CHAT_ENABLED="true"
//	CHATPRUNE_CHAT_ALLOWED_GROUPS="3|11"
//
// The same keys in YAML form:
//
//	database:
//	  driver: postgres
//	  url: postgres://localhost/forum
//	jobs:
//	  backends: [redis]
//	  kick_delay: 5s
//	kafka:
//	  trigger_retry:
//	    max_attempts: 5
//	    initial_delay: 1s
//	settings:
//	  chat_allowed_groups: "3|11"
//
// Validate runs struct-tag validation (go-playground/validator) followed by
// the cross-section rules, e.g. Kafka brokers are required once the Kafka
// backend or the trigger consumer is enabled.
package config

package config

import (
	"errors"
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort     string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost     string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName    string `env:"SERVICE_NAME" envDefault:"geeta-saathi"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// PostgreSQL 配置，只保存完成引导后的用户记录
	PostgreSQLEnabled  bool   `env:"POSTGRESQL_ENABLED" envDefault:"true"`
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"geeta"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"10"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"50"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"gs"`

	// RabbitMQ 配置
	RabbitMQEnabled  bool   `env:"RABBITMQ_ENABLED" envDefault:"true"`
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // 非开发环境必填
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"60"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"30"`

	// 会话状态存储：redis 或 memory（本地调试用）
	SessionStore      string `env:"SESSION_STORE" envDefault:"redis"`
	SessionTTLHours   int    `env:"SESSION_TTL_HOURS" envDefault:"720"`
	SessionCacheLimit int    `env:"SESSION_CACHE_LIMIT" envDefault:"10000"`

	// 验证码配置
	// OTP_MODE=demo 时任意 6 位数字都可以通过，sms 时走真实短信
	OTPMode              string `env:"OTP_MODE" envDefault:"demo"`
	OTPDemoLatencyMS     int    `env:"OTP_DEMO_LATENCY_MS" envDefault:"800"`
	OTPResendSeconds     int    `env:"OTP_RESEND_SECONDS" envDefault:"30"`
	CaptchaExpireSeconds int    `env:"CAPTCHA_EXPIRE_SECONDS" envDefault:"300"`
	CaptchaMaxDaily      int    `env:"CAPTCHA_MAX_DAILY" envDefault:"10"`
	PhoneCountryCode     string `env:"PHONE_COUNTRY_CODE" envDefault:"+91"`

	// 短信服务配置
	// AccessKey 通过阿里云 SDK 的环境变量自动获取：
	// ALIBABA_CLOUD_ACCESS_KEY_ID 和 ALIBABA_CLOUD_ACCESS_KEY_SECRET
	SMSProvider          string `env:"SMS_PROVIDER" envDefault:"mock"` // aliyun, mock
	SMSSignName          string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode      string `env:"SMS_TEMPLATE_CODE"`
	SMSWelcomeTemplateEN string `env:"SMS_WELCOME_TEMPLATE_EN"`
	SMSWelcomeTemplateHI string `env:"SMS_WELCOME_TEMPLATE_HI"`

	// 加密配置
	EncryptionKey string `env:"ENCRYPTION_KEY"` // 32 字节 AES-256，用于加密手机号
	PhoneHashSalt string `env:"PHONEHASH_SALT"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪，endpoint 为空时不导出
	OTELEndpoint    string  `env:"OTEL_ENDPOINT"`
	OTELSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// Validate 在二进制启动时调用，测试里不需要完整配置
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET is required")
		}
		log.Printf("WARN: JWT_SECRET is not set, using an insecure development secret")
		c.JWTSecret = "geeta-saathi-dev-secret"
	}

	if c.EncryptionKey != "" && len(c.EncryptionKey) != 32 {
		return errors.New("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	switch c.OTPMode {
	case "demo", "sms":
	default:
		return errors.New("OTP_MODE must be demo or sms")
	}

	switch c.SessionStore {
	case "redis", "memory":
	default:
		return errors.New("SESSION_STORE must be redis or memory")
	}

	if c.OTPMode == "sms" {
		if c.SMSSignName == "" {
			log.Printf("WARN: SMS_SIGN_NAME is not set, SMS service may not work properly")
		}
		if c.SMSTemplateCode == "" {
			log.Printf("WARN: SMS_TEMPLATE_CODE is not set, SMS service may not work properly")
		}
	}

	return nil
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

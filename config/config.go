package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"       default:"development"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
		Port     string `envconfig:"PORT"      default:"8080"`
		Host     string `envconfig:"HOST"      default:"0.0.0.0"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS" default:"5"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"   default:"5"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"APP_NAME" default:"retreat"`
		Timezone string `envconfig:"TIMEZONE" default:"UTC"`
		CORS     struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"   default:"Content-Type,Authorization"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"   default:"GET,POST,PUT,PATCH,OPTIONS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"   default:"*"`
			Enable           bool     `envconfig:"ENABLE"            default:"true"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"   default:"300"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool   `envconfig:"ENABLE"         default:"true"`
			MaxRequests   int    `envconfig:"MAX_REQUESTS"   default:"30"`
			WindowSeconds int    `envconfig:"WINDOW_SECONDS" default:"60"`
			Store         string `envconfig:"STORE"          default:"memory"`
		} `envconfig:"RATE_LIMITER"`
		Swagger struct {
			Enable bool   `envconfig:"ENABLE"`
			DocURL string `envconfig:"DOC_URL" default:"/swagger/doc.json"`
		} `envconfig:"SWAGGER"`
	} `envconfig:"APP"`

	Pricing struct {
		FeeRateBPS                   int64  `envconfig:"FEE_RATE_BPS"                     default:"290"`
		FixedFeeCents                int64  `envconfig:"FIXED_FEE_CENTS"                  default:"30"`
		DepositPercent               int64  `envconfig:"DEPOSIT_PERCENT"                  default:"50"`
		DefaultDepositPerPersonCents int64  `envconfig:"DEFAULT_DEPOSIT_PER_PERSON_CENTS" default:"25000"`
		Currency                     string `envconfig:"CURRENCY"                         default:"usd"`
	} `envconfig:"PRICING"`

	Retry struct {
		Attempts       int `envconfig:"ATTEMPTS"        default:"3"`
		MinDelayMs     int `envconfig:"MIN_DELAY_MS"    default:"250"`
		MaxDelayMs     int `envconfig:"MAX_DELAY_MS"    default:"2000"`
		TimeoutSeconds int `envconfig:"TIMEOUT_SECONDS" default:"15"`
	} `envconfig:"RETRY"`

	Cache struct {
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST" default:"localhost"`
				Port     string `envconfig:"PORT" default:"6379"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL" default:"300"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret     string `envconfig:"ACCESS_SECRET"`
		Issuer           string `envconfig:"ISSUER"`
		AccessTTLMinutes int    `envconfig:"ACCESS_TTL_MINUTES" default:"720"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			MaxRetry       int    `envconfig:"MAX_RETRY"       default:"5"`
			RetryWaitTime  int    `envconfig:"RETRY_WAIT_TIME" default:"2"`
			MigrationTable string `envconfig:"MIGRATION_TABLE" default:"schema_migrations"`
			AutoMigrate    bool   `envconfig:"AUTO_MIGRATE"`
			Prefix         string `envconfig:"PREFIX"`
			Read           struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				Timezone string `envconfig:"TIMEZONE"`
				SSLMode  string `envconfig:"SSL_MODE" default:"disable"`
			} `envconfig:"READ"`
			Write struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				Timezone string `envconfig:"TIMEZONE"`
				SSLMode  string `envconfig:"SSL_MODE" default:"disable"`
			} `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Payment struct {
		BaseURL          string `envconfig:"BASE_URL"          default:"https://api.stripe.com"`
		SecretKey        string `envconfig:"SECRET_KEY"`
		WebhookSecret    string `envconfig:"WEBHOOK_SECRET"`
		SuccessURL       string `envconfig:"SUCCESS_URL"`
		CancelURL        string `envconfig:"CANCEL_URL"`
		ProductPrefix    string `envconfig:"PRODUCT_PREFIX"    default:"Retreat"`
		ToleranceSeconds int    `envconfig:"TOLERANCE_SECONDS" default:"300"`
	} `envconfig:"PAYMENT"`

	Travel struct {
		BaseURL         string `envconfig:"BASE_URL"          default:"https://api.wetravel.com"`
		APIKey          string `envconfig:"API_KEY"`
		TripID          string `envconfig:"TRIP_ID"`
		CheckoutBaseURL string `envconfig:"CHECKOUT_BASE_URL"`
		RedirectURL     string `envconfig:"REDIRECT_URL"`
		WebhookSecret   string `envconfig:"WEBHOOK_SECRET"`
		Mode            string `envconfig:"MODE"              default:"prefill"`
		PaymentType     string `envconfig:"PAYMENT_TYPE"      default:"deposit"`
	} `envconfig:"TRAVEL"`

	Kafka struct {
		Enable  bool     `envconfig:"ENABLE"`
		Brokers []string `envconfig:"BROKERS"`
		SASL    struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
		Topics struct {
			BookingStatus string `envconfig:"BOOKING_STATUS" default:"booking.status_changed"`
		} `envconfig:"TOPICS"`
	} `envconfig:"KAFKA"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
		S3 struct {
			Enable          bool   `envconfig:"ENABLE"`
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
			BucketName      string `envconfig:"BUCKET_NAME"`
			PublicDomain    string `envconfig:"PUBLIC_DOMAIN"`
		} `envconfig:"S3"`
	} `envconfig:"EXTERNAL"`
}

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		err = godotenv.Load(".env")
		if err != nil {
			log.Warn().Err(err).Msg("Could not load .env file, continuing with existing environment variables")
		} else {
			log.Info().Msg("Successfully loaded variables from .env file into environment")
		}

		err = envconfig.Process("", &conf)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to process environment variables")
		}

		initialized = true

		log.Info().Msg("Service configuration initialized successfully")
	})

	if err != nil {
		return fmt.Errorf("loading .env file: %w", err)
	}

	return nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Warn().Err(err).Msg("Configuration initialized without .env file")
		}
	}

	return &conf
}

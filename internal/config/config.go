package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// GatewayConfig is loaded once at startup and never mutated afterwards.
// Components receive the values they need at construction time.
type GatewayConfig struct {
	Env string 	   `yaml:"env"`
	HTTPServer 	   `yaml:"http_server"`
	GatewayDB 	   `yaml:"gateway_db"`
	LogConfig 	   `yaml:"log_config"`
	KafkaService   `yaml:"kafka-service"`
	CloudPayments  `yaml:"cloudpayments"`
	WalletOne      `yaml:"walletone"`
	Outbox         `yaml:"outbox"`
	Sweep          `yaml:"sweep"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type GatewayDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel 	string 	`yaml:"log_level"`
	LogFormat 	string 	`yaml:"log_format"`
	LogOutput 	string 	`yaml:"log_output"`
}

type KafkaService struct {
	Host  string `yaml:"host"`
	Port  string `yaml:"port"`
	Topic string `yaml:"topic" env-default:"payment-events"`
}

type CloudPayments struct {
	APISecret       string   `yaml:"api_secret" env:"CLOUDPAYMENTS_API_SECRET"`
	ValidCurrencies []string `yaml:"valid_currencies" env-default:"RUB"`
}

type WalletOne struct {
	SecretKey         string `yaml:"secret_key" env:"WALLETONE_SECRET_KEY"`
	MerchantID        string `yaml:"merchant_id"`
	CurrencyID        string `yaml:"currency_id" env-default:"643"`
	SuccessURL        string `yaml:"success_url"`
	FailURL           string `yaml:"fail_url"`
	DescriptionDetail string `yaml:"description_detail" env-default:"description"`
	HashAlgorithm     string `yaml:"hash_algorithm" env-default:"sha1"`
}

type Outbox struct {
	Interval    time.Duration `yaml:"interval" env-default:"1s"`
	BatchSize   int           `yaml:"batch_size" env-default:"50"`
	MaxAttempts int           `yaml:"max_attempts" env-default:"5"`
}

type Sweep struct {
	Interval time.Duration `yaml:"interval" env-default:"30s"`
}

func MustLoad() *GatewayConfig {

	// Processing env config variable and file
	configPath := os.Getenv("PAYMENT_CONFIG_PATH")

	if configPath == ""{
		log.Fatalf("PAYMENT_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil{
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg GatewayConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil{
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}

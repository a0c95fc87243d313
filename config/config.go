package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type FirebaseConfig struct {
	ProjectID           string `mapstructure:"projectID"`
	CredentialsFile     string `mapstructure:"credentialsFile"`
	StorageBucket       string `mapstructure:"storageBucket"`
	ProductsCollection  string `mapstructure:"productsCollection"`
	UsersCollection     string `mapstructure:"usersCollection"`
	ErrorLogsCollection string `mapstructure:"errorLogsCollection"`
}

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secretKey"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
}

type CacheConfig struct {
	ProductTTL      time.Duration `mapstructure:"productTTL"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
}

// IsDevelopment reports whether the app runs in development mode. The error
// boundary only returns raw error messages to callers in this mode.
func (c *Config) IsDevelopment() bool {
	return c.Mode == "" || c.Mode == "development"
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	// Secrets and deployment identifiers come from the environment when set,
	// so the checked-in config never carries credentials.
	if s := os.Getenv("JWT_SECRET"); s != "" {
		config.JWT.SecretKey = s
	}
	if p := os.Getenv("FIREBASE_PROJECT_ID"); p != "" {
		config.Firebase.ProjectID = p
	}
	if f := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); f != "" {
		config.Firebase.CredentialsFile = f
	}
	if b := os.Getenv("FIREBASE_STORAGE_BUCKET"); b != "" {
		config.Firebase.StorageBucket = b
	}
	if m := os.Getenv("APP_ENV"); m != "" {
		config.Mode = m
	}

	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "8MB"
	defaultSearchDebounce     = 300 * time.Millisecond
	defaultProvisionWait      = 500 * time.Millisecond
	defaultTokenTTL           = 7 * 24 * time.Hour
	defaultSlowQuery          = 200 * time.Millisecond
)

// Gateway drivers
const (
	GatewayDriverMemory   = "memory"
	GatewayDriverPostgres = "postgres"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Gateway selects the remote data gateway backing the repositories
	Gateway *GatewayConfig `json:"gateway" yaml:"gateway"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Storage configuration for listing images and avatars
	Storage *StorageConfig `json:"storage" yaml:"storage"`

	// PubSub configuration for the message change feed
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Firebase configuration for the identity directory
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// LocalStore configuration for the durable client-side key/value store
	LocalStore *LocalStoreConfig `json:"localStore" yaml:"localStore"`

	Search *SearchConfig `json:"search" yaml:"search"`

	Session *SessionConfig `json:"session" yaml:"session"`

	// QRCode configuration for listing share codes
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// GatewayConfig defines which backend implements the remote data gateway
type GatewayConfig struct {
	// Driver is "memory" or "postgres"
	Driver string `json:"driver" yaml:"driver"`

	// ProvisionDelay simulates the asynchronous profile provisioning of the memory driver
	ProvisionDelay time.Duration `json:"provisionDelay" yaml:"provisionDelay"`

	// Migrate runs the embedded schema migration on start (postgres driver only)
	Migrate bool `json:"migrate" yaml:"migrate"`

	// SlowQuery is the elapsed time above which a gateway query is logged as slow
	SlowQuery time.Duration `json:"slowQuery" yaml:"slowQuery"`
}

// StorageConfig defines the object storage bucket
type StorageConfig struct {
	// BucketURL is a gocloud.dev blob URL, e.g. mem://, file:///var/storefront, gs://bucket
	BucketURL string `json:"bucketUrl" yaml:"bucketUrl"`

	// PublicBaseURL is prefixed to object keys to build publicly resolvable references
	PublicBaseURL string `json:"publicBaseUrl" yaml:"publicBaseUrl"`
}

// PubSubConfig defines the change feed transport
type PubSubConfig struct {
	// Provider type: "local" for the in-process broker or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	ProjectID      string `json:"projectId" yaml:"projectId"`
	TopicID        string `json:"topicId" yaml:"topicId"`
	// SubscriptionID prefixes the subscription each process creates for itself (google provider)
	SubscriptionID string `json:"subscriptionId" yaml:"subscriptionId"`

	// BufferSize bounds the per-subscription delivery queue of the local broker
	BufferSize int `json:"bufferSize" yaml:"bufferSize"`
}

// AuthConfig defines the password auth gateway
type AuthConfig struct {
	SecretKey  string        `json:"secretKey" yaml:"secretKey"`
	TokenTTL   time.Duration `json:"tokenTtl" yaml:"tokenTtl"`
	BcryptCost int           `json:"bcryptCost" yaml:"bcryptCost"`
}

// FirebaseConfig defines Firebase configuration for identity lookups
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

type LocalStoreConfig struct {
	// Path of the sqlite database file; ":memory:" keeps it in process
	Path string `json:"path" yaml:"path"`
}

type SearchConfig struct {
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

type SessionConfig struct {
	// ProvisionWait bounds how long registration waits for the profile row
	ProvisionWait time.Duration `json:"provisionWait" yaml:"provisionWait"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
	BaseURL              string `json:"baseUrl" yaml:"baseUrl"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// A missing .env file is not an error
	_ = godotenv.Load()

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate

			break
		}
	}

	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// STOREFRONT-style names become dotted paths aligned with the YAML keys,
			// e.g. LOCALSTORE_PATH -> localStore.path
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

// ApplyDefaults fills the optional sections so consumers never see nil.
func (cfg *Config) ApplyDefaults() {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Gateway == nil {
		cfg.Gateway = &GatewayConfig{}
	}
	if cfg.Gateway.Driver == "" {
		cfg.Gateway.Driver = GatewayDriverMemory
	}
	if cfg.Gateway.SlowQuery <= 0 {
		cfg.Gateway.SlowQuery = defaultSlowQuery
	}
	if cfg.Storage == nil {
		cfg.Storage = &StorageConfig{}
	}
	if cfg.Storage.BucketURL == "" {
		cfg.Storage.BucketURL = "mem://"
	}
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = defaultTokenTTL
	}
	if cfg.LocalStore == nil {
		cfg.LocalStore = &LocalStoreConfig{}
	}
	if cfg.LocalStore.Path == "" {
		cfg.LocalStore.Path = ":memory:"
	}
	if cfg.Search == nil {
		cfg.Search = &SearchConfig{}
	}
	if cfg.Search.Debounce <= 0 {
		cfg.Search.Debounce = defaultSearchDebounce
	}
	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.ProvisionWait <= 0 {
		cfg.Session.ProvisionWait = defaultProvisionWait
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv reads POSTGRES_REPLICAS_{index}_{HOST,PORT,USERNAME,PASSWORD}.
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}

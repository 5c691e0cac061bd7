package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"delivery-route-optimizer/internal/cost"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/obs"
)

const defaultPath = "."

type Config struct {
	Env struct {
		Name        string        `koanf:"name"`
		ServiceName string        `koanf:"serviceName"`
		Log         obs.LogConfig `koanf:"log"`
	} `koanf:"env"`

	HTTP HTTPConfig `koanf:"http"`

	Postgres db.Config `koanf:"postgres"`

	Redis RedisConfig `koanf:"redis"`

	Geocoder GeocoderConfig `koanf:"geocoder"`

	Road RoadConfig `koanf:"road"`

	Explainer ExplainerConfig `koanf:"explainer"`

	Risk RiskConfig `koanf:"risk"`

	Solver SolverConfig `koanf:"solver"`

	Cost cost.Config `koanf:"cost"`

	Pipeline PipelineConfig `koanf:"pipeline"`
}

type HTTPConfig struct {
	Port         int   `koanf:"port" validate:"gt=0,lte=65535"`
	MaxBodyBytes int64 `koanf:"maxBodyBytes" validate:"gt=0"`
	Timeouts     struct {
		ReadTimeout       time.Duration `koanf:"readTimeout"`
		ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
		WriteTimeout      time.Duration `koanf:"writeTimeout"`
		IdleTimeout       time.Duration `koanf:"idleTimeout"`
	} `koanf:"timeouts"`
}

type RedisConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	TTL       time.Duration `koanf:"ttl"`
	KeyPrefix string        `koanf:"keyPrefix"`
}

// GeocoderConfig selects the remote geocoder behind the static fallback table.
type GeocoderConfig struct {
	Provider      string        `koanf:"provider" validate:"oneof=static nominatim ors"`
	BaseURL       string        `koanf:"baseUrl"`
	APIKey        string        `koanf:"apiKey"`
	UserAgent     string        `koanf:"userAgent"`
	CountrySuffix string        `koanf:"countrySuffix"`
	MinInterval   time.Duration `koanf:"minInterval"`
	Timeout       time.Duration `koanf:"timeout"`
	Attempts      int           `koanf:"attempts" validate:"gte=0"`
}

type RoadConfig struct {
	Provider string        `koanf:"provider" validate:"oneof=none osrm"`
	BaseURL  string        `koanf:"baseUrl"`
	Profile  string        `koanf:"profile"`
	Timeout  time.Duration `koanf:"timeout"`
}

type ExplainerConfig struct {
	Provider string        `koanf:"provider" validate:"oneof=none openrouter gemini"`
	BaseURL  string        `koanf:"baseUrl"`
	APIKey   string        `koanf:"apiKey"`
	Model    string        `koanf:"model"`
	Timeout  time.Duration `koanf:"timeout"`
}

type RiskConfig struct {
	ZonesPath    string `koanf:"zonesPath" validate:"required"`
	Intersection string `koanf:"intersection" validate:"oneof=approximate exact"`
}

type SolverConfig struct {
	TimeLimit     time.Duration `koanf:"timeLimit" validate:"gt=0"`
	DropPenalty   int64         `koanf:"dropPenalty" validate:"gt=0"`
	Scale         float64       `koanf:"scale" validate:"gt=0"`
	Metaheuristic string        `koanf:"metaheuristic" validate:"oneof=guided_local_search none"`
	MaxStall      int           `koanf:"maxStall" validate:"gte=0"`
}

// PipelineConfig holds the traffic and speed policy of the optimize pipeline.
type PipelineConfig struct {
	PeakTrafficFactor    float64       `koanf:"peakTrafficFactor" validate:"gt=0"`
	AvoidPeakTraffic     float64       `koanf:"avoidPeakTraffic" validate:"gt=0"`
	PeakSpeedKmh         float64       `koanf:"peakSpeedKmh" validate:"gt=0"`
	AvoidPeakSpeedKmh    float64       `koanf:"avoidPeakSpeedKmh" validate:"gt=0"`
	SafetyExponent       float64       `koanf:"safetyExponent" validate:"gte=1"`
	OffPeakTrafficFactor float64       `koanf:"offPeakTrafficFactor" validate:"gt=0"`
	OffPeakSpeedKmh      float64       `koanf:"offPeakSpeedKmh" validate:"gt=0"`
	StrategySpeedKmh     float64       `koanf:"strategySpeedKmh" validate:"gt=0"`
	HistoryTimeout       time.Duration `koanf:"historyTimeout"`
}

// Option customizes loading.
type Option func(*loadOptions)

type loadOptions struct {
	environ func() []string
}

// WithEnviron replaces os.Environ as the source of overrides.
func WithEnviron(fn func() []string) Option {
	return func(o *loadOptions) { o.environ = fn }
}

// New loads .env (if any), then config/config.yaml with environment overrides,
// fills defaults and validates the result.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg, err := LoadWithEnv[Config]("config", []string{"config", "../config", "../../config"})
	if err != nil {
		return nil, err
	}

	return Finalize(cfg)
}

// Finalize applies defaults and validates cfg.
func Finalize(cfg *Config) (*Config, error) {
	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return cfg, nil
}

// LoadWithEnv loads <name>.yaml from the first search path that has it and
// overlays environment variables whose first segment names a top-level section.
func LoadWithEnv[T any](name string, configPath []string, opts ...Option) (*T, error) {
	var lo loadOptions
	for _, o := range opts {
		o(&lo)
	}

	cfg := new(T)
	k := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			if filepath.IsAbs(path) {
				searchPaths = append(searchPaths, path)
				continue
			}
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			break
		}
	}
	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", name)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", name)
	}

	existing := k.Raw()

	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: lo.environ,
		TransformFunc: func(key, v string) (string, any) {
			return canonicalizeEnvKey(key, existing), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", name)
	}

	return cfg, nil
}

// canonicalizeEnvKey maps ENV_VAR_NAME onto an existing YAML path, e.g.
// SOLVER_TIMELIMIT -> solver.timeLimit. Variables whose first segment is not
// a known section are ignored.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for i, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
			continue
		}
		if i == 0 {
			return ""
		}
		canonical = append(canonical, segment)
		current = nil
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
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

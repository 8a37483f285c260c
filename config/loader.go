package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/util"
)

const envPrefix = "VELDT_"

// FileSystem abstracts the file operations the loader performs, so tests
// can run against a fake tree.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserHomeDir() (string, error)
}

type osFileSystem struct{}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (osFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// LoadOption adjusts how Load resolves its sources.
type LoadOption func(*loadOptions)

type loadOptions struct {
	fs         FileSystem
	configFile string
	envFile    string
}

// WithFileSystem substitutes the filesystem the loader reads through.
func WithFileSystem(fs FileSystem) LoadOption {
	return func(o *loadOptions) { o.fs = fs }
}

// WithConfigFile pins the configuration file instead of searching for one.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFile pins the .env file instead of searching for one.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// Load reads configuration for component into cfg, merging three sources
// in rising precedence: a YAML file, a .env file, and VELDT_ environment
// variables. Missing sources are skipped silently; a file that exists but
// cannot be read is logged and skipped.
func Load(component string, cfg any, opts ...LoadOption) error {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = osFileSystem{}
	}

	configFile := o.configFile
	if configFile == "" {
		configFile = findConfigFile(o.fs, component)
	}
	envFile := o.envFile
	if envFile == "" {
		envFile = findEnvFile(o.fs, component)
	}

	v := viper.New()

	if configFile != "" && o.fs.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("config file unreadable, skipping", map[string]interface{}{
				"file":  configFile,
				"error": err.Error(),
			})
		}
	}

	bindEnv(v)

	if envFile != "" && o.fs.Exists(envFile) {
		if err := o.fs.LoadEnv(envFile); err != nil {
			logger.Warn("env file unreadable, skipping", map[string]interface{}{
				"file":  envFile,
				"error": err.Error(),
			})
		} else {
			// Rebind so variables the .env file introduced are seen.
			bindEnv(v)
		}
	}

	decode := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		sizeStringHookFunc(),
	))
	if err := v.Unmarshal(cfg, decode); err != nil {
		return fmt.Errorf("config: unmarshal %s: %w", component, err)
	}
	return nil
}

// LoadSettings loads SDK settings for the default "veldt" component,
// applies defaults, and validates the result.
func LoadSettings(opts ...LoadOption) (*Settings, error) {
	s := &Settings{}
	if err := Load("veldt", s, opts...); err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// findConfigFile returns the first existing candidate for component's
// configuration file.
func findConfigFile(fs FileSystem, component string) string {
	candidates := []string{
		fmt.Sprintf("./%s.yml", component),
		fmt.Sprintf("./%s.yaml", component),
		fmt.Sprintf("./config/%s.yml", component),
	}
	if home, err := fs.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, ".veldt", component+".yml"))
	}
	for _, path := range candidates {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile returns the first existing .env candidate for component.
func findEnvFile(fs FileSystem, component string) string {
	for _, path := range []string{".env." + component, ".env"} {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// bindEnv copies every VELDT_ environment variable into v under each key
// spelling the variable could mean. VELDT_CONNECTION_MAX_IDLE_CONNS has to
// reach the nested key "connection.max_idle_conns", and only the variants
// make that mapping unambiguous without a schema.
func bindEnv(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}
		for _, variant := range keyVariants(strings.TrimPrefix(pair[0], envPrefix)) {
			v.Set(variant, pair[1])
		}
	}
}

// keyVariants lists the viper keys an underscore-separated variable may
// map to: the flat spelling, the fully dotted spelling, and every split
// with one leading dotted segment.
func keyVariants(key string) []string {
	lower := strings.ToLower(key)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := map[string]bool{}
	variants := make([]string, 0, len(parts)+1)
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			variants = append(variants, k)
		}
	}

	add(lower)
	add(strings.ReplaceAll(lower, "_", "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	return variants
}

// sizeStringHookFunc decodes human readable sizes such as "4MB" into plain
// int64 fields. Durations are handled by the duration hook before this one
// runs.
func sizeStringHookFunc() mapstructure.DecodeHookFuncType {
	int64Type := reflect.TypeOf(int64(0))
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != int64Type {
			return data, nil
		}
		s := data.(string)
		if s == "" {
			return int64(0), nil
		}
		if n := util.ParseSize(s, -1); n >= 0 {
			return n, nil
		}
		return nil, fmt.Errorf("invalid size %q", s)
	}
}

package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: modules.twofactor.sms.ttl_minutes
// is overridden by CAMPUSGUARD_MODULES_TWOFACTOR_SMS_TTL_MINUTES.
const EnvPrefix = "CAMPUSGUARD"

// Viper is a Config backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper

	mu       sync.Mutex
	onChange []func()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper reads the file at pathFile (type inferred from the extension)
// and reloads it whenever it changes on disk.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	vc := &Viper{v: v}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
		vc.mu.Lock()
		hooks := append([]func(){}, vc.onChange...)
		vc.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	})
	v.WatchConfig()

	return vc, nil
}

// NewViperFromBytes loads configuration from memory. configType is a viper
// format such as "yaml" or "json".
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// SetDefault registers a fallback used when neither file nor env has key.
func (vc *Viper) SetDefault(key string, value any) {
	vc.v.SetDefault(key, value)
}

// OnChange registers fn to run after every file reload.
func (vc *Viper) OnChange(fn func()) {
	vc.mu.Lock()
	vc.onChange = append(vc.onChange, fn)
	vc.mu.Unlock()
}

func (vc *Viper) GetBool(key string) bool { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }
func (vc *Viper) GetInt(key string) int { return vc.v.GetInt(key) }
func (vc *Viper) GetInt64(key string) int64 { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint(key string) uint { return vc.v.GetUint(key) }
func (vc *Viper) GetUint16(key string) uint16 { return vc.v.GetUint16(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

func (vc *Viper) GetHour(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Hour
}

func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

func (vc *Viper) GetArray(key string) []string {
	if s, ok := vc.v.Get(key).(string); ok {
		if s == "" {
			return nil
		}
		out := strings.Split(s, ",")
		for i := range out {
			out[i] = strings.TrimSpace(out[i])
		}
		return out
	}
	return vc.v.GetStringSlice(key)
}

func (vc *Viper) GetMap(key string) map[string]string {
	if s, ok := vc.v.Get(key).(string); ok {
		m := make(map[string]string)
		for _, pair := range strings.Split(s, ",") {
			if k, val, found := strings.Cut(pair, ":"); found {
				m[strings.TrimSpace(k)] = strings.TrimSpace(val)
			}
		}
		return m
	}
	return vc.v.GetStringMapString(key)
}

// Close exists for io.Closer; viper holds nothing that needs releasing.
func (vc *Viper) Close() error {
	return nil
}

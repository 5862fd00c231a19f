// Package config loads the optional config.yaml that backs the
// extract/prepare CLI drivers, the way pkg/util/config.go does for
// the online server, generalized to let command-line flags win over
// whatever the file sets.
package config

import (
	"flag"

	"github.com/spf13/viper"

	"osmch/pkg/xerrors"
)

// Load reads config.yaml from dir, or the current directory if dir is
// empty. A missing config file is not an error: flags and their
// defaults carry the run on their own.
func Load(dir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, xerrors.WrapErrorf(err, xerrors.KindConfiguration, "read config in %q", dir)
	}
	return v, nil
}

// ExplicitFlags returns the set of flag names the user actually
// passed on the command line. Only flags absent from this set are
// eligible for a config-file override, so an explicit flag always
// wins regardless of what the file says.
func ExplicitFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func OverrideString(dst *string, flagName, key string, v *viper.Viper, explicit map[string]bool) {
	if !explicit[flagName] && v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func OverrideInt(dst *int, flagName, key string, v *viper.Viper, explicit map[string]bool) {
	if !explicit[flagName] && v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func OverrideFloat64(dst *float64, flagName, key string, v *viper.Viper, explicit map[string]bool) {
	if !explicit[flagName] && v.IsSet(key) {
		*dst = v.GetFloat64(key)
	}
}

func OverrideBool(dst *bool, flagName, key string, v *viper.Viper, explicit map[string]bool) {
	if !explicit[flagName] && v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

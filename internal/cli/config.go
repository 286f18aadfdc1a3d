package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncecere/usage_dashboard/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the merged configuration as dotted keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, line := range flattenConfig(redact(*opts.loaded)) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

// redact masks connection strings that may carry credentials.
func redact(cfg config.Config) config.Config {
	if cfg.Database.URL != "" {
		cfg.Database.URL = "[redacted]"
	}
	if cfg.Redis.URL != "" {
		cfg.Redis.URL = "[redacted]"
	}
	return cfg
}

// flattenConfig renders cfg as key=value lines named after the mapstructure tags,
// so the output matches the keys accepted in usage.yaml.
func flattenConfig(cfg config.Config) []string {
	var out []string
	walkConfig(reflect.ValueOf(cfg), "", &out)
	return out
}

func walkConfig(v reflect.Value, prefix string, out *[]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			walkConfig(fv, key, out)
			continue
		}
		*out = append(*out, key+"="+formatValue(fv))
	}
}

func formatValue(v reflect.Value) string {
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	if v.Kind() == reflect.Slice {
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v.Interface())
}

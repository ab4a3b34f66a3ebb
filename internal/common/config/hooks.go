package config

import (
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()),
	viper.DecodeHook(URLDecodeHook()),
}

// URLDecodeHook decodes strings into url.URL values so that configuration
// files can carry service base urls as plain strings.
func URLDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(url.URL{}) {
			return data, nil
		}
		u, err := url.Parse(fmt.Sprintf("%v", data))
		if err != nil {
			return nil, err
		}
		return *u, nil
	}
}

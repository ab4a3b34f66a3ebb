package configuration

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	"github.com/renstrom/shortuuid"
	"github.com/spf13/viper"

	commonconfig "github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/config"
)

// SpecsFromPattern loads every benchmark spec file matching the glob pattern.
func SpecsFromPattern(pattern string) ([]*BenchmarkSpec, error) {
	filePaths, err := zglob.Glob(pattern)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return SpecsFromFilePaths(filePaths)
}

func SpecsFromFilePaths(filePaths []string) ([]*BenchmarkSpec, error) {
	rv := make([]*BenchmarkSpec, len(filePaths))
	for i, filePath := range filePaths {
		spec, err := SpecFromFilePath(filePath)
		if err != nil {
			return nil, err
		}
		rv[i] = spec
	}
	return rv, nil
}

// SpecFromFilePath loads one benchmark spec file, fills in defaults, and
// validates it.
func SpecFromFilePath(filePath string) (*BenchmarkSpec, error) {
	rv := &BenchmarkSpec{}
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		err = errors.WithMessagef(err, "failed to read in BenchmarkSpec %s", filePath)
		return nil, errors.WithStack(err)
	}
	if err := v.Unmarshal(rv, commonconfig.CustomHooks...); err != nil {
		err = errors.WithMessagef(err, "failed to unmarshal BenchmarkSpec %s", filePath)
		return nil, errors.WithStack(err)
	}

	// If no benchmark name is provided, set it to be the filename.
	if rv.Name == "" {
		fileName := filepath.Base(filePath)
		fileName = strings.TrimSuffix(fileName, filepath.Ext(fileName))
		rv.Name = fileName
	}
	initialiseBenchmarkSpec(rv)

	if err := rv.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid BenchmarkSpec %s", filePath)
	}
	return rv, nil
}

// HarnessConfigFromFilePath loads the optional harness-level configuration.
func HarnessConfigFromFilePath(filePath string) (*HarnessConfig, error) {
	rv := &HarnessConfig{}
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		err = errors.WithMessagef(err, "failed to read in HarnessConfig %s", filePath)
		return nil, errors.WithStack(err)
	}
	if err := v.Unmarshal(rv, commonconfig.CustomHooks...); err != nil {
		err = errors.WithMessagef(err, "failed to unmarshal HarnessConfig %s", filePath)
		return nil, errors.WithStack(err)
	}
	return rv, nil
}

func initialiseBenchmarkSpec(spec *BenchmarkSpec) {
	for i := range spec.Services {
		if spec.Services[i].StatusPath == "" {
			spec.Services[i].StatusPath = DefaultStatusPath
		}
	}

	// Generate names for any load tests without an explicitly set one.
	for i := range spec.LoadTests {
		if spec.LoadTests[i].Name == "" {
			spec.LoadTests[i].Name = shortuuid.New()
		}
		if spec.LoadTests[i].Method == "" {
			spec.LoadTests[i].Method = http.MethodGet
		} else {
			spec.LoadTests[i].Method = strings.ToUpper(spec.LoadTests[i].Method)
		}
	}

	if w := spec.Workflow; w != nil {
		if w.Concurrency == 0 {
			w.Concurrency = defaultWorkflowConcurrency
		}
		if w.PerRequestTimeout == 0 {
			w.PerRequestTimeout = defaultWorkflowTimeout
		}
		if w.IngestService == "" {
			w.IngestService = DefaultIngestService
		}
		if w.IndexService == "" {
			w.IndexService = DefaultIndexService
		}
		if w.SearchService == "" {
			w.SearchService = DefaultSearchService
		}
		if w.IngestPath == "" {
			w.IngestPath = DefaultIngestPath
		}
		if w.IndexPath == "" {
			w.IndexPath = DefaultIndexPath
		}
		if w.SearchPath == "" {
			w.SearchPath = DefaultSearchPath
		}
		if w.IngestSettle == nil {
			w.IngestSettle = &SettleConfig{
				ReadinessPath:   defaultIngestReadinessPath,
				ReadyWhenStatus: IngestReadyStatus,
				FallbackDelay:   defaultIngestFallbackDelay,
			}
		}
		if w.IndexSettle == nil {
			w.IndexSettle = &SettleConfig{
				FallbackDelay: defaultIndexFallbackDelay,
			}
		}
		initialiseSettle(w.IngestSettle)
		initialiseSettle(w.IndexSettle)
	}

	r := &spec.Readiness
	if r.Attempts == 0 {
		r.Attempts = defaultReadinessAttempts
	}
	if r.Interval == 0 {
		r.Interval = defaultReadinessInterval
	}
	if r.CacheTTL == 0 {
		r.CacheTTL = defaultReadinessCacheTTL
	}
	if r.ProbeTimeout == 0 {
		r.ProbeTimeout = defaultReadinessTimeout
	}
}

func initialiseSettle(settle *SettleConfig) {
	if settle.ReadinessPath == "" {
		return
	}
	if settle.PollInterval == 0 {
		settle.PollInterval = defaultPollInterval
	}
	if settle.PollAttempts == 0 {
		settle.PollAttempts = defaultPollAttempts
	}
}

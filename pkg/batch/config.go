package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/corrshift/pkg/apply"
	"github.com/abworrall/corrshift/pkg/shift"
)

// Config drives a batch run. It can be read from YAML or TOML, and the
// command line overrides whatever the file says.
type Config struct {
	Verbosity int `yaml:"verbosity" toml:"verbosity"`

	Bounds  shift.Bounds `yaml:"bounds" toml:"bounds"`
	Workers int          `yaml:"workers" toml:"workers"` // per search; 0 means one per CPU

	OutputDir          string `yaml:"output_dir" toml:"output_dir"`
	RequireEmptyOutput bool   `yaml:"require_empty_output" toml:"require_empty_output"`

	Applier    string `yaml:"applier" toml:"applier"` // native, imagej or none
	ImageJPath string `yaml:"imagej_path" toml:"imagej_path"`

	ScoreMaps bool `yaml:"score_maps" toml:"score_maps"` // write a PNG and HDR score map per pair
}

func NewConfig() Config {
	return Config{
		Bounds:  shift.DefaultBounds(),
		Applier: apply.KindNative,
	}
}

// LoadConfig reads a config file; the extension picks the format.
// Fields the file leaves out keep their NewConfig defaults.
func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return newConfigFromYaml(contents)
	case ".toml":
		return newConfigFromToml(contents)
	default:
		return Config{}, fmt.Errorf("config %s: unknown format (want .yaml or .toml)", filename)
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Config{}, fmt.Errorf("config yaml: %w", err)
	}
	return c, nil
}

func newConfigFromToml(b []byte) (Config, error) {
	c := NewConfig()
	md, err := toml.Decode(string(b), &c)
	if err != nil {
		return Config{}, fmt.Errorf("config toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config toml: unknown keys %v", undecoded)
	}
	return c, nil
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config) Validate() error {
	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers %d < 0", c.Workers)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: no output dir")
	}
	if _, err := apply.New(c.Applier, c.OutputDir, c.ImageJPath, nil); err != nil {
		return err
	}
	return nil
}

// LogLevel maps Verbosity onto zerolog levels: 0 is info, 1 debug,
// 2 and up trace.
func (c Config) LogLevel() zerolog.Level {
	switch {
	case c.Verbosity <= 0:
		return zerolog.InfoLevel
	case c.Verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

func (c Config) searchOptions(log *zerolog.Logger) shift.Options {
	return shift.Options{Workers: c.Workers, KeepScores: c.ScoreMaps, Log: log}
}

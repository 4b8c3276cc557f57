package avatar

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/yanioaioan/swooz/fusion"
	"github.com/yanioaioan/swooz/radial"
	"github.com/yanioaioan/swooz/registration"
)

// Config holds every tunable of a capture. It is read as a whole at the start of each
// AddFrame and Finalize call.
type Config struct {
	// BackgroundDistance is how far behind the closest sample a pixel can be and still be
	// foreground, in meters.
	BackgroundDistance float64 `json:"background_distance"`
	// DepthCloud is the depth of the face behind the nose tip, in meters. Samples outside
	// [nose - 0.5, nose + DepthCloud + 0.5] are dropped from the face and nose clouds.
	DepthCloud float64 `json:"depth_cloud"`

	ReferenceDownscale float64 `json:"reference_downscale"`
	TargetDownscale    float64 `json:"target_downscale"`
	// RejectionThreshold is the largest alignment score accepted, in squared meters.
	RejectionThreshold float64 `json:"rejection_threshold"`
	// ScoreCeiling caps the distance every point contributes to the score, in meters.
	ScoreCeiling float64 `json:"score_ceiling"`

	Registration registration.Config `json:"registration"`
	Radial       radial.Params       `json:"radial"`
	Fusion       fusion.Params       `json:"fusion"`

	DetectLandmarks bool `json:"detect_landmarks"`
	// DebugDir, when set, receives a false color picture of every fusion stage.
	DebugDir string `json:"debug_dir,omitempty"`
}

// DefaultConfig returns the configuration live captures start with.
func DefaultConfig() Config {
	return Config{
		BackgroundDistance: 1.5,
		DepthCloud:         0.12,
		ReferenceDownscale: 0.2,
		TargetDownscale:    0.2,
		RejectionThreshold: 0.0002,
		ScoreCeiling:       0.1,
		Registration:       registration.DefaultConfig(),
		Radial:             radial.DefaultParams(),
		Fusion:             fusion.DefaultParams(),
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.BackgroundDistance <= 0 {
		return utils.NewConfigValidationError(path, errors.New("background_distance must be positive"))
	}
	if cfg.DepthCloud < 0 {
		return utils.NewConfigValidationError(path, errors.New("depth_cloud cannot be negative"))
	}
	if err := checkDownscale("reference_downscale", cfg.ReferenceDownscale); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if err := checkDownscale("target_downscale", cfg.TargetDownscale); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if cfg.RejectionThreshold < 0 {
		return utils.NewConfigValidationError(path, errors.New("rejection_threshold cannot be negative"))
	}
	if cfg.ScoreCeiling <= 0 {
		return utils.NewConfigValidationError(path, errors.New("score_ceiling must be positive"))
	}
	if err := cfg.Registration.Validate(); err != nil {
		return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "registration"), err)
	}
	if err := cfg.Radial.Validate(); err != nil {
		return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "radial"), err)
	}
	if err := cfg.Fusion.Validate(); err != nil {
		return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "fusion"), err)
	}
	return nil
}

func checkDownscale(name string, factor float64) error {
	if factor <= 0 || factor > 1 {
		return errors.Errorf("%s must be in (0, 1], got %v", name, factor)
	}
	return nil
}

// ConfigFromAttributes decodes an attribute map on top of DefaultConfig. Keys follow the json
// names of Config.
func ConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	conf := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &conf,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, err
	}
	if err := conf.Validate("avatar"); err != nil {
		return nil, err
	}
	return &conf, nil
}

// ReadConfigFile reads a JSON object of attributes and decodes it like ConfigFromAttributes.
func ReadConfigFile(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read avatar config")
	}
	var attributes map[string]interface{}
	if err := json.Unmarshal(data, &attributes); err != nil {
		return nil, errors.Wrapf(err, "cannot parse avatar config %q", path)
	}
	return ConfigFromAttributes(attributes)
}
